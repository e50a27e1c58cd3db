// Package handlers exposes the engine to the presentation shell: the
// dashboard reads the ledger and alerts, the alert modal triggers
// remediation, and the chat widget talks to the assistant. No business logic
// lives here.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/guardianai/sentinel/internal/api/middleware"
	"github.com/guardianai/sentinel/internal/assistant"
	"github.com/guardianai/sentinel/internal/audit"
	"github.com/guardianai/sentinel/internal/digest"
	"github.com/guardianai/sentinel/internal/domain"
	"github.com/guardianai/sentinel/internal/ledger"
	"github.com/guardianai/sentinel/internal/monitor"
)

// LedgerHandler serves ledger reads and remediation.
type LedgerHandler struct {
	ledger *ledger.Ledger
	log    zerolog.Logger
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(l *ledger.Ledger, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: l, log: log}
}

// ListTransactions handles GET /api/transactions
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.ledger.Snapshot())
}

// ListAlerts handles GET /api/alerts. It returns the flagged transactions
// plus the rendered alert digest the assistant would see, both derived from
// one snapshot so a concurrent remediation cannot make them disagree.
func (h *LedgerHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	snapshot := h.ledger.Snapshot()

	var flagged []domain.Transaction
	for _, tx := range snapshot {
		if tx.Predatory {
			flagged = append(flagged, tx)
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": flagged,
		"count":  len(flagged),
		"digest": digest.Alerts(snapshot),
	})
}

// Remediate handles POST /api/remediate
func (h *LedgerHandler) Remediate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Merchant string `json:"merchant"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Merchant = strings.TrimSpace(req.Merchant)
	if req.Merchant == "" {
		middleware.WriteError(w, http.StatusBadRequest, "merchant is required")
		return
	}

	// An unknown merchant is a no-op, not an error.
	updated := h.ledger.Remediate(req.Merchant)

	h.log.Info().Str("merchant", req.Merchant).Int("updated", updated).Msg("Merchant remediated")

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"merchant": req.Merchant,
		"updated":  updated,
	})
}

// ChatHandler serves the conversational assistant boundary.
type ChatHandler struct {
	ledger    *ledger.Ledger
	assistant assistant.Assistant
	log       zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(l *ledger.Ledger, a assistant.Assistant, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{ledger: l, assistant: a, log: log}
}

// Chat handles POST /api/chat. The two digests are computed from one ledger
// snapshot so the assistant always sees a consistent account state. On any
// assistant failure the fixed connection-error reply is substituted; the
// endpoint itself never fails past request validation.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	snapshot := h.ledger.Snapshot()
	transactions := digest.Transactions(snapshot)
	alerts := digest.Alerts(snapshot)

	reply, err := h.assistant.Reply(r.Context(), req.Message, transactions, alerts)
	if err != nil {
		h.log.Warn().Err(err).Msg("Assistant call failed, substituting error reply")
		reply = assistant.ErrorReply
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// MonitorHandler serves driver status and stop.
type MonitorHandler struct {
	driver *monitor.Driver
	log    zerolog.Logger
}

// NewMonitorHandler creates a new monitor handler.
func NewMonitorHandler(d *monitor.Driver, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{driver: d, log: log}
}

// Status handles GET /api/monitor
func (h *MonitorHandler) Status(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.driver.Status())
}

// Stop handles POST /api/monitor/stop
func (h *MonitorHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.driver.Stop()
	h.log.Info().Msg("Monitoring driver stopped by request")
	middleware.WriteJSON(w, http.StatusOK, h.driver.Status())
}

// AuditHandler serves the session's audit receipts.
type AuditHandler struct {
	recorder *audit.Recorder
	log      zerolog.Logger
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(recorder *audit.Recorder, log zerolog.Logger) *AuditHandler {
	return &AuditHandler{recorder: recorder, log: log}
}

// ListReceipts handles GET /api/audit
func (h *AuditHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts := h.recorder.Receipts()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"receipts": receipts,
		"count":    len(receipts),
	})
}
