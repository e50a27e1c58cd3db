// Package digest projects ledger snapshots into the two textual views the
// conversational assistant consumes. Both projections are pure and preserve
// ledger iteration order.
package digest

import (
	"fmt"
	"strings"

	"github.com/guardianai/sentinel/internal/baseline"
	"github.com/guardianai/sentinel/internal/domain"
)

// NoAlerts is the fixed alert digest for a ledger with no flagged
// transactions.
const NoAlerts = "No alerts."

// Transactions renders the full ledger digest, one line per transaction in
// the form "- 2025-01-09  $22.99  Netflix  [OK]", with "[FLAGGED: <reason>]"
// in place of "[OK]" for flagged entries.
func Transactions(txs []domain.Transaction) string {
	lines := make([]string, 0, len(txs))
	for _, tx := range txs {
		flag := "[OK]"
		if tx.Predatory {
			flag = fmt.Sprintf("[FLAGGED: %s]", tx.Reason)
		}
		lines = append(lines, fmt.Sprintf("- %s  $%s  %s  %s", tx.Date, tx.Amount, tx.Merchant, flag))
	}
	return strings.Join(lines, "\n")
}

// Alerts renders the flagged-alert digest: one rationale line per flagged
// transaction, each computed fresh against the same snapshot, or the fixed
// NoAlerts sentence when nothing is flagged.
func Alerts(txs []domain.Transaction) string {
	var lines []string
	for _, tx := range txs {
		if !tx.Predatory {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", tx.Merchant, baseline.Explain(txs, tx)))
	}
	if len(lines) == 0 {
		return NoAlerts
	}
	return strings.Join(lines, "\n")
}
