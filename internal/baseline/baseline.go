// Package baseline turns a raw "flagged" verdict into a price-change
// rationale grounded in the merchant's own billing history.
package baseline

import (
	"fmt"
	"math"

	"github.com/guardianai/sentinel/internal/domain"
)

// Explain produces the rationale for one flagged transaction by comparing it
// against the merchant's oldest earlier non-flagged charge in the snapshot.
//
// When a usable baseline exists the rationale cites both charges and the
// percent change; otherwise (no history, or a zero-amount baseline that would
// make the percent change undefined) it falls back to the scoring service's
// own reason verbatim.
//
// Explain is a pure function of its inputs and is recomputed per call, so a
// later remediation of the baseline rows immediately changes the output.
func Explain(snapshot []domain.Transaction, flagged domain.Transaction) string {
	base, ok := oldestBaseline(snapshot, flagged)
	if !ok || base.Amount == 0 {
		return flagged.Reason
	}

	pct := percentChange(base.Amount, flagged.Amount)
	return fmt.Sprintf("On %s, it cost $%s. On %s, it charged $%s — a %d%% increase. Reason: %s",
		base.Date, base.Amount, flagged.Date, flagged.Amount, pct, flagged.Reason)
}

// oldestBaseline selects the qualifying history row: same merchant, not
// flagged, strictly earlier calendar date. Among qualifiers the smallest date
// wins; on equal dates the first occurrence in snapshot order wins.
func oldestBaseline(snapshot []domain.Transaction, flagged domain.Transaction) (domain.Transaction, bool) {
	var best domain.Transaction
	found := false
	for _, tx := range snapshot {
		if tx.Merchant != flagged.Merchant || tx.Predatory || !tx.Date.Before(flagged.Date) {
			continue
		}
		if !found || tx.Date.Before(best.Date) {
			best = tx
			found = true
		}
	}
	return best, found
}

// percentChange computes round((flagged-base)/base*100) on cent amounts.
// Rounding is half away from zero.
func percentChange(base, flagged domain.Cents) int {
	return int(math.Round(float64(flagged-base) / float64(base) * 100))
}
