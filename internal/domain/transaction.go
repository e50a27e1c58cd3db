package domain

import (
	"fmt"
	"strconv"

	"cloud.google.com/go/civil"
)

// StatusUnsubscribed marks every transaction of a merchant the user has
// remediated. Once set, the monitoring driver never flags that merchant again.
const StatusUnsubscribed = "Unsubscribed"

// Transaction represents one recurring charge in the session ledger.
// A transaction is created either from seed data at session start or by the
// monitoring driver after scoring; afterwards it is only ever mutated by
// remediation (bulk reset of Predatory/Reason/Status per merchant).
type Transaction struct {
	ID       string     `json:"id"`
	Date     civil.Date `json:"date"`     // billing date, YYYY-MM-DD
	Merchant string     `json:"merchant"` // exact-match correlation key
	Amount   Cents      `json:"amount"`
	Category string     `json:"category"`

	Predatory bool   `json:"is_predatory"`
	Reason    string `json:"reason,omitempty"` // present only when Predatory
	Status    string `json:"status,omitempty"` // "" or StatusUnsubscribed
}

// Validate checks the ledger invariants for a single transaction.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transaction ID is required")
	}
	if t.Merchant == "" {
		return fmt.Errorf("transaction %s: merchant is required", t.ID)
	}
	if t.Amount < 0 {
		return fmt.Errorf("transaction %s: negative amount %s", t.ID, t.Amount)
	}
	if !t.Predatory && t.Reason != "" {
		return fmt.Errorf("transaction %s: reason set on non-flagged transaction", t.ID)
	}
	if !t.Date.IsValid() {
		return fmt.Errorf("transaction %s: invalid date", t.ID)
	}
	return nil
}

// Cents is a monetary amount in whole cents. Ledger amounts are fixed-point;
// float math only happens at the display boundary.
type Cents int64

// CentsFromFloat converts a dollar amount (e.g. 22.99) to Cents, rounding to
// the nearest cent.
func CentsFromFloat(dollars float64) Cents {
	if dollars >= 0 {
		return Cents(dollars*100 + 0.5)
	}
	return Cents(dollars*100 - 0.5)
}

// Dollars returns the amount as a float64 dollar value.
func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

// String formats the amount with two decimals and no currency symbol,
// e.g. "22.99".
func (c Cents) String() string {
	return strconv.FormatFloat(c.Dollars(), 'f', 2, 64)
}

// MarshalJSON encodes the amount as a plain dollar number (22.99) so the
// display layer can consume it directly.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a dollar number and stores it as cents.
func (c *Cents) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("Cents: parse %q: %w", string(data), err)
	}
	*c = CentsFromFloat(f)
	return nil
}
