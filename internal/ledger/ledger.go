package ledger

import (
	"fmt"
	"sync"

	"github.com/guardianai/sentinel/internal/domain"
)

// Ledger is the in-memory ordered collection of transactions for one
// monitoring session. It is the single canonical state of the engine: the
// monitoring driver appends scored charges, remediation bulk-resets a
// merchant, and every other component only reads snapshots.
//
// Display order is newest-first, so appends prepend. Entries are never
// deleted and never reordered.
type Ledger struct {
	mu  sync.RWMutex
	txs []domain.Transaction
	ids map[string]bool
}

// New creates a ledger pre-populated with the given seed transactions, in the
// order provided. Seed entries must already satisfy the ledger invariants.
func New(seed []domain.Transaction) (*Ledger, error) {
	l := &Ledger{ids: make(map[string]bool, len(seed))}
	for i := range seed {
		tx := seed[i]
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("ledger.New: seed entry %d: %w", i, err)
		}
		if l.ids[tx.ID] {
			return nil, fmt.Errorf("ledger.New: duplicate seed ID %s", tx.ID)
		}
		l.ids[tx.ID] = true
		l.txs = append(l.txs, tx)
	}
	return l, nil
}

// Append validates tx and prepends it to the ledger so the newest charge is
// first in display order. The write is atomic: readers either see the ledger
// with or without tx, never a partial state.
func (l *Ledger) Append(tx domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("ledger.Append: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ids[tx.ID] {
		return fmt.Errorf("ledger.Append: duplicate ID %s", tx.ID)
	}
	l.ids[tx.ID] = true
	l.txs = append([]domain.Transaction{tx}, l.txs...)
	return nil
}

// Snapshot returns a copy of the ledger in iteration order. Mutating the
// returned slice does not affect the ledger.
func (l *Ledger) Snapshot() []domain.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Transaction, len(l.txs))
	copy(out, l.txs)
	return out
}

// Latest returns the most recently appended transaction, if any.
func (l *Ledger) Latest() (domain.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.txs) == 0 {
		return domain.Transaction{}, false
	}
	return l.txs[0], true
}

// ByMerchant returns all transactions whose merchant matches exactly, in
// iteration order.
func (l *Ledger) ByMerchant(merchant string) []domain.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.Transaction
	for _, tx := range l.txs {
		if tx.Merchant == merchant {
			out = append(out, tx)
		}
	}
	return out
}

// Flagged returns all currently flagged transactions in iteration order.
func (l *Ledger) Flagged() []domain.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.Transaction
	for _, tx := range l.txs {
		if tx.Predatory {
			out = append(out, tx)
		}
	}
	return out
}

// IsUnsubscribed reports whether the merchant has been remediated. The
// monitoring driver uses this to skip remediated merchants without scoring.
func (l *Ledger) IsUnsubscribed(merchant string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, tx := range l.txs {
		if tx.Merchant == merchant && tx.Status == domain.StatusUnsubscribed {
			return true
		}
	}
	return false
}

// Remediate applies the user's "stop flagging this merchant" action: every
// transaction with the exact merchant gets Predatory cleared, Reason cleared
// and Status set to Unsubscribed, in one atomic step. It returns the number
// of rows updated; an unknown merchant is a no-op, not an error.
func (l *Ledger) Remediate(merchant string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	updated := 0
	for i := range l.txs {
		if l.txs[i].Merchant != merchant {
			continue
		}
		l.txs[i].Predatory = false
		l.txs[i].Reason = ""
		l.txs[i].Status = domain.StatusUnsubscribed
		updated++
	}
	return updated
}

// Len returns the number of transactions in the ledger.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.txs)
}
