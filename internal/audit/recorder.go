package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/guardianai/sentinel/internal/domain"
)

// Recorder generates receipts for flagged transactions, keeps them for the
// session and forwards each one to the configured Archiver. It is safe for
// concurrent use.
type Recorder struct {
	mu       sync.RWMutex
	receipts []Receipt

	archiver Archiver
	log      zerolog.Logger
	now      func() time.Time
}

// NewRecorder creates a recorder backed by the given archiver.
func NewRecorder(archiver Archiver, log zerolog.Logger) *Recorder {
	return &Recorder{
		archiver: archiver,
		log:      log,
		now:      time.Now,
	}
}

// Record generates and stores a receipt for a flagged transaction. The
// archive upload is best-effort; a failure is logged and the receipt is still
// retained in memory.
func (r *Recorder) Record(ctx context.Context, tx domain.Transaction, rationale string) Receipt {
	receipt := NewReceipt(tx, rationale, r.now())

	r.mu.Lock()
	r.receipts = append(r.receipts, receipt)
	r.mu.Unlock()

	objectName := fmt.Sprintf("%s/%s.txt", receipt.GeneratedAt.Format("2006/01/02"), receipt.ID)
	if err := r.archiver.Archive(ctx, objectName, []byte(receipt.Body)); err != nil {
		r.log.Warn().Err(err).Str("receipt_id", receipt.ID).Msg("Failed to archive audit receipt")
	}

	return receipt
}

// Receipts returns a copy of all receipts generated this session, oldest
// first.
func (r *Recorder) Receipts() []Receipt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Receipt, len(r.receipts))
	copy(out, r.receipts)
	return out
}
