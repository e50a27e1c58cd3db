// Package monitor runs the timed simulation loop that feeds the ledger:
// every real-time interval it advances a simulated calendar, picks the next
// charge scenario, submits it for risk scoring and appends the verdict.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/guardianai/sentinel/internal/audit"
	"github.com/guardianai/sentinel/internal/baseline"
	"github.com/guardianai/sentinel/internal/domain"
	"github.com/guardianai/sentinel/internal/ledger"
	"github.com/guardianai/sentinel/internal/scoring"
)

// Outcome classifies what a single tick did.
type Outcome string

const (
	// OutcomeSubmitted - a scored transaction was appended to the ledger.
	OutcomeSubmitted Outcome = "submitted"
	// OutcomeSkipped - the scenario merchant is remediated; no scoring call.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeDeduped - the append was suppressed because the latest ledger
	// entry already belongs to the same merchant.
	OutcomeDeduped Outcome = "deduped"
	// OutcomeFailed - the scoring call failed; the tick was abandoned.
	OutcomeFailed Outcome = "failed"
	// OutcomeDiscarded - the result arrived after Stop and was thrown away.
	OutcomeDiscarded Outcome = "discarded"
	// OutcomeInert - the simulated calendar is past the terminal boundary.
	OutcomeInert Outcome = "inert"
)

// Config holds the driver's policy constants.
type Config struct {
	// Interval is the real-time cadence between ticks.
	Interval time.Duration
	// ScoringTimeout bounds each scoring call; on expiry the tick fails.
	ScoringTimeout time.Duration
	// StartDate is the simulated date at session start.
	StartDate civil.Date
	// EndDate is the terminal boundary; once the simulated date would pass
	// it, the driver goes inert and future ticks are no-ops.
	EndDate civil.Date
	// StepDays is how far the simulated calendar advances per tick.
	StepDays int
	// Scenarios is the cyclic list of charge templates.
	Scenarios []Scenario
}

func (c *Config) validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("monitor: interval must be positive")
	}
	if c.ScoringTimeout <= 0 {
		return fmt.Errorf("monitor: scoring timeout must be positive")
	}
	if c.StepDays <= 0 {
		return fmt.Errorf("monitor: step days must be positive")
	}
	if !c.StartDate.IsValid() || !c.EndDate.IsValid() {
		return fmt.Errorf("monitor: start and end dates are required")
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("monitor: end date %s before start date %s", c.EndDate, c.StartDate)
	}
	if len(c.Scenarios) == 0 {
		return fmt.Errorf("monitor: at least one scenario is required")
	}
	return nil
}

// Status is a point-in-time snapshot of the driver for the API.
type Status struct {
	Running      bool               `json:"running"`
	Inert        bool               `json:"inert"`
	SimDate      civil.Date         `json:"sim_date"`
	NextScenario int                `json:"next_scenario"`
	Ticks        uint64             `json:"ticks"`
	Outcomes     map[Outcome]uint64 `json:"outcomes"`
}

// Driver is the monitoring loop. Ticks are serialized: the timer hands each
// tick to a single worker goroutine over a rendezvous channel, so a new tick
// can never start scoring while the previous one is unresolved; a timer fire
// during a slow tick is dropped.
type Driver struct {
	cfg      Config
	ledger   *ledger.Ledger
	scorer   scoring.Scorer
	recorder *audit.Recorder
	log      zerolog.Logger

	mu       sync.Mutex
	simDate  civil.Date
	idx      int
	ticks    uint64
	outcomes map[Outcome]uint64
	inert    bool
	running  bool

	tickCh   chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a driver. recorder may be nil to disable audit receipts.
func New(cfg Config, l *ledger.Ledger, scorer scoring.Scorer, recorder *audit.Recorder, log zerolog.Logger) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Driver{
		cfg:      cfg,
		ledger:   l,
		scorer:   scorer,
		recorder: recorder,
		log:      log,
		simDate:  cfg.StartDate,
		outcomes: make(map[Outcome]uint64),
		tickCh:   make(chan struct{}),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start launches the timer and worker goroutines. It returns an error if the
// driver was already started or stopped.
func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	select {
	case <-d.stopCh:
		return fmt.Errorf("monitor: driver already stopped")
	default:
	}
	if d.running {
		return fmt.Errorf("monitor: driver already running")
	}
	d.running = true

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	d.wg.Add(2)
	go d.timer()
	go d.worker(ctx)

	d.log.Info().
		Str("sim_date", d.simDate.String()).
		Str("end_date", d.cfg.EndDate.String()).
		Dur("interval", d.cfg.Interval).
		Int("scenarios", len(d.cfg.Scenarios)).
		Msg("Monitoring driver started")
	return nil
}

// Stop halts future ticks. It is idempotent and safe to call at any time; a
// scoring call in flight is cancelled and its result, if any, discarded.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
		d.mu.Lock()
		if d.cancel != nil {
			d.cancel()
		}
		d.mu.Unlock()
	})
	d.wg.Wait()

	d.mu.Lock()
	d.running = false
	d.mu.Unlock()
}

// timer fires ticks at the configured cadence. A fire that arrives while the
// worker is still busy with the previous tick is dropped rather than queued.
func (d *Driver) timer() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			select {
			case d.tickCh <- struct{}{}:
			case <-d.stopCh:
				return
			default:
				d.log.Debug().Msg("Tick dropped: previous tick still in flight")
			}
		}
	}
}

// worker executes ticks one at a time.
func (d *Driver) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopCh:
			return
		case <-d.tickCh:
			outcome := d.runTick(ctx)
			d.note(outcome)
		}
	}
}

// runTick executes one full tick: advance the simulated calendar, select the
// next scenario, then skip, dedup, or score-and-append. The scenario index
// advances exactly once per executed tick regardless of the outcome.
func (d *Driver) runTick(ctx context.Context) Outcome {
	d.mu.Lock()
	d.ticks++

	if d.inert {
		d.mu.Unlock()
		return OutcomeInert
	}

	next := d.simDate.AddDays(d.cfg.StepDays)
	if next.After(d.cfg.EndDate) {
		d.inert = true
		d.mu.Unlock()
		d.log.Info().Str("end_date", d.cfg.EndDate.String()).Msg("Terminal date reached, driver is now inert")
		return OutcomeInert
	}
	d.simDate = next

	sc := d.cfg.Scenarios[d.idx%len(d.cfg.Scenarios)]
	d.idx++
	date := d.simDate
	d.mu.Unlock()

	if d.ledger.IsUnsubscribed(sc.Merchant) {
		d.log.Debug().Str("merchant", sc.Merchant).Msg("Scenario skipped: merchant remediated")
		return OutcomeSkipped
	}

	if last, ok := d.ledger.Latest(); ok && last.Merchant == sc.Merchant {
		d.log.Debug().Str("merchant", sc.Merchant).Msg("Append suppressed: duplicate of latest entry")
		return OutcomeDeduped
	}

	scoreCtx, cancel := context.WithTimeout(ctx, d.cfg.ScoringTimeout)
	defer cancel()

	result, err := d.scorer.Score(scoreCtx, sc.Features)
	if err != nil {
		// Abandon the tick; the next one proceeds normally.
		d.log.Debug().Err(err).Str("merchant", sc.Merchant).Msg("Scoring call failed, tick abandoned")
		return OutcomeFailed
	}

	select {
	case <-d.stopCh:
		return OutcomeDiscarded
	default:
	}

	// A remediation may have landed while the scoring call was in flight;
	// an Unsubscribed merchant must never gain a new entry, flagged or not.
	if d.ledger.IsUnsubscribed(sc.Merchant) {
		d.log.Debug().Str("merchant", sc.Merchant).Msg("Scoring result discarded: merchant remediated mid-call")
		return OutcomeSkipped
	}

	tx := domain.Transaction{
		ID:        uuid.NewString(),
		Date:      date,
		Merchant:  sc.Merchant,
		Amount:    sc.Amount,
		Category:  sc.Category,
		Predatory: result.IsFlagged,
	}
	if result.IsFlagged {
		tx.Reason = result.Explanation
	}

	if err := d.ledger.Append(tx); err != nil {
		d.log.Error().Err(err).Str("merchant", sc.Merchant).Msg("Failed to append scored transaction")
		return OutcomeFailed
	}

	d.log.Info().
		Str("merchant", sc.Merchant).
		Str("date", date.String()).
		Bool("flagged", result.IsFlagged).
		Float64("risk_score", result.RiskScore).
		Msg("Scored transaction appended")

	if tx.Predatory && d.recorder != nil {
		rationale := baseline.Explain(d.ledger.Snapshot(), tx)
		d.recorder.Record(ctx, tx, rationale)
	}

	return OutcomeSubmitted
}

func (d *Driver) note(outcome Outcome) {
	d.mu.Lock()
	d.outcomes[outcome]++
	d.mu.Unlock()
}

// Status returns a snapshot of the driver's state.
func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	outcomes := make(map[Outcome]uint64, len(d.outcomes))
	for k, v := range d.outcomes {
		outcomes[k] = v
	}
	return Status{
		Running:      d.running,
		Inert:        d.inert,
		SimDate:      d.simDate,
		NextScenario: d.idx % len(d.cfg.Scenarios),
		Ticks:        d.ticks,
		Outcomes:     outcomes,
	}
}
