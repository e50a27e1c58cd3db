package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/guardianai/sentinel/internal/audit"
	"github.com/guardianai/sentinel/internal/domain"
	"github.com/guardianai/sentinel/internal/ledger"
	"github.com/guardianai/sentinel/internal/scoring"
)

// scoreFunc adapts a function to the Scorer interface.
type scoreFunc func(ctx context.Context, features scoring.FeatureVector) (*scoring.Result, error)

func (f scoreFunc) Score(ctx context.Context, features scoring.FeatureVector) (*scoring.Result, error) {
	return f(ctx, features)
}

func benignScorer() scoring.Scorer {
	return scoreFunc(func(ctx context.Context, _ scoring.FeatureVector) (*scoring.Result, error) {
		return &scoring.Result{RiskScore: 0.1}, nil
	})
}

func flaggingScorer(explanation string) scoring.Scorer {
	return scoreFunc(func(ctx context.Context, _ scoring.FeatureVector) (*scoring.Result, error) {
		return &scoring.Result{RiskScore: 0.9, IsFlagged: true, Explanation: explanation}, nil
	})
}

func failingScorer() scoring.Scorer {
	return scoreFunc(func(ctx context.Context, _ scoring.FeatureVector) (*scoring.Result, error) {
		return nil, errors.New("bridge unavailable")
	})
}

func testConfig(scenarios ...Scenario) Config {
	return Config{
		Interval:       time.Hour, // tests drive ticks directly
		ScoringTimeout: time.Second,
		StartDate:      civil.Date{Year: 2025, Month: 1, Day: 11},
		EndDate:        civil.Date{Year: 2026, Month: 1, Day: 11},
		StepDays:       15,
		Scenarios:      scenarios,
	}
}

func seededLedger(t *testing.T, txs ...domain.Transaction) *ledger.Ledger {
	t.Helper()
	l, err := ledger.New(txs)
	if err != nil {
		t.Fatalf("seeding ledger: %v", err)
	}
	return l
}

func seedTx(id, merchant string, date civil.Date, amount float64) domain.Transaction {
	return domain.Transaction{
		ID:       id,
		Date:     date,
		Merchant: merchant,
		Amount:   domain.CentsFromFloat(amount),
		Category: "Test",
	}
}

func newTestDriver(t *testing.T, cfg Config, l *ledger.Ledger, s scoring.Scorer, rec *audit.Recorder) *Driver {
	t.Helper()
	d, err := New(cfg, l, s, rec, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d
}

func TestConfig_Validate(t *testing.T) {
	base := testConfig(DefaultScenarios()...)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.Interval = 0 }},
		{"zero scoring timeout", func(c *Config) { c.ScoringTimeout = 0 }},
		{"zero step days", func(c *Config) { c.StepDays = 0 }},
		{"missing start date", func(c *Config) { c.StartDate = civil.Date{} }},
		{"end before start", func(c *Config) { c.EndDate = civil.Date{Year: 2024, Month: 1, Day: 1} }},
		{"no scenarios", func(c *Config) { c.Scenarios = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if _, err := New(cfg, seededLedger(t), benignScorer(), nil, zerolog.Nop()); err == nil {
				t.Error("expected config validation error")
			}
		})
	}
}

func TestRunTick_AppendsScoredTransaction(t *testing.T) {
	jan9 := civil.Date{Year: 2025, Month: 1, Day: 9}
	l := seededLedger(t, seedTx("seed-1", "Netflix", jan9, 22.99))

	sc := Scenario{
		Merchant: "PredatorySvc",
		Amount:   domain.CentsFromFloat(54.99),
		Category: "Software",
		Features: scoring.FeatureVector{54.99, 40, 52, 30, 0, 1, 3},
	}
	rec := audit.NewRecorder(audit.NopArchiver{}, zerolog.Nop())
	d := newTestDriver(t, testConfig(sc), l, flaggingScorer("Price surge detected"), rec)

	if got := d.runTick(context.Background()); got != OutcomeSubmitted {
		t.Fatalf("runTick = %v, want %v", got, OutcomeSubmitted)
	}

	latest, ok := l.Latest()
	if !ok {
		t.Fatal("ledger is empty after submitted tick")
	}
	if latest.Merchant != "PredatorySvc" {
		t.Errorf("latest merchant = %s, want PredatorySvc", latest.Merchant)
	}
	if !latest.Predatory || latest.Reason != "Price surge detected" {
		t.Errorf("latest = %+v, want flagged with scoring explanation", latest)
	}

	// The simulated calendar advanced one step from the start date.
	want := civil.Date{Year: 2025, Month: 1, Day: 26}
	if latest.Date != want {
		t.Errorf("transaction date = %v, want %v", latest.Date, want)
	}

	// Flagged append produces exactly one audit receipt.
	if receipts := rec.Receipts(); len(receipts) != 1 {
		t.Errorf("got %d audit receipts, want 1", len(receipts))
	}
}

func TestRunTick_BenignAppendHasNoReasonOrReceipt(t *testing.T) {
	l := seededLedger(t)
	sc := DefaultScenarios()[1] // Netflix
	rec := audit.NewRecorder(audit.NopArchiver{}, zerolog.Nop())
	d := newTestDriver(t, testConfig(sc), l, benignScorer(), rec)

	if got := d.runTick(context.Background()); got != OutcomeSubmitted {
		t.Fatalf("runTick = %v, want %v", got, OutcomeSubmitted)
	}

	latest, _ := l.Latest()
	if latest.Predatory || latest.Reason != "" {
		t.Errorf("benign append carries flag state: %+v", latest)
	}
	if receipts := rec.Receipts(); len(receipts) != 0 {
		t.Errorf("got %d audit receipts for a benign charge, want 0", len(receipts))
	}
}

func TestRunTick_SkipsRemediatedMerchant(t *testing.T) {
	jan9 := civil.Date{Year: 2025, Month: 1, Day: 9}
	l := seededLedger(t, seedTx("seed-1", "PredatorySvc", jan9, 49.99))
	l.Remediate("PredatorySvc")

	called := false
	scorer := scoreFunc(func(ctx context.Context, _ scoring.FeatureVector) (*scoring.Result, error) {
		called = true
		return &scoring.Result{}, nil
	})

	sc := DefaultScenarios()[0] // PredatorySvc
	d := newTestDriver(t, testConfig(sc), l, scorer, nil)

	before := l.Len()
	if got := d.runTick(context.Background()); got != OutcomeSkipped {
		t.Fatalf("runTick = %v, want %v", got, OutcomeSkipped)
	}
	if called {
		t.Error("scoring service was called for a remediated merchant")
	}
	if l.Len() != before {
		t.Error("ledger changed on a skipped tick")
	}

	// The cycle still advances past the skipped scenario.
	if st := d.Status(); st.NextScenario != 0 || st.Ticks != 1 {
		t.Errorf("Status = %+v, want the index advanced once", st)
	}
	if l.Flagged() != nil {
		t.Error("remediated merchant was re-flagged")
	}
}

func TestRunTick_DedupsConsecutiveSameMerchant(t *testing.T) {
	l := seededLedger(t)
	sc := DefaultScenarios()[1] // Netflix, benign
	d := newTestDriver(t, testConfig(sc), l, benignScorer(), nil)

	if got := d.runTick(context.Background()); got != OutcomeSubmitted {
		t.Fatalf("first tick = %v, want %v", got, OutcomeSubmitted)
	}
	if got := d.runTick(context.Background()); got != OutcomeDeduped {
		t.Fatalf("second tick = %v, want %v", got, OutcomeDeduped)
	}
	if l.Len() != 1 {
		t.Errorf("ledger has %d entries, want 1 after dedup", l.Len())
	}
}

func TestRunTick_FailedScoringAdvancesCycle(t *testing.T) {
	l := seededLedger(t)
	scenarios := DefaultScenarios()[:2]
	d := newTestDriver(t, testConfig(scenarios...), l, failingScorer(), nil)

	if got := d.runTick(context.Background()); got != OutcomeFailed {
		t.Fatalf("runTick = %v, want %v", got, OutcomeFailed)
	}
	if l.Len() != 0 {
		t.Error("failed tick appended to the ledger")
	}

	st := d.Status()
	if st.NextScenario != 1 {
		t.Errorf("NextScenario = %d after failed tick, want 1", st.NextScenario)
	}
	if st.Ticks != 1 {
		t.Errorf("Ticks = %d, want 1", st.Ticks)
	}
}

func TestRunTick_GoesInertAtTerminalDate(t *testing.T) {
	l := seededLedger(t)
	cfg := testConfig(DefaultScenarios()...)
	cfg.EndDate = cfg.StartDate // first step already crosses the boundary
	d := newTestDriver(t, cfg, l, benignScorer(), nil)

	if got := d.runTick(context.Background()); got != OutcomeInert {
		t.Fatalf("crossing tick = %v, want %v", got, OutcomeInert)
	}
	if l.Len() != 0 {
		t.Error("inert tick appended to the ledger")
	}

	st := d.Status()
	if !st.Inert {
		t.Error("Status.Inert = false after crossing the terminal date")
	}
	if st.SimDate != cfg.StartDate {
		t.Errorf("SimDate = %v, want unchanged %v", st.SimDate, cfg.StartDate)
	}

	// Every later tick is a no-op too.
	if got := d.runTick(context.Background()); got != OutcomeInert {
		t.Errorf("post-inert tick = %v, want %v", got, OutcomeInert)
	}
	if l.Len() != 0 {
		t.Error("post-inert tick appended to the ledger")
	}
}

func TestRunTick_RemediationDuringScoringSuppressesAppend(t *testing.T) {
	jan9 := civil.Date{Year: 2025, Month: 1, Day: 9}
	l := seededLedger(t, seedTx("seed-1", "PredatorySvc", jan9, 49.99))

	// The remediation lands while the scoring call is in flight and the
	// verdict comes back flagged anyway; the result must be thrown away.
	scorer := scoreFunc(func(ctx context.Context, _ scoring.FeatureVector) (*scoring.Result, error) {
		l.Remediate("PredatorySvc")
		return &scoring.Result{RiskScore: 0.9, IsFlagged: true, Explanation: "surge"}, nil
	})

	sc := DefaultScenarios()[0] // PredatorySvc
	d := newTestDriver(t, testConfig(sc), l, scorer, nil)

	if got := d.runTick(context.Background()); got != OutcomeSkipped {
		t.Fatalf("runTick = %v, want %v", got, OutcomeSkipped)
	}
	if l.Len() != 1 {
		t.Errorf("ledger has %d entries, want the seed row only", l.Len())
	}
	if flagged := l.Flagged(); len(flagged) != 0 {
		t.Errorf("remediated merchant was re-flagged: %+v", flagged)
	}
}

func TestRunTick_DiscardsResultAfterStop(t *testing.T) {
	l := seededLedger(t)
	sc := DefaultScenarios()[1]

	var d *Driver
	scorer := scoreFunc(func(ctx context.Context, _ scoring.FeatureVector) (*scoring.Result, error) {
		// Simulate Stop arriving while the scoring call is in flight.
		d.stopOnce.Do(func() { close(d.stopCh) })
		return &scoring.Result{}, nil
	})

	d = newTestDriver(t, testConfig(sc), l, scorer, nil)

	if got := d.runTick(context.Background()); got != OutcomeDiscarded {
		t.Fatalf("runTick = %v, want %v", got, OutcomeDiscarded)
	}
	if l.Len() != 0 {
		t.Error("discarded result was appended to the ledger")
	}
}

func TestDriver_StartStop(t *testing.T) {
	l := seededLedger(t)
	cfg := testConfig(DefaultScenarios()...)
	cfg.Interval = 10 * time.Millisecond
	d := newTestDriver(t, cfg, l, benignScorer(), nil)

	if err := d.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := d.Start(); err == nil {
		t.Error("second Start succeeded, want error")
	}

	time.Sleep(50 * time.Millisecond)
	d.Stop()
	d.Stop() // idempotent

	st := d.Status()
	if st.Running {
		t.Error("Status.Running = true after Stop")
	}
	if st.Ticks == 0 {
		t.Error("driver never ticked while running")
	}

	if err := d.Start(); err == nil {
		t.Error("Start after Stop succeeded, want error")
	}

	// No appends can happen after Stop returns.
	size := l.Len()
	time.Sleep(30 * time.Millisecond)
	if l.Len() != size {
		t.Error("ledger grew after Stop returned")
	}
}
