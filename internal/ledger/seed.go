package ledger

import (
	"fmt"
	"os"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/guardianai/sentinel/internal/domain"
)

// seedEntry is the YAML/seed-table shape of one transaction before it is
// given an ID and converted into the domain type.
type seedEntry struct {
	Date     string  `yaml:"date"`
	Merchant string  `yaml:"merchant"`
	Amount   float64 `yaml:"amount"`
	Category string  `yaml:"category"`
	Flagged  bool    `yaml:"flagged"`
	Reason   string  `yaml:"reason"`
}

// defaultSeed is the demo customer's ledger at session start: the current
// billing month (including the flagged charges) plus the historical baseline
// rows the explainer compares against.
var defaultSeed = []seedEntry{
	{Date: "2025-01-11", Merchant: "PredatorySvc", Amount: 49.99, Category: "Software", Flagged: true, Reason: "Unannounced 40% price hike detected after a secret tier upgrade."},
	{Date: "2025-01-10", Merchant: "QuickLoan Express", Amount: 299.99, Category: "Finance", Flagged: true, Reason: "20% interest rate adjustment hidden in monthly processing fee."},
	{Date: "2025-01-09", Merchant: "Netflix", Amount: 22.99, Category: "Entertainment"},
	{Date: "2025-01-08", Merchant: "Adobe Creative Cloud", Amount: 79.99, Category: "Software", Flagged: true, Reason: "33% price increase detected compared to previous billing cycle."},
	{Date: "2025-01-07", Merchant: "Spotify Family", Amount: 16.99, Category: "Entertainment"},
	{Date: "2025-01-06", Merchant: "Amazon Prime", Amount: 14.99, Category: "Shopping"},
	{Date: "2025-01-05", Merchant: "McAfee Total Protection", Amount: 149.99, Category: "Security", Flagged: true, Reason: "50% price jump detected. Auto-renewal price differs from last year's promo."},
	{Date: "2025-01-04", Merchant: "Gym Membership Plus", Amount: 89.99, Category: "Health"},
	{Date: "2025-01-03", Merchant: "Cloud Storage Pro", Amount: 9.99, Category: "Software"},
	{Date: "2025-01-02", Merchant: "NewsMax Digital", Amount: 4.99, Category: "News"},
	{Date: "2025-01-01", Merchant: "Identity Guard Premium", Amount: 29.99, Category: "Security", Flagged: true, Reason: "Monthly fee increased by $10.00 since the baseline charge in December."},
	{Date: "2024-12-24", Merchant: "TechSupport Helpline", Amount: 39.99, Category: "Services", Flagged: true, Reason: "Subscription cost increased significantly without prior user confirmation."},

	// Historical baselines for the flagged merchants.
	{Date: "2024-12-11", Merchant: "PredatorySvc", Amount: 35.99, Category: "Software"},
	{Date: "2024-12-10", Merchant: "QuickLoan Express", Amount: 249.99, Category: "Finance"},
	{Date: "2024-12-08", Merchant: "Adobe Creative Cloud", Amount: 59.99, Category: "Software"},
	{Date: "2024-12-05", Merchant: "McAfee Total Protection", Amount: 99.99, Category: "Security"},
	{Date: "2024-12-01", Merchant: "Identity Guard Premium", Amount: 19.99, Category: "Security"},
	{Date: "2024-11-24", Merchant: "TechSupport Helpline", Amount: 14.99, Category: "Services"},

	{Date: "2024-12-30", Merchant: "Hulu + Live TV", Amount: 82.99, Category: "Entertainment"},
	{Date: "2024-12-28", Merchant: "Microsoft 365", Amount: 12.99, Category: "Software"},
	{Date: "2024-12-26", Merchant: "Audible Premium", Amount: 14.95, Category: "Entertainment"},
	{Date: "2024-12-22", Merchant: "Disney+ Bundle", Amount: 19.99, Category: "Entertainment"},
	{Date: "2024-12-20", Merchant: "NYT Digital", Amount: 17.00, Category: "News"},
	{Date: "2024-12-18", Merchant: "Dropbox Plus", Amount: 11.99, Category: "Software"},
	{Date: "2024-12-15", Merchant: "Planet Fitness", Amount: 24.99, Category: "Health"},
	{Date: "2024-12-12", Merchant: "LinkedIn Premium", Amount: 59.99, Category: "Career"},
}

// DefaultSeed returns the built-in seed ledger for a new session.
func DefaultSeed() ([]domain.Transaction, error) {
	return buildSeed(defaultSeed)
}

// SeedFromFile loads a seed ledger from a YAML file. The file holds a list of
// seed entries, each with a string date (YYYY-MM-DD), merchant, dollar amount
// and category, plus flagged and reason for pre-flagged rows.
func SeedFromFile(path string) ([]domain.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("SeedFromFile: %w", err)
	}

	var entries []seedEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("SeedFromFile: parse %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("SeedFromFile: %s contains no entries", path)
	}
	return buildSeed(entries)
}

func buildSeed(entries []seedEntry) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0, len(entries))
	for i, e := range entries {
		date, err := civil.ParseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("buildSeed: entry %d (%s): invalid date %q: %w", i, e.Merchant, e.Date, err)
		}

		tx := domain.Transaction{
			ID:        uuid.NewString(),
			Date:      date,
			Merchant:  e.Merchant,
			Amount:    domain.CentsFromFloat(e.Amount),
			Category:  e.Category,
			Predatory: e.Flagged,
		}
		if e.Flagged {
			tx.Reason = e.Reason
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("buildSeed: entry %d: %w", i, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
