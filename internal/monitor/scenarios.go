package monitor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/guardianai/sentinel/internal/domain"
	"github.com/guardianai/sentinel/internal/scoring"
)

// Scenario is one synthetic charge template the driver cycles through to
// simulate incoming transactions. The feature vector is forwarded to the
// scoring service as-is; its semantics belong to the service.
type Scenario struct {
	Merchant string
	Amount   domain.Cents
	Category string
	Features scoring.FeatureVector
}

// scenarioEntry is the YAML shape of one scenario.
type scenarioEntry struct {
	Merchant string    `yaml:"merchant"`
	Amount   float64   `yaml:"amount"`
	Category string    `yaml:"category"`
	Features []float64 `yaml:"features"`
}

// DefaultScenarios returns the built-in scenario cycle: a mix of benign
// renewals and charges the scoring service should flag (price surges, zombie
// billing).
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			Merchant: "PredatorySvc",
			Amount:   domain.CentsFromFloat(54.99),
			Category: "Software",
			Features: scoring.FeatureVector{54.99, 40, 52, 30, 0, 1, 3},
		},
		{
			Merchant: "Netflix",
			Amount:   domain.CentsFromFloat(22.99),
			Category: "Entertainment",
			Features: scoring.FeatureVector{22.99, 0, 0, 30, 0, 1, 3},
		},
		{
			Merchant: "QuickLoan Express",
			Amount:   domain.CentsFromFloat(329.99),
			Category: "Finance",
			Features: scoring.FeatureVector{329.99, 22, 32, 30, 0, 1, 2},
		},
		{
			Merchant: "Spotify Family",
			Amount:   domain.CentsFromFloat(16.99),
			Category: "Entertainment",
			Features: scoring.FeatureVector{16.99, 0, 0, 30, 0, 1, 3},
		},
		{
			Merchant: "Zombie Fitness Club",
			Amount:   domain.CentsFromFloat(59.99),
			Category: "Health",
			Features: scoring.FeatureVector{59.99, 25, 25, 95, 0, 1, 4},
		},
		{
			Merchant: "Cloud Storage Pro",
			Amount:   domain.CentsFromFloat(9.99),
			Category: "Software",
			Features: scoring.FeatureVector{9.99, 0, 0, 30, 0, 1, 3},
		},
	}
}

// ScenariosFromFile loads a scenario cycle from a YAML file. The file holds a
// list of entries, each with a merchant, dollar amount, category and a
// features array of exactly seven values.
func ScenariosFromFile(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ScenariosFromFile: %w", err)
	}

	var entries []scenarioEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("ScenariosFromFile: parse %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("ScenariosFromFile: %s contains no scenarios", path)
	}

	scenarios := make([]Scenario, 0, len(entries))
	for i, e := range entries {
		if e.Merchant == "" {
			return nil, fmt.Errorf("ScenariosFromFile: scenario %d: merchant is required", i)
		}
		if e.Amount < 0 {
			return nil, fmt.Errorf("ScenariosFromFile: scenario %d (%s): negative amount", i, e.Merchant)
		}
		if len(e.Features) != len(scoring.FeatureVector{}) {
			return nil, fmt.Errorf("ScenariosFromFile: scenario %d (%s): feature vector has %d values, want %d",
				i, e.Merchant, len(e.Features), len(scoring.FeatureVector{}))
		}

		var features scoring.FeatureVector
		copy(features[:], e.Features)

		scenarios = append(scenarios, Scenario{
			Merchant: e.Merchant,
			Amount:   domain.CentsFromFloat(e.Amount),
			Category: e.Category,
			Features: features,
		})
	}
	return scenarios, nil
}
