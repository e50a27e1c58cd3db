// Package scoring is the boundary to the external risk-scoring service. The
// engine owns the request/response contract only; the scoring logic itself
// lives behind the service.
package scoring

import "context"

// FeatureVector is the ordered 7-tuple the scoring service expects:
// amount, price change percent, total change percent, days since last
// activity, quick-charge flag, frequency code, category code. The engine
// treats it as opaque; each scenario definition supplies its own vector.
type FeatureVector [7]float64

// Result is the scoring service's verdict for one charge.
type Result struct {
	RiskScore   float64 `json:"risk_score"`
	IsFlagged   bool    `json:"is_flagged"`
	Explanation string  `json:"explanation"`
}

// Scorer submits a feature vector for risk scoring. Implementations must
// honor context cancellation; any transport or payload problem is returned
// as an error and the caller abandons the tick.
type Scorer interface {
	Score(ctx context.Context, features FeatureVector) (*Result, error)
}
