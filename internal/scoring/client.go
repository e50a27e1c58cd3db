package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the HTTP implementation of Scorer, talking to the scoring
// bridge's /analyze endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a scoring client for the bridge at baseURL (e.g.
// "http://127.0.0.1:5000"). timeout bounds each scoring call; on expiry the
// call fails and the tick is abandoned.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Score implements the Scorer interface.
func (c *Client) Score(ctx context.Context, features FeatureVector) (*Result, error) {
	payload := struct {
		FeatureVector []float64 `json:"feature_vector"`
	}{FeatureVector: features[:]}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("scoring.Score: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("scoring.Score: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoring.Score: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the error message; the tick is
		// abandoned either way.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("scoring.Score: unexpected status %d: %s", resp.StatusCode, snippet)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("scoring.Score: decode response: %w", err)
	}
	return &result, nil
}

// Ensure Client implements the Scorer interface.
var _ Scorer = (*Client)(nil)
