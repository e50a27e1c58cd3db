package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var sampleFeatures = FeatureVector{54.99, 40, 52, 30, 0, 1, 3}

func TestClient_Score(t *testing.T) {
	var gotPath, gotMethod, gotContentType string
	var gotBody struct {
		FeatureVector []float64 `json:"feature_vector"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		json.NewEncoder(w).Encode(Result{
			RiskScore:   0.87,
			IsFlagged:   true,
			Explanation: "Unusual price increase pattern",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	result, err := client.Score(context.Background(), sampleFeatures)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if gotPath != "/analyze" {
		t.Errorf("request path = %q, want /analyze", gotPath)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("request method = %q, want POST", gotMethod)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if len(gotBody.FeatureVector) != 7 || gotBody.FeatureVector[0] != 54.99 {
		t.Errorf("feature_vector = %v, want %v", gotBody.FeatureVector, sampleFeatures[:])
	}

	if result.RiskScore != 0.87 {
		t.Errorf("RiskScore = %v, want 0.87", result.RiskScore)
	}
	if !result.IsFlagged {
		t.Error("IsFlagged = false, want true")
	}
	if result.Explanation != "Unusual price increase pattern" {
		t.Errorf("Explanation = %q", result.Explanation)
	}
}

func TestClient_Score_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	if _, err := client.Score(context.Background(), sampleFeatures); err == nil {
		t.Error("expected error for 503 response")
	}
}

func TestClient_Score_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	if _, err := client.Score(context.Background(), sampleFeatures); err == nil {
		t.Error("expected error for malformed response body")
	}
}

func TestClient_Score_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL, 5*time.Second)
	if _, err := client.Score(ctx, sampleFeatures); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestClient_Score_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL, 50*time.Millisecond)
	start := time.Now()
	if _, err := client.Score(context.Background(), sampleFeatures); err == nil {
		t.Error("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %v, expected well under 2s", elapsed)
	}
}

func TestClient_Score_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, 1*time.Second)
	if _, err := client.Score(context.Background(), sampleFeatures); err == nil {
		t.Error("expected error when the bridge is unreachable")
	}
}
