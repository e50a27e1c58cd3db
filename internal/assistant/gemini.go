package assistant

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is the default Gemini model used for replies.
const DefaultModelName = "gemini-2.5-flash"

// GeminiAssistant is the concrete Assistant backed by the Gemini API.
type GeminiAssistant struct {
	client *genai.Client
	model  string
}

// NewGeminiAssistant creates an assistant using ambient Gemini credentials
// (GOOGLE_API_KEY or application default credentials). An empty model selects
// DefaultModelName.
func NewGeminiAssistant(ctx context.Context, model string) (*GeminiAssistant, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiAssistant: create genai client: %w", err)
	}

	if model == "" {
		model = DefaultModelName
	}
	return &GeminiAssistant{client: client, model: model}, nil
}

// Reply implements the Assistant interface.
func (a *GeminiAssistant) Reply(ctx context.Context, message, transactions, alerts string) (string, error) {
	prompt := buildPrompt(message, transactions, alerts)

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GeminiAssistant.Reply: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("GeminiAssistant.Reply: empty response from model")
	}
	return text, nil
}

// Ensure GeminiAssistant implements the Assistant interface.
var _ Assistant = (*GeminiAssistant)(nil)
