// Package assistant answers the customer's free-text questions about their
// account. It receives only the two ledger digests plus the user message;
// everything else about account state stays inside the engine.
package assistant

import (
	"context"
	"fmt"
	"strings"
)

// ErrorReply is the fixed user-facing reply substituted when the assistant
// call fails for any reason. The session never surfaces a raw transport
// error to the customer.
const ErrorReply = "Connection error. Please ensure the assistant service is running."

// Assistant generates a reply to the user's message given the full ledger
// digest and the flagged-alert digest.
type Assistant interface {
	Reply(ctx context.Context, message, transactions, alerts string) (string, error)
}

// Disabled is an Assistant that always fails. It stands in when no model
// credentials are configured, so the chat boundary degrades to the fixed
// error reply instead of crashing the session.
type Disabled struct{}

// Reply implements the Assistant interface.
func (Disabled) Reply(ctx context.Context, message, transactions, alerts string) (string, error) {
	return "", fmt.Errorf("assistant: not configured")
}

// buildPrompt assembles the Sentinel persona prompt: behavior rules, the
// account's transaction data, the current alerts and the user's message.
func buildPrompt(message, transactions, alerts string) string {
	var b strings.Builder

	b.WriteString("You are Sentinel, a friendly AI assistant for a financial protection service.\n\n")
	b.WriteString("YOUR JOB:\n")
	b.WriteString("Answer ANY questions about the user's transactions. You have access to ALL their transaction data below.\n\n")

	b.WriteString("BEHAVIOR RULES:\n")
	b.WriteString("1. For simple greetings like \"hello\", respond: \"Hi! How can I help you with your transactions today?\"\n")
	b.WriteString("2. For questions about transactions (any category, any merchant, flagged or not), ANSWER using the data below.\n")
	b.WriteString("3. For truly off-topic questions, redirect: \"I'm focused on your finances. Ask me about your transactions!\"\n")
	b.WriteString("4. Keep responses to 1-3 sentences.\n\n")

	fmt.Fprintf(&b, "USER'S TRANSACTION DATA (use this to answer questions):\n%s\n\n", transactions)
	fmt.Fprintf(&b, "FLAGGED ALERTS:\n%s\n\n", alerts)

	b.WriteString("OUTPUT RULES:\n")
	b.WriteString("1. Short responses. 1-3 sentences.\n")
	b.WriteString("2. No markdown. No asterisks. Plain text only.\n")
	b.WriteString("3. When listing, use numbers (1, 2, 3).\n")
	b.WriteString("4. Be helpful and accurate with transaction data.\n\n")

	fmt.Fprintf(&b, "User: %s\n\nSentinel:", message)
	return b.String()
}
