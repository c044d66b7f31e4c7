// Package llm talks to hosted language models on behalf of the tutor. Every
// provider returns JSON validated against the schema of the request.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a response for a request.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	// ModelID is the model the provider sends requests to.
	ModelID() string
}

// Request is one generation call.
type Request struct {
	System   string
	Messages []Message
	// Schema constrains the response. Without it Content is the raw text.
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema the response must satisfy.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is the provider's answer.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string // end, max_tokens
}

// Usage counts tokens of one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// UserPrompt is a request with a single user message.
func UserPrompt(system, prompt string, schema *Schema, maxTokens int) Request {
	return Request{
		System:    system,
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		Schema:    schema,
		MaxTokens: maxTokens,
	}
}

type purposeKey struct{}

// WithPurpose labels the calls made with ctx for logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok {
		return v
	}
	return "unknown"
}
