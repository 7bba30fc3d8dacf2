// Package llm defines the language-model capability used by the
// personalization engine. The engine never depends on a concrete provider:
// it asks a Completer for text and carries a template fallback for when
// the call fails or times out.
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable indicates no model client is configured.
var ErrUnavailable = errors.New("llm: model capability unavailable")

// Options tune a single completion call.
type Options struct {
	// Model is the provider model name; empty means the client default.
	Model string
	// Temperature is the sampling temperature.
	Temperature float64
	// MaxTokens caps completion length; 0 means the client default.
	MaxTokens int
}

// Completer is the model capability: given a system prompt and a user
// prompt, return text or fail. Callers must tolerate failure and fall back
// to templates.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)
}

// Unavailable is a Completer that always fails. It stands in when no model
// is configured so every consumer exercises its fallback path.
type Unavailable struct{}

// Complete always returns ErrUnavailable.
func (Unavailable) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	return "", ErrUnavailable
}
