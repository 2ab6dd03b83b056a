package ai

import "context"

// Provider is the boundary to an external generation engine. Implementations
// issue one request and return the raw text blob; they report failures as
// errors, never panics, so the orchestrator can fall back.
type Provider interface {
	// Generate sends the prompt, with an optional image attachment, and
	// returns the raw model response text.
	Generate(ctx context.Context, prompt string, image []byte) (string, error)
}
