package interfaces

import (
	"context"
)

// LLMService defines the interface for language model completions.
// Implementations wrap a specific provider (Anthropic, Gemini) behind
// a single text-in text-out call used by the outline generator.
type LLMService interface {
	// Complete generates a completion for the given prompt.
	// The system prompt sets the model's role; prompt carries the task.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - system: System prompt establishing the model's role
	//   - prompt: User prompt with the task and source context
	//
	// Returns:
	//   - string: Generated text response
	//   - error: Error if the completion fails
	Complete(ctx context.Context, system, prompt string) (string, error)

	// GetModelName returns the model identifier used for completions
	GetModelName() string
}
