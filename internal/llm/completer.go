// Package llm provides text completion via the Gemini API. The retrieval
// pipeline uses completions for relevance judgments, query classification,
// hypothetical document generation, and answer synthesis.
package llm

import "context"

// Completer generates a text completion for a prompt.
type Completer interface {
	// Complete returns the model's text response to prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// ModelName returns the model identifier.
	ModelName() string

	// Close releases resources.
	Close() error
}

// Config configures the Gemini completer.
type Config struct {
	// Model is the generation model name (default: gemini-1.5-flash).
	Model string

	// Temperature controls sampling randomness. Judgment and
	// classification prompts want 0 for determinism.
	Temperature float32

	// MaxOutputTokens caps the response length (0 means model default).
	MaxOutputTokens int32
}

// DefaultConfig returns the default completion configuration.
func DefaultConfig() Config {
	return Config{
		Model:       "gemini-1.5-flash",
		Temperature: 0,
	}
}
