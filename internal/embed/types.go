// Package embed provides text embedding via the Gemini API, with an
// LRU cache layered on top for repeated queries.
package embed

import "context"

// Embedder generates dense vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one request.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Close releases resources.
	Close() error
}

// Config configures the Gemini embedder.
type Config struct {
	// Model is the embedding model name (default: text-embedding-004).
	Model string

	// Dimensions is the output dimension (768 for text-embedding-004).
	Dimensions int

	// BatchSize is the maximum number of texts per batch request
	// (default: 100, the API limit).
	BatchSize int
}

// DefaultConfig returns the default embedding configuration.
func DefaultConfig() Config {
	return Config{
		Model:      "text-embedding-004",
		Dimensions: 768,
		BatchSize:  100,
	}
}
