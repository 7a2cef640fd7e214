// Package store provides the index adapters for retrieval: a Bleve BM25
// lexical index, an HNSW vector index, and a SQLite chunk metadata store.
// All three are built offline during ingestion and opened read-only on
// the serving path; a rebuild produces a new generation that is swapped
// in whole, never mutated in place.
package store

import (
	"context"
	"fmt"
)

// Document is a unit of text indexed for lexical search.
type Document struct {
	ID      string // chunk id
	Content string
}

// LexicalResult is a single BM25 search result, rank implied by slice
// position (best first).
type LexicalResult struct {
	DocID        string
	Score        float64
	MatchedTerms []string
}

// LexicalIndex provides keyword search with BM25 semantics: term
// saturation and document-length normalization.
type LexicalIndex interface {
	// Index adds documents to the index.
	Index(ctx context.Context, docs []*Document) error

	// Search returns documents matching query, best first.
	Search(ctx context.Context, query string, limit int) ([]*LexicalResult, error)

	// DocCount returns the number of indexed documents.
	DocCount() (int, error)

	// Close releases resources.
	Close() error
}

// VectorResult is a single nearest-neighbor search result.
type VectorResult struct {
	ID       string  // chunk id
	Distance float32 // cosine distance, lower is more similar
	Score    float32 // normalized similarity (0-1)
}

// Filter restricts a vector search to entries whose metadata field
// equals the given value.
type Filter struct {
	Field string
	Value string
}

// VectorIndex provides semantic nearest-neighbor search over chunk
// embeddings with an optional metadata equality filter.
type VectorIndex interface {
	// Add inserts vectors with their ids and metadata. An existing id is
	// replaced.
	Add(ctx context.Context, ids []string, vectors [][]float32, metas []map[string]string) error

	// Search finds the k nearest neighbors of the query vector. A nil
	// filter searches the whole index.
	Search(ctx context.Context, query []float32, k int, filter *Filter) ([]*VectorResult, error)

	// Count returns the number of vectors.
	Count() int

	// Contains checks if an id exists.
	Contains(id string) bool

	// Persistence.
	Save(path string) error
	Load(path string) error
	Close() error
}

// BM25Config configures the lexical index.
type BM25Config struct {
	// K1 is the term frequency saturation parameter (default: 1.2).
	K1 float64

	// B is the length normalization parameter (default: 0.75).
	B float64

	// StopWords is a list of words filtered out during tokenization.
	StopWords []string
}

// DefaultBM25Config returns the default lexical configuration.
func DefaultBM25Config() BM25Config {
	return BM25Config{
		K1:        1.2,
		B:         0.75,
		StopWords: DefaultLegalStopWords,
	}
}

// DefaultLegalStopWords contains high-frequency function words and
// boilerplate terms that carry no ranking signal in regulation text.
var DefaultLegalStopWords = []string{
	"the", "of", "and", "to", "in", "a", "an", "or", "for", "on", "by",
	"with", "as", "at", "be", "is", "are", "this", "that", "such",
	"pursuant", "thereof", "paragraph", "point",
}

// BuildStopWordMap converts a stop word list to a lookup set.
func BuildStopWordMap(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// VectorConfig configures the vector index.
type VectorConfig struct {
	// Dimensions is the embedding dimension (768 for text-embedding-004).
	Dimensions int

	// M is HNSW max connections per layer (default: 16).
	M int

	// EfSearch is HNSW query-time search width (default: 20).
	EfSearch int
}

// DefaultVectorConfig returns sensible defaults for the vector index.
func DefaultVectorConfig(dimensions int) VectorConfig {
	return VectorConfig{
		Dimensions: dimensions,
		M:          16,
		EfSearch:   20,
	}
}

// ErrDimensionMismatch indicates a query or document vector whose length
// differs from the index dimension.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
