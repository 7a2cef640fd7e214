package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEmbedder wraps an Embedder with an in-memory LRU cache keyed by
// a hash of model name and text. Query embedding is on the hot path, and
// repeated queries (HyDE retries, reranking passes) hit the same texts.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// DefaultCacheSize is the default number of cached embeddings.
const DefaultCacheSize = 1024

// NewCachedEmbedder wraps inner with an LRU cache of the given size.
func NewCachedEmbedder(inner Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(c.inner.ModelName() + "\x00" + text))
	return hex.EncodeToString(h[:])
}

// Embed returns a cached embedding when available.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}

	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, v)
	return v, nil
}

// EmbedBatch serves cached texts from memory and only sends misses to
// the inner embedder.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, t := range texts {
		if v, ok := c.cache.Get(c.cacheKey(t)); ok {
			out[i] = v
		} else {
			missTexts = append(missTexts, t)
			missIdx = append(missIdx, i)
		}
	}

	if len(missTexts) > 0 {
		embeddings, err := c.inner.EmbedBatch(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, v := range embeddings {
			out[missIdx[j]] = v
			c.cache.Add(c.cacheKey(missTexts[j]), v)
		}
	}

	return out, nil
}

// Dimensions returns the inner embedder's dimension.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// ModelName returns the inner embedder's model identifier.
func (c *CachedEmbedder) ModelName() string {
	return c.inner.ModelName()
}

// Len returns the number of cached entries.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

// Close closes the inner embedder.
func (c *CachedEmbedder) Close() error {
	return c.inner.Close()
}

var _ Embedder = (*CachedEmbedder)(nil)
