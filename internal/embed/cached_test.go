package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder tracks how many texts reach the real embedder.
type countingEmbedder struct {
	singleCalls int
	batchTexts  int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.singleCalls++
	return []float32{float32(len(text)), 1, 2}, nil
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchTexts += len(texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 2}
	}
	return out, nil
}

func (c *countingEmbedder) Dimensions() int   { return 3 }
func (c *countingEmbedder) ModelName() string { return "counting" }
func (c *countingEmbedder) Close() error      { return nil }

func TestCachedEmbedder_HitSkipsInner(t *testing.T) {
	inner := &countingEmbedder{}
	cached, err := NewCachedEmbedder(inner, 8)
	require.NoError(t, err)

	ctx := context.Background()
	v1, err := cached.Embed(ctx, "data protection")
	require.NoError(t, err)
	v2, err := cached.Embed(ctx, "data protection")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, inner.singleCalls)
	assert.Equal(t, 1, cached.Len())
}

func TestCachedEmbedder_BatchOnlySendsMisses(t *testing.T) {
	inner := &countingEmbedder{}
	cached, err := NewCachedEmbedder(inner, 8)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = cached.Embed(ctx, "already cached")
	require.NoError(t, err)

	out, err := cached.EmbedBatch(ctx, []string{"already cached", "new one", "another new"})
	require.NoError(t, err)

	require.Len(t, out, 3)
	for _, v := range out {
		assert.Len(t, v, 3)
	}
	assert.Equal(t, 2, inner.batchTexts, "cached text must not be re-embedded")
}

func TestCachedEmbedder_Eviction(t *testing.T) {
	inner := &countingEmbedder{}
	cached, err := NewCachedEmbedder(inner, 2)
	require.NoError(t, err)

	ctx := context.Background()
	for _, text := range []string{"a", "b", "c"} {
		_, err := cached.Embed(ctx, text)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, cached.Len())
}

func TestCachedEmbedder_EmptyBatch(t *testing.T) {
	cached, err := NewCachedEmbedder(&countingEmbedder{}, 8)
	require.NoError(t, err)

	out, err := cached.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestCachedEmbedder_DelegatesMetadata(t *testing.T) {
	cached, err := NewCachedEmbedder(&countingEmbedder{}, 8)
	require.NoError(t, err)

	assert.Equal(t, 3, cached.Dimensions())
	assert.Equal(t, "counting", cached.ModelName())
}
