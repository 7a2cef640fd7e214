package search

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexnav/lexnav/internal/chunk"
	"github.com/lexnav/lexnav/internal/store"
)

// fakeCompleter scripts completion responses per prompt.
type fakeCompleter struct {
	mu       sync.Mutex
	respond  func(prompt string) (string, error)
	calls    int
	closeErr error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.respond(prompt)
}

func (f *fakeCompleter) ModelName() string { return "fake-model" }
func (f *fakeCompleter) Close() error      { return f.closeErr }

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeEmbedder returns a fixed vector for any text.
type fakeEmbedder struct {
	vec []float32
	err error
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vec: []float32{1, 0, 0, 0}}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := f.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int    { return len(f.vec) }
func (f *fakeEmbedder) ModelName() string  { return "fake-embedder" }
func (f *fakeEmbedder) Close() error       { return nil }

// fakeVectorIndex replays a scripted candidate list.
type fakeVectorIndex struct {
	results    []*store.VectorResult
	lastK      int
	lastFilter *store.Filter
}

func (f *fakeVectorIndex) Search(ctx context.Context, query []float32, k int, filter *store.Filter) ([]*store.VectorResult, error) {
	f.lastK = k
	f.lastFilter = filter
	if len(f.results) > k {
		return f.results[:k], nil
	}
	return f.results, nil
}

func (f *fakeVectorIndex) Add(ctx context.Context, ids []string, vectors [][]float32, metas []map[string]string) error {
	return nil
}
func (f *fakeVectorIndex) Count() int               { return len(f.results) }
func (f *fakeVectorIndex) Contains(id string) bool  { return false }
func (f *fakeVectorIndex) Save(path string) error   { return nil }
func (f *fakeVectorIndex) Load(path string) error   { return nil }
func (f *fakeVectorIndex) Close() error             { return nil }

// fakeJudge scripts relevance verdicts by node title.
type fakeJudge struct {
	mu       sync.Mutex
	verdicts map[string]bool
	fallback bool
	calls    int
}

func (f *fakeJudge) Judge(ctx context.Context, query, title, snippet string) bool {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if v, ok := f.verdicts[title]; ok {
		return v
	}
	return f.fallback
}

func (f *fakeJudge) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// newTestMetadataStore returns an in-memory metadata store seeded with
// the given chunks.
func newTestMetadataStore(t *testing.T, chunks ...chunk.Chunk) *store.MetadataStore {
	t.Helper()
	meta, err := store.NewMetadataStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = meta.Close() })
	require.NoError(t, meta.SaveChunks(context.Background(), chunks))
	return meta
}

func testChunk(id, regulation, articleNumber, text, parentText string) chunk.Chunk {
	return chunk.Chunk{
		ID:              id,
		ParentArticleID: regulation + "_art" + articleNumber,
		Text:            text,
		LegalForce:      chunk.ForceExplanatory,
		ParentText:      parentText,
		ArticleNumber:   articleNumber,
		Regulation:      regulation,
		Title:           "Article " + articleNumber,
	}
}
