package search

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lexnav/lexnav/internal/embed"
	lexerrors "github.com/lexnav/lexnav/internal/errors"
	"github.com/lexnav/lexnav/internal/store"
)

// HybridSearcher runs lexical and vector search in parallel and merges
// the rankings with reciprocal rank fusion.
type HybridSearcher struct {
	lexical  store.LexicalIndex
	vector   store.VectorIndex
	embedder embed.Embedder
	meta     *store.MetadataStore
	opts     Options
}

// NewHybridSearcher wires the two indexes, the embedder, and the chunk
// metadata store into a fused searcher.
func NewHybridSearcher(lexical store.LexicalIndex, vector store.VectorIndex, embedder embed.Embedder, meta *store.MetadataStore, opts Options) *HybridSearcher {
	return &HybridSearcher{
		lexical:  lexical,
		vector:   vector,
		embedder: embedder,
		meta:     meta,
		opts:     opts.withDefaults(),
	}
}

// Search retrieves the top k chunks for query. Both sources are queried
// for 2k candidates so fusion has enough overlap to work with. A nil
// regulation filter searches both regulations.
func (h *HybridSearcher) Search(ctx context.Context, query string, k int, filter *store.Filter) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, lexerrors.New(lexerrors.ErrCodeQueryEmpty, "query must not be empty", nil)
	}
	if k <= 0 {
		k = h.opts.K
	}
	fetchK := 2 * k

	var (
		lexResults []*store.LexicalResult
		vecResults []*store.VectorResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lexResults, err = h.lexical.Search(gctx, query, fetchK)
		if err != nil {
			return fmt.Errorf("lexical search: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		queryVec, err := h.embedder.Embed(gctx, query)
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}
		vecResults, err = h.vector.Search(gctx, queryVec, fetchK, filter)
		if err != nil {
			return fmt.Errorf("vector search: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, lexerrors.New(lexerrors.ErrCodeSearchFailed, "hybrid search failed", err)
	}

	lexIDs := make([]string, len(lexResults))
	for i, r := range lexResults {
		lexIDs[i] = r.DocID
	}
	vecIDs := make([]string, len(vecResults))
	for i, r := range vecResults {
		vecIDs[i] = r.ID
	}

	fused := Fuse(lexIDs, vecIDs, h.opts.RRFConstant, k)
	if len(fused) == 0 {
		return []Result{}, nil
	}

	ids := make([]string, len(fused))
	for i, f := range fused {
		ids[i] = f.ID
	}
	chunks, err := h.meta.GetChunks(ctx, ids)
	if err != nil {
		return nil, lexerrors.New(lexerrors.ErrCodeSearchFailed, "failed to hydrate chunks", err)
	}
	chunkByID := make(map[string]int, len(chunks))
	for i, c := range chunks {
		chunkByID[c.ID] = i
	}

	results := make([]Result, 0, len(fused))
	for _, f := range fused {
		i, ok := chunkByID[f.ID]
		if !ok {
			continue
		}
		c := chunks[i]

		matchType := MatchLexical
		if f.VecRank > 0 {
			matchType = MatchVector
		}

		results = append(results, Result{
			Text:          c.Text,
			NodeID:        c.NodeID(),
			ChunkID:       c.ID,
			Regulation:    c.Regulation,
			ArticleNumber: c.ArticleNumber,
			Title:         c.Title,
			Score:         f.Score,
			MatchType:     matchType,
		})
	}

	return results, nil
}
