package search

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lexnav/lexnav/internal/embed"
	lexerrors "github.com/lexnav/lexnav/internal/errors"
	"github.com/lexnav/lexnav/internal/graph"
	"github.com/lexnav/lexnav/internal/store"
)

// Judger decides whether a cited article is relevant to a query.
type Judger interface {
	Judge(ctx context.Context, query, title, snippet string) bool
}

// ParentChildRetriever is the central query-time algorithm: vector
// search over child chunks, collapse to distinct parent articles,
// then citation-graph expansion gated by the relevance judge. Children
// are matched, parents are returned.
type ParentChildRetriever struct {
	vector   store.VectorIndex
	embedder embed.Embedder
	meta     *store.MetadataStore
	graph    *graph.Graph // nil degrades to vector-only
	judge    Judger
	opts     Options
}

// RetrieveOptions are per-call overrides.
type RetrieveOptions struct {
	// K is the number of parents to return (0 uses the configured default).
	K int

	// Regulation restricts the vector search to one regulation.
	// Empty searches both.
	Regulation string

	// EmbedText, when set, is embedded in place of the query (HyDE).
	// The raw query is still what the relevance judge sees.
	EmbedText string
}

// NewParentChildRetriever wires the retriever. graph and judge may be
// nil; expansion is skipped without them.
func NewParentChildRetriever(vector store.VectorIndex, embedder embed.Embedder, meta *store.MetadataStore, g *graph.Graph, judge Judger, opts Options) *ParentChildRetriever {
	return &ParentChildRetriever{
		vector:   vector,
		embedder: embedder,
		meta:     meta,
		graph:    g,
		judge:    judge,
		opts:     opts.withDefaults(),
	}
}

// Retrieve returns up to K distinct parent articles for query, best
// first, possibly followed by graph-expanded neighbors. No two entries
// in the returned slice share a node id.
func (r *ParentChildRetriever) Retrieve(ctx context.Context, query string, ropts RetrieveOptions) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, lexerrors.New(lexerrors.ErrCodeQueryEmpty, "query must not be empty", nil)
	}
	k := ropts.K
	if k <= 0 {
		k = r.opts.K
	}

	embedText := ropts.EmbedText
	if embedText == "" {
		embedText = query
	}
	queryVec, err := r.embedder.Embed(ctx, embedText)
	if err != nil {
		// retrieval cannot proceed without a query embedding
		return nil, lexerrors.New(lexerrors.ErrCodeSearchFailed, "failed to embed query", err)
	}

	var filter *store.Filter
	if ropts.Regulation != "" {
		filter = &store.Filter{Field: "regulation", Value: ropts.Regulation}
	}

	// Over-fetch 2k children so parent collapsing still yields k parents.
	candidates, err := r.vector.Search(ctx, queryVec, 2*k, filter)
	if err != nil {
		return nil, lexerrors.New(lexerrors.ErrCodeSearchFailed, "vector search failed", err)
	}
	if len(candidates) == 0 {
		return []Result{}, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	chunks, err := r.meta.GetChunks(ctx, ids)
	if err != nil {
		return nil, lexerrors.New(lexerrors.ErrCodeSearchFailed, "failed to hydrate chunks", err)
	}
	chunkByID := make(map[string]int, len(chunks))
	for i, c := range chunks {
		chunkByID[c.ID] = i
	}

	// Collapse children to their parents, keeping the best-ranked child
	// per parent.
	seen := make(map[string]struct{}, k)
	results := make([]Result, 0, k)
	for _, candidate := range candidates {
		i, ok := chunkByID[candidate.ID]
		if !ok {
			continue
		}
		c := chunks[i]
		nodeID := c.NodeID()
		if _, dup := seen[nodeID]; dup {
			continue
		}
		seen[nodeID] = struct{}{}

		results = append(results, Result{
			Text:          c.ParentText,
			NodeID:        nodeID,
			ChunkID:       c.ID,
			Regulation:    c.Regulation,
			ArticleNumber: c.ArticleNumber,
			Title:         c.Title,
			Score:         float64(candidate.Score),
			MatchType:     MatchVector,
		})
		if len(results) == k {
			break
		}
	}

	return r.expand(ctx, query, results, seen), nil
}

// expand appends citation neighbors of the retrieved parents that the
// relevance judge accepts, capped at MaxExpansion additions. Graph
// results carry score 0: there is no similarity score comparable to the
// vector-sourced ones.
func (r *ParentChildRetriever) expand(ctx context.Context, query string, results []Result, seen map[string]struct{}) []Result {
	if r.graph == nil {
		slog.Warn("citation_graph_missing",
			slog.String("effect", "vector-only retrieval"))
		return results
	}
	if r.judge == nil || len(results) == 0 {
		return results
	}

	// Candidate neighbors in deterministic order: parents best-first,
	// each parent's citations in insertion order.
	var candidateIDs []string
	candidateSet := make(map[string]struct{})
	for _, res := range results {
		for _, neighborID := range r.graph.Successors(res.NodeID) {
			if _, dup := seen[neighborID]; dup {
				continue
			}
			if _, dup := candidateSet[neighborID]; dup {
				continue
			}
			candidateSet[neighborID] = struct{}{}
			candidateIDs = append(candidateIDs, neighborID)
		}
	}

	accepted := 0
	for i := 0; i < len(candidateIDs) && accepted < r.opts.MaxExpansion; {
		// Judge one window concurrently, never more calls in flight than
		// additions still allowed.
		end := i + (r.opts.MaxExpansion - accepted)
		if end > len(candidateIDs) {
			end = len(candidateIDs)
		}
		window := candidateIDs[i:end]
		verdicts := make([]bool, len(window))

		var g errgroup.Group
		for j, neighborID := range window {
			node, ok := r.graph.Node(neighborID)
			if !ok {
				continue
			}
			g.Go(func() error {
				verdicts[j] = r.judge.Judge(ctx, query, node.Title, node.FullText)
				return nil
			})
		}
		_ = g.Wait()

		for j, neighborID := range window {
			if accepted == r.opts.MaxExpansion {
				break
			}
			if !verdicts[j] {
				continue
			}
			node, ok := r.graph.Node(neighborID)
			if !ok {
				continue
			}
			seen[neighborID] = struct{}{}
			results = append(results, Result{
				Text:          node.FullText,
				NodeID:        neighborID,
				Regulation:    node.Regulation,
				ArticleNumber: node.ArticleNumber,
				Title:         node.Title,
				Score:         0,
				MatchType:     MatchGraph,
			})
			accepted++

			slog.Debug("graph_expansion_accepted",
				slog.String("node_id", neighborID))
		}

		i = end
	}

	return results
}
