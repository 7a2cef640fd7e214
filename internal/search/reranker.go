package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lexnav/lexnav/internal/llm"
)

// Reranker reorders a candidate set by pairwise relevance scores from
// the completion model. Stateless per call.
type Reranker struct {
	completer llm.Completer

	// concurrency bounds in-flight scoring calls.
	concurrency int
}

const rerankPromptTemplate = `Rate how relevant this legal text is to the question on a scale of 0 to 10. Reply with only the number.

Question: %s

Text: %s`

// NewReranker creates a reranker around the completer.
func NewReranker(completer llm.Completer) *Reranker {
	return &Reranker{completer: completer, concurrency: 4}
}

// Rerank scores every result against query, sorts descending by that
// score, and truncates to topK. A result whose scoring call fails keeps
// score 0 and sinks rather than failing the pass. Empty input returns
// empty output.
func (r *Reranker) Rerank(ctx context.Context, query string, results []Result, topK int) []Result {
	if len(results) == 0 {
		return []Result{}
	}
	if topK <= 0 || topK > len(results) {
		topK = len(results)
	}
	if r.completer == nil {
		return results[:topK]
	}

	reranked := make([]Result, len(results))
	copy(reranked, results)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range reranked {
		g.Go(func() error {
			score, err := r.scoreOne(gctx, query, reranked[i].Text)
			if err != nil {
				slog.Warn("rerank_scoring_failed",
					slog.String("node_id", reranked[i].NodeID),
					slog.String("error", err.Error()))
				return nil
			}
			reranked[i].RerankScore = score
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].RerankScore > reranked[j].RerankScore
	})

	return reranked[:topK]
}

func (r *Reranker) scoreOne(ctx context.Context, query, text string) (float64, error) {
	response, err := r.completer.Complete(ctx, fmt.Sprintf(rerankPromptTemplate, query, text))
	if err != nil {
		return 0, err
	}

	// The model sometimes pads the number; take the first token.
	fields := strings.Fields(response)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty scoring response")
	}
	score, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "."), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable score %q: %w", fields[0], err)
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, nil
}
