package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRerank_EmptyInput(t *testing.T) {
	r := NewReranker(&fakeCompleter{respond: func(string) (string, error) { return "5", nil }})
	assert.Empty(t, r.Rerank(context.Background(), "q", nil, 5))
}

func TestRerank_ReordersByScore(t *testing.T) {
	// Score by which text the prompt contains.
	r := NewReranker(&fakeCompleter{respond: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "low relevance"):
			return "2", nil
		case strings.Contains(prompt, "high relevance"):
			return "9", nil
		default:
			return "5", nil
		}
	}})

	in := []Result{
		{NodeID: "GDPR_1", Text: "low relevance text"},
		{NodeID: "GDPR_2", Text: "high relevance text"},
		{NodeID: "GDPR_3", Text: "middling text"},
	}
	out := r.Rerank(context.Background(), "q", in, 3)

	require.Len(t, out, 3)
	assert.Equal(t, "GDPR_2", out[0].NodeID)
	assert.Equal(t, 9.0, out[0].RerankScore)
	assert.Equal(t, "GDPR_3", out[1].NodeID)
	assert.Equal(t, "GDPR_1", out[2].NodeID)
}

func TestRerank_TruncatesToTopK(t *testing.T) {
	r := NewReranker(&fakeCompleter{respond: func(string) (string, error) { return "5", nil }})
	in := []Result{{NodeID: "a"}, {NodeID: "b"}, {NodeID: "c"}}

	assert.Len(t, r.Rerank(context.Background(), "q", in, 2), 2)
}

func TestRerank_UnparseableScoreSinks(t *testing.T) {
	r := NewReranker(&fakeCompleter{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "good text") {
			return "8", nil
		}
		return "not a number", nil
	}})

	in := []Result{
		{NodeID: "bad", Text: "mystery text"},
		{NodeID: "good", Text: "good text"},
	}
	out := r.Rerank(context.Background(), "q", in, 2)

	require.Len(t, out, 2)
	assert.Equal(t, "good", out[0].NodeID)
	assert.Equal(t, 0.0, out[1].RerankScore)
}

func TestRerank_ScoringErrorDoesNotFailPass(t *testing.T) {
	r := NewReranker(&fakeCompleter{respond: func(string) (string, error) {
		return "", errors.New("model unavailable")
	}})
	in := []Result{{NodeID: "a"}, {NodeID: "b"}}

	out := r.Rerank(context.Background(), "q", in, 2)
	assert.Len(t, out, 2)
}

func TestRerank_NilCompleterPassthrough(t *testing.T) {
	r := NewReranker(nil)
	in := []Result{{NodeID: "a"}, {NodeID: "b"}, {NodeID: "c"}}

	out := r.Rerank(context.Background(), "q", in, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].NodeID)
}

func TestRerank_ScoreClamped(t *testing.T) {
	r := NewReranker(&fakeCompleter{respond: func(string) (string, error) { return "42", nil }})
	out := r.Rerank(context.Background(), "q", []Result{{NodeID: "a"}}, 1)

	require.Len(t, out, 1)
	assert.Equal(t, 10.0, out[0].RerankScore)
}
