package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lexerrors "github.com/lexnav/lexnav/internal/errors"
	"github.com/lexnav/lexnav/internal/llm"
)

// RelevanceJudge gates citation-graph expansion: it asks the completion
// model whether a cited article is relevant to the query. The judge is
// treated as unreliable and latency-bound, so every call carries a
// timeout, failures count toward a circuit breaker, and any failure is
// read as "not relevant". Expansion can only shrink on a bad day,
// never fail the request.
type RelevanceJudge struct {
	completer llm.Completer
	breaker   *lexerrors.CircuitBreaker
	opts      Options
}

const judgmentPromptTemplate = `You are assessing whether a legal provision is relevant to a question.

Question: %s

Provision title: %s
Provision text: %s

Is this provision relevant to answering the question? Reply with exactly one word: YES or NO.`

// NewRelevanceJudge creates a judge around the given completer.
func NewRelevanceJudge(completer llm.Completer, opts Options) *RelevanceJudge {
	return &RelevanceJudge{
		completer: completer,
		breaker:   lexerrors.NewCircuitBreaker("relevance-judge"),
		opts:      opts.withDefaults(),
	}
}

// Judge reports whether the provision identified by (title, snippet) is
// relevant to query. It never returns an error: judgment failures of any
// kind, including an open circuit, yield false.
func (j *RelevanceJudge) Judge(ctx context.Context, query, title, snippet string) bool {
	if j.completer == nil {
		return false
	}

	snippet = truncateRunes(snippet, j.opts.SnippetLength)
	prompt := fmt.Sprintf(judgmentPromptTemplate, query, title, snippet)

	judgeCtx, cancel := context.WithTimeout(ctx, j.opts.JudgmentTimeout)
	defer cancel()

	relevant, err := lexerrors.ExecuteWithResult(j.breaker, func() (bool, error) {
		response, err := j.completer.Complete(judgeCtx, prompt)
		if err != nil {
			return false, err
		}
		return parseJudgment(response), nil
	}, func() (bool, error) {
		// circuit open: deny without calling the model
		return false, nil
	})
	if err != nil {
		slog.Warn("relevance_judgment_failed",
			slog.String("title", title),
			slog.String("error", err.Error()))
		return false
	}

	return relevant
}

// parseJudgment reads the model response. Anything other than an
// unambiguous YES is a NO.
func parseJudgment(response string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(response))
	return strings.HasPrefix(normalized, "YES")
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
