package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexnav/lexnav/internal/llm"
)

// HyDE (hypothetical document embedding) rewrites a question as the
// regulation paragraph that would answer it, and embeds that instead of
// the question. Regulation prose is much closer in embedding space to
// other regulation prose than a user question is.
type HyDE struct {
	completer llm.Completer
}

const hydePromptTemplate = `Write a short hypothetical paragraph, in the style of an EU regulation article, that would answer this question. Write only the paragraph, no commentary.

Question: %s`

// NewHyDE creates a hypothetical-document generator around the completer.
func NewHyDE(completer llm.Completer) *HyDE {
	return &HyDE{completer: completer}
}

// Expand returns the text to embed for query: the generated hypothetical
// paragraph, or the raw query when generation fails.
func (h *HyDE) Expand(ctx context.Context, query string) string {
	if h.completer == nil {
		return query
	}

	doc, err := h.completer.Complete(ctx, fmt.Sprintf(hydePromptTemplate, query))
	if err != nil || doc == "" {
		slog.Warn("hyde_generation_failed",
			slog.String("fallback", "raw query"))
		return query
	}
	return doc
}
