package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lexnav/lexnav/internal/corpus"
	"github.com/lexnav/lexnav/internal/llm"
)

// Classifier routes a query to one regulation, or to both when the
// question spans them or classification fails. The result feeds the
// vector search regulation filter; routing to both means no filter.
type Classifier struct {
	completer llm.Completer
}

const classifierPromptTemplate = `Classify which regulation this legal question is about.

Question: %s

Answer with exactly one of: GDPR, EU_AI_ACT, BOTH.
- GDPR: data protection, consent, data subjects, controllers, processors
- EU_AI_ACT: AI systems, high-risk AI, foundation models, AI providers
- BOTH: the question spans both regulations or is ambiguous`

// NewClassifier creates a query classifier around the completer.
func NewClassifier(completer llm.Completer) *Classifier {
	return &Classifier{completer: completer}
}

// Classify returns the regulation to filter on, or "" for both.
// Classification is best-effort: any failure falls back to searching
// both regulations rather than guessing wrong on one.
func (c *Classifier) Classify(ctx context.Context, query string) string {
	if c.completer == nil {
		return ""
	}

	response, err := c.completer.Complete(ctx, fmt.Sprintf(classifierPromptTemplate, query))
	if err != nil {
		slog.Warn("query_classification_failed",
			slog.String("error", err.Error()),
			slog.String("fallback", "both regulations"))
		return ""
	}

	normalized := strings.ToUpper(strings.TrimSpace(response))
	switch {
	case strings.Contains(normalized, "EU_AI_ACT"):
		return corpus.RegulationAIAct
	case strings.Contains(normalized, "GDPR"):
		return corpus.RegulationGDPR
	default:
		return ""
	}
}
