// Package search implements the query-time retrieval pipeline: hybrid
// lexical+vector search with reciprocal rank fusion, parent-child
// retrieval with citation-graph expansion gated by a relevance judge,
// and optional LLM-based classification, query expansion, and reranking.
package search

import "time"

// MatchType records which retrieval stage produced a result.
type MatchType string

const (
	MatchVector  MatchType = "vector"
	MatchLexical MatchType = "lexical"
	MatchGraph   MatchType = "graph"
)

// Result is one retrieved context entry, ordered best-first in the
// returned slice. NodeID is the deduplication key within a single
// retrieval call.
type Result struct {
	// Text is the full denormalized parent article text.
	Text string `json:"text"`

	// NodeID is the composite article key (regulation + "_" + number).
	NodeID string `json:"node_id"`

	// ChunkID is the best-matching child chunk, empty for graph results.
	ChunkID string `json:"chunk_id,omitempty"`

	Regulation    string `json:"regulation"`
	ArticleNumber string `json:"article_number"`
	Title         string `json:"title,omitempty"`

	// Score is the similarity or fused score. Graph-expanded results
	// carry 0: no comparable similarity score exists for them.
	Score float64 `json:"score"`

	MatchType MatchType `json:"match_type"`

	// RerankScore is set only after an explicit rerank pass.
	RerankScore float64 `json:"rerank_score,omitempty"`
}

// Options holds query-time tunables shared by the retrievers.
type Options struct {
	// K is the number of results to return (default: 5).
	K int

	// RRFConstant is the K constant in reciprocal rank fusion
	// (default: 60).
	RRFConstant int

	// MaxExpansion caps graph-expanded additions per query (default: 3).
	MaxExpansion int

	// SnippetLength bounds the neighbor text passed to the relevance
	// judge (default: 500 runes).
	SnippetLength int

	// JudgmentTimeout bounds each relevance-judgment call
	// (default: 10s).
	JudgmentTimeout time.Duration
}

// DefaultOptions returns the default query-time options.
func DefaultOptions() Options {
	return Options{
		K:               5,
		RRFConstant:     60,
		MaxExpansion:    3,
		SnippetLength:   500,
		JudgmentTimeout: 10 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.K <= 0 {
		o.K = d.K
	}
	if o.RRFConstant <= 0 {
		o.RRFConstant = d.RRFConstant
	}
	if o.MaxExpansion <= 0 {
		o.MaxExpansion = d.MaxExpansion
	}
	if o.SnippetLength <= 0 {
		o.SnippetLength = d.SnippetLength
	}
	if o.JudgmentTimeout <= 0 {
		o.JudgmentTimeout = d.JudgmentTimeout
	}
	return o
}
