package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexnav/lexnav/internal/corpus"
	"github.com/lexnav/lexnav/internal/graph"
	"github.com/lexnav/lexnav/internal/store"
)

func buildTestGraph(t *testing.T, citations map[string][]string) *graph.Graph {
	t.Helper()
	g := graph.New()
	addNode := func(id string) {
		if !g.HasNode(id) {
			g.AddNode(graph.Node{
				ID:            id,
				Title:         "Article " + id,
				FullText:      "Full text of " + id,
				Regulation:    corpus.RegulationGDPR,
				ArticleNumber: id,
			})
		}
	}
	for src, targets := range citations {
		addNode(src)
		for _, dst := range targets {
			addNode(dst)
			g.AddEdge(src, dst)
		}
	}
	return g
}

func TestRetrieve_ParentCollapse(t *testing.T) {
	// Two chunks of GDPR_5 and one of GDPR_6; the duplicate parent must
	// collapse to the best-ranked child.
	chunks := []store.VectorResult{
		{ID: "GDPR_art5_p0", Score: 0.9},
		{ID: "GDPR_art5_p1", Score: 0.8},
		{ID: "GDPR_art6_p0", Score: 0.7},
	}
	vector := &fakeVectorIndex{results: []*store.VectorResult{&chunks[0], &chunks[1], &chunks[2]}}
	meta := newTestMetadataStore(t,
		testChunk("GDPR_art5_p0", corpus.RegulationGDPR, "5", "first paragraph", "parent five"),
		testChunk("GDPR_art5_p1", corpus.RegulationGDPR, "5", "second paragraph", "parent five"),
		testChunk("GDPR_art6_p0", corpus.RegulationGDPR, "6", "lawfulness", "parent six"),
	)

	r := NewParentChildRetriever(vector, newFakeEmbedder(), meta, nil, nil, DefaultOptions())
	results, err := r.Retrieve(context.Background(), "data processing principles", RetrieveOptions{K: 2})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "GDPR_5", results[0].NodeID)
	assert.Equal(t, "GDPR_art5_p0", results[0].ChunkID, "best-ranked child wins the parent slot")
	assert.Equal(t, "parent five", results[0].Text, "parent text is returned, not chunk text")
	assert.Equal(t, MatchVector, results[0].MatchType)
	assert.Equal(t, "GDPR_6", results[1].NodeID)
}

func TestRetrieve_NoDuplicateNodeIDs(t *testing.T) {
	vector := &fakeVectorIndex{results: []*store.VectorResult{
		{ID: "GDPR_art5_p0", Score: 0.9},
		{ID: "GDPR_art5_p1", Score: 0.8},
		{ID: "GDPR_art5_p2", Score: 0.7},
	}}
	meta := newTestMetadataStore(t,
		testChunk("GDPR_art5_p0", corpus.RegulationGDPR, "5", "a", "parent"),
		testChunk("GDPR_art5_p1", corpus.RegulationGDPR, "5", "b", "parent"),
		testChunk("GDPR_art5_p2", corpus.RegulationGDPR, "5", "c", "parent"),
	)

	r := NewParentChildRetriever(vector, newFakeEmbedder(), meta, nil, nil, DefaultOptions())
	results, err := r.Retrieve(context.Background(), "query", RetrieveOptions{K: 3})

	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, res := range results {
		assert.False(t, seen[res.NodeID], "duplicate node id %s", res.NodeID)
		seen[res.NodeID] = true
	}
	assert.Len(t, results, 1)
}

func TestRetrieve_OverFetchesTwiceK(t *testing.T) {
	vector := &fakeVectorIndex{}
	meta := newTestMetadataStore(t)

	r := NewParentChildRetriever(vector, newFakeEmbedder(), meta, nil, nil, DefaultOptions())
	_, err := r.Retrieve(context.Background(), "query", RetrieveOptions{K: 5})

	require.NoError(t, err)
	assert.Equal(t, 10, vector.lastK)
}

func TestRetrieve_RegulationFilter(t *testing.T) {
	vector := &fakeVectorIndex{}
	meta := newTestMetadataStore(t)

	r := NewParentChildRetriever(vector, newFakeEmbedder(), meta, nil, nil, DefaultOptions())
	_, err := r.Retrieve(context.Background(), "query", RetrieveOptions{K: 1, Regulation: corpus.RegulationAIAct})

	require.NoError(t, err)
	require.NotNil(t, vector.lastFilter)
	assert.Equal(t, "regulation", vector.lastFilter.Field)
	assert.Equal(t, corpus.RegulationAIAct, vector.lastFilter.Value)
}

func TestRetrieve_GraphExpansionAccepted(t *testing.T) {
	vector := &fakeVectorIndex{results: []*store.VectorResult{
		{ID: "GDPR_art5_p0", Score: 0.9},
	}}
	meta := newTestMetadataStore(t,
		testChunk("GDPR_art5_p0", corpus.RegulationGDPR, "5", "principles", "parent five"),
	)
	g := buildTestGraph(t, map[string][]string{"GDPR_5": {"GDPR_6"}})
	judge := &fakeJudge{verdicts: map[string]bool{"Article GDPR_6": true}}

	r := NewParentChildRetriever(vector, newFakeEmbedder(), meta, g, judge, DefaultOptions())
	results, err := r.Retrieve(context.Background(), "query", RetrieveOptions{K: 1})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "GDPR_6", results[1].NodeID)
	assert.Equal(t, MatchGraph, results[1].MatchType)
	assert.Equal(t, float64(0), results[1].Score, "graph results carry no similarity score")
}

func TestRetrieve_JudgeRejectionFailClosed(t *testing.T) {
	vector := &fakeVectorIndex{results: []*store.VectorResult{
		{ID: "GDPR_art5_p0", Score: 0.9},
	}}
	meta := newTestMetadataStore(t,
		testChunk("GDPR_art5_p0", corpus.RegulationGDPR, "5", "principles", "parent five"),
	)
	g := buildTestGraph(t, map[string][]string{"GDPR_5": {"GDPR_6"}})
	judge := &fakeJudge{fallback: false}

	r := NewParentChildRetriever(vector, newFakeEmbedder(), meta, g, judge, DefaultOptions())
	results, err := r.Retrieve(context.Background(), "query", RetrieveOptions{K: 1})

	require.NoError(t, err, "a rejected judgment never fails the request")
	require.Len(t, results, 1)
	assert.Equal(t, "GDPR_5", results[0].NodeID)
}

func TestRetrieve_ExpansionCap(t *testing.T) {
	vector := &fakeVectorIndex{results: []*store.VectorResult{
		{ID: "GDPR_art5_p0", Score: 0.9},
	}}
	meta := newTestMetadataStore(t,
		testChunk("GDPR_art5_p0", corpus.RegulationGDPR, "5", "principles", "parent five"),
	)
	g := buildTestGraph(t, map[string][]string{
		"GDPR_5": {"GDPR_6", "GDPR_7", "GDPR_8", "GDPR_9", "GDPR_10"},
	})
	judge := &fakeJudge{fallback: true}

	opts := DefaultOptions()
	opts.MaxExpansion = 3
	r := NewParentChildRetriever(vector, newFakeEmbedder(), meta, g, judge, opts)
	results, err := r.Retrieve(context.Background(), "query", RetrieveOptions{K: 1})

	require.NoError(t, err)
	graphCount := 0
	for _, res := range results {
		if res.MatchType == MatchGraph {
			graphCount++
		}
	}
	assert.Equal(t, 3, graphCount)
	assert.LessOrEqual(t, judge.callCount(), 3, "judgment calls bounded by the cap")
}

func TestRetrieve_NoGraphDegradesToVectorOnly(t *testing.T) {
	vector := &fakeVectorIndex{results: []*store.VectorResult{
		{ID: "GDPR_art5_p0", Score: 0.9},
	}}
	meta := newTestMetadataStore(t,
		testChunk("GDPR_art5_p0", corpus.RegulationGDPR, "5", "principles", "parent five"),
	)

	r := NewParentChildRetriever(vector, newFakeEmbedder(), meta, nil, &fakeJudge{fallback: true}, DefaultOptions())
	results, err := r.Retrieve(context.Background(), "query", RetrieveOptions{K: 1})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, MatchVector, results[0].MatchType)
}

func TestRetrieve_EmptyCorpus(t *testing.T) {
	vector := &fakeVectorIndex{}
	meta := newTestMetadataStore(t)

	r := NewParentChildRetriever(vector, newFakeEmbedder(), meta, nil, nil, DefaultOptions())
	results, err := r.Retrieve(context.Background(), "anything", RetrieveOptions{K: 5})

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	r := NewParentChildRetriever(&fakeVectorIndex{}, newFakeEmbedder(), newTestMetadataStore(t), nil, nil, DefaultOptions())
	_, err := r.Retrieve(context.Background(), "   ", RetrieveOptions{K: 5})
	assert.Error(t, err)
}

func TestRetrieve_EmbedFailureAborts(t *testing.T) {
	embedder := newFakeEmbedder()
	embedder.err = assert.AnError

	r := NewParentChildRetriever(&fakeVectorIndex{}, embedder, newTestMetadataStore(t), nil, nil, DefaultOptions())
	_, err := r.Retrieve(context.Background(), "query", RetrieveOptions{K: 5})
	assert.Error(t, err)
}

func TestRetrieve_HyDEEmbedTextUsedForEmbedding(t *testing.T) {
	vector := &fakeVectorIndex{}
	meta := newTestMetadataStore(t)

	r := NewParentChildRetriever(vector, newFakeEmbedder(), meta, nil, nil, DefaultOptions())
	_, err := r.Retrieve(context.Background(), "real question", RetrieveOptions{
		K:         1,
		EmbedText: "hypothetical regulation paragraph",
	})
	require.NoError(t, err)
}
