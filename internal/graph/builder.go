package graph

import (
	"log/slog"
	"regexp"

	"github.com/lexnav/lexnav/internal/corpus"
)

// citationPattern matches bare "Article N" references. Sub-paragraph
// references ("Article 5(1)") resolve to the whole article node, so only
// the number is captured here.
var citationPattern = regexp.MustCompile(`(?i)Article\s+(\d+)`)

// Build constructs the citation graph for a corpus. Citations resolve
// only within the citing article's own regulation; unresolvable
// references (cross-regulation, non-existent numbers) are dropped
// silently.
func Build(articles []corpus.Article) *Graph {
	g := New()

	// number -> node id, per regulation. Composite keys prevent false
	// identity between "Article 5" of different regulations.
	byRegulation := make(map[string]map[string]string)

	for _, art := range articles {
		nodeID := art.NodeID()
		g.AddNode(Node{
			ID:            nodeID,
			Title:         art.Title,
			FullText:      art.FullText,
			Regulation:    art.Regulation,
			ArticleNumber: art.ArticleNumber,
		})

		numbers, ok := byRegulation[art.Regulation]
		if !ok {
			numbers = make(map[string]string)
			byRegulation[art.Regulation] = numbers
		}
		numbers[art.ArticleNumber] = nodeID
	}

	edgeCount := 0
	for _, art := range articles {
		sourceID := art.NodeID()
		for _, m := range citationPattern.FindAllStringSubmatch(art.FullText, -1) {
			citedNum := m[1]
			if citedNum == art.ArticleNumber {
				continue
			}
			targetID, ok := byRegulation[art.Regulation][citedNum]
			if !ok {
				continue
			}
			if g.AddEdge(sourceID, targetID) {
				edgeCount++
			}
		}
	}

	slog.Info("citation graph built",
		slog.Int("nodes", g.NumNodes()),
		slog.Int("edges", edgeCount))
	return g
}
