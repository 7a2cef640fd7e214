// Package corpus defines the regulation article model and the upstream
// article feed loader. Articles are produced by an external document
// parser and consumed by the chunker and the citation graph builder.
package corpus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Known regulation identifiers in the corpus.
const (
	RegulationGDPR  = "GDPR"
	RegulationAIAct = "EU_AI_Act"

	// RegulationUnknown is the default when the feed omits the field.
	RegulationUnknown = "Unknown"
)

// Article is one parsed regulation article. Immutable once loaded.
type Article struct {
	ID            string `json:"id"`
	Regulation    string `json:"regulation"`
	ArticleNumber string `json:"article_number"`
	Title         string `json:"title"`
	FullText      string `json:"full_text"`
}

// NodeID returns the composite graph key for the article. The two
// regulations independently number articles starting at 1, so the bare
// article number would silently merge unrelated articles.
func (a Article) NodeID() string {
	return a.Regulation + "_" + a.ArticleNumber
}

// NodeIDFor builds a composite key from its parts.
func NodeIDFor(regulation, articleNumber string) string {
	return regulation + "_" + articleNumber
}

// LoadArticles reads article feed files (JSON arrays of Article records)
// and returns the combined corpus. Malformed records are skipped with a
// logged warning; a missing file is skipped the same way so a single-
// regulation corpus still loads. An unreadable or unparseable file is an
// error.
func LoadArticles(paths ...string) ([]Article, error) {
	var all []Article
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				slog.Warn("article feed not found, skipping",
					slog.String("path", path))
				continue
			}
			return nil, fmt.Errorf("read article feed %s: %w", path, err)
		}

		var records []Article
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse article feed %s: %w", path, err)
		}

		for _, rec := range records {
			if !validate(&rec) {
				slog.Warn("skipping malformed article record",
					slog.String("path", path),
					slog.String("id", rec.ID))
				continue
			}
			all = append(all, rec)
		}
	}
	return all, nil
}

// validate normalizes optional fields and reports whether the record is
// usable. Articles without an id, number, or body cannot be chunked or
// resolved in the citation graph.
func validate(a *Article) bool {
	if a.Regulation == "" {
		a.Regulation = RegulationUnknown
	}
	return a.ID != "" && a.ArticleNumber != "" && a.FullText != ""
}
