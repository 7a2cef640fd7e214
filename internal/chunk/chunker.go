package chunk

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lexnav/lexnav/internal/corpus"
)

// headerResidueMaxLen is the length under which a paragraph containing
// "Article" is treated as a stray heading fragment from upstream parsing.
const headerResidueMaxLen = 20

var (
	obligationPattern = regexp.MustCompile(`(?i)\b(shall|must|required to|obligation)\b`)
	mandatoryPattern  = regexp.MustCompile(`(?i)\bshall\b`)
	permissivePattern = regexp.MustCompile(`(?i)\bmay\b`)
	referencePattern  = regexp.MustCompile(`(?i)Article\s+(\d+(?:\(\d+\))?)`)
)

// Chunker splits articles into paragraph-level chunks with legal metadata.
// It is stateless and safe for concurrent use.
type Chunker struct{}

// New creates a Chunker.
func New() *Chunker {
	return &Chunker{}
}

// ChunkArticle splits one article into child chunks. It is deterministic
// and total: well-formed input never fails, and an article whose every
// paragraph is filtered yields an empty slice.
func (c *Chunker) ChunkArticle(article corpus.Article) []Chunk {
	paragraphs := splitParagraphs(article.FullText)

	chunks := make([]Chunk, 0, len(paragraphs))
	for idx, para := range paragraphs {
		if isHeaderResidue(para) {
			continue
		}

		chunks = append(chunks, Chunk{
			ID:                 fmt.Sprintf("%s_p%d", article.ID, idx),
			ParentArticleID:    article.ID,
			Index:              idx,
			Text:               para,
			LegalForce:         classifyForce(para),
			ContainsObligation: obligationPattern.MatchString(para),
			ReferencedArticles: extractReferences(para),
			ParentText:         article.FullText,
			ArticleNumber:      article.ArticleNumber,
			Regulation:         article.Regulation,
			Title:              article.Title,
		})
	}
	return chunks
}

// ChunkAll chunks a whole corpus in feed order.
func (c *Chunker) ChunkAll(articles []corpus.Article) []Chunk {
	var all []Chunk
	for _, a := range articles {
		all = append(all, c.ChunkArticle(a)...)
	}
	return all
}

// splitParagraphs breaks article text on line boundaries, discarding
// blank lines. Upstream parsing joins article bodies with newlines, so a
// line is the paragraph unit here.
func splitParagraphs(fullText string) []string {
	lines := strings.Split(fullText, "\n")
	paras := make([]string, 0, len(lines))
	for _, line := range lines {
		if p := strings.TrimSpace(line); p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// isHeaderResidue reports whether a paragraph is a stray heading fragment
// ("Article 17") that survived upstream parsing.
func isHeaderResidue(para string) bool {
	return len(para) < headerResidueMaxLen && strings.Contains(para, "Article")
}

// classifyForce determines the binding strength of a paragraph.
// Precedence is mandatory > permissive > explanatory: a paragraph
// containing both "shall" and "may" is mandatory.
func classifyForce(text string) LegalForce {
	if mandatoryPattern.MatchString(text) {
		return ForceMandatory
	}
	if permissivePattern.MatchString(text) {
		return ForcePermissive
	}
	return ForceExplanatory
}

// extractReferences returns all "Article N" / "Article N(M)" references
// in order of appearance. Sub-numbers stay attached ("5(1)").
func extractReferences(text string) []string {
	matches := referencePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, m[1])
	}
	return refs
}
