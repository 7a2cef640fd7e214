// Package chunk implements hierarchical (parent-child) chunking of
// regulation articles with legal metadata extraction. Children are
// paragraph-level units embedded for retrieval; every child carries the
// full parent article text so a single index hit yields complete context.
package chunk

// LegalForce classifies the binding strength of a paragraph.
type LegalForce string

const (
	// ForceMandatory marks binding obligations ("shall").
	ForceMandatory LegalForce = "mandatory"
	// ForcePermissive marks discretionary provisions ("may").
	ForcePermissive LegalForce = "permissive"
	// ForceExplanatory marks descriptive or definitional text.
	ForceExplanatory LegalForce = "explanatory"
)

// Chunk is a paragraph-level child unit of one article. Chunks are
// produced once during ingestion and never mutated.
type Chunk struct {
	// ID is derived deterministically from the parent article id and the
	// paragraph index: "<articleID>_p<index>".
	ID string

	// ParentArticleID is the id of the article this chunk belongs to.
	ParentArticleID string

	// Index is the paragraph position within the parent article.
	// Positions of filtered header residue are consumed, keeping ids
	// stable if the residue filter changes.
	Index int

	// Text is the single paragraph embedded for retrieval.
	Text string

	// LegalForce is a pure function of Text.
	LegalForce LegalForce

	// ContainsObligation is true when the paragraph imposes a duty.
	ContainsObligation bool

	// ReferencedArticles holds in-text "Article N" references in order
	// of appearance, sub-numbers attached (e.g. "5(1)").
	ReferencedArticles []string

	// ParentText is the full denormalized text of the parent article.
	// Storage is traded for zero-extra-lookup retrieval: a hit on the
	// child index yields full context with no secondary store.
	ParentText string

	// Article identity, denormalized for parent collapsing and
	// regulation filtering at query time.
	ArticleNumber string
	Regulation    string
	Title         string
}

// NodeID returns the composite graph key of the chunk's parent article.
func (c Chunk) NodeID() string {
	return c.Regulation + "_" + c.ArticleNumber
}
