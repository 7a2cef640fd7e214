// Package ingest implements the offline indexing pipeline: load article
// feeds, chunk, embed, populate the lexical/vector/metadata stores, and
// build the citation graph. Ingestion is a single-pass batch job; the
// serving path never mutates what it produces.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexnav/lexnav/internal/chunk"
	"github.com/lexnav/lexnav/internal/corpus"
	"github.com/lexnav/lexnav/internal/embed"
	"github.com/lexnav/lexnav/internal/graph"
	"github.com/lexnav/lexnav/internal/store"
)

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	chunker  *chunk.Chunker
	embedder embed.Embedder
	lexical  store.LexicalIndex
	vector   store.VectorIndex
	meta     *store.MetadataStore

	vectorPath string
	graphPath  string
}

// Stats summarizes one ingestion run.
type Stats struct {
	Articles   int
	Chunks     int
	GraphNodes int
	GraphEdges int
	Duration   time.Duration
}

// New creates a pipeline. vectorPath and graphPath are where the vector
// index and citation graph are persisted at the end of the run.
func New(embedder embed.Embedder, lexical store.LexicalIndex, vector store.VectorIndex, meta *store.MetadataStore, vectorPath, graphPath string) *Pipeline {
	return &Pipeline{
		chunker:    chunk.New(),
		embedder:   embedder,
		lexical:    lexical,
		vector:     vector,
		meta:       meta,
		vectorPath: vectorPath,
		graphPath:  graphPath,
	}
}

// Run ingests the article feeds at paths. Malformed records are skipped
// upstream by the loader; an empty corpus is an error because every
// downstream query would come back empty.
func (p *Pipeline) Run(ctx context.Context, paths []string) (*Stats, error) {
	start := time.Now()

	articles, err := corpus.LoadArticles(paths...)
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("no articles loaded from %v", paths)
	}
	slog.Info("articles_loaded", slog.Int("count", len(articles)))

	chunks := p.chunker.ChunkAll(articles)
	slog.Info("articles_chunked",
		slog.Int("articles", len(articles)),
		slog.Int("chunks", len(chunks)))

	if err := p.meta.SaveArticles(ctx, articles); err != nil {
		return nil, fmt.Errorf("save articles: %w", err)
	}
	if err := p.meta.SaveChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	if err := p.indexLexical(ctx, chunks); err != nil {
		return nil, err
	}
	if err := p.indexVectors(ctx, chunks); err != nil {
		return nil, err
	}

	g := graph.Build(articles)
	if err := g.Save(p.graphPath); err != nil {
		return nil, fmt.Errorf("save citation graph: %w", err)
	}

	stats := &Stats{
		Articles:   len(articles),
		Chunks:     len(chunks),
		GraphNodes: g.NumNodes(),
		GraphEdges: g.NumEdges(),
		Duration:   time.Since(start),
	}
	slog.Info("ingestion_complete",
		slog.Int("articles", stats.Articles),
		slog.Int("chunks", stats.Chunks),
		slog.Int("graph_nodes", stats.GraphNodes),
		slog.Int("graph_edges", stats.GraphEdges),
		slog.Duration("duration", stats.Duration))

	return stats, nil
}

func (p *Pipeline) indexLexical(ctx context.Context, chunks []chunk.Chunk) error {
	docs := make([]*store.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = &store.Document{ID: c.ID, Content: c.Text}
	}
	if err := p.lexical.Index(ctx, docs); err != nil {
		return fmt.Errorf("lexical indexing: %w", err)
	}
	slog.Info("lexical_indexed", slog.Int("docs", len(docs)))
	return nil
}

func (p *Pipeline) indexVectors(ctx context.Context, chunks []chunk.Chunk) error {
	texts := make([]string, len(chunks))
	ids := make([]string, len(chunks))
	metas := make([]map[string]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
		ids[i] = c.ID
		metas[i] = map[string]string{
			"regulation": c.Regulation,
			"node_id":    c.NodeID(),
		}
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if err := p.vector.Add(ctx, ids, vectors, metas); err != nil {
		return fmt.Errorf("vector indexing: %w", err)
	}
	if err := p.vector.Save(p.vectorPath); err != nil {
		return fmt.Errorf("save vector index: %w", err)
	}
	slog.Info("vectors_indexed", slog.Int("vectors", len(ids)))
	return nil
}
