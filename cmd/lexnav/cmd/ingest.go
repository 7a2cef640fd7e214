package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexnav/lexnav/internal/config"
	"github.com/lexnav/lexnav/internal/embed"
	lexerrors "github.com/lexnav/lexnav/internal/errors"
	"github.com/lexnav/lexnav/internal/ingest"
	"github.com/lexnav/lexnav/internal/store"
)

var ingestDataPaths []string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the search indexes and citation graph from article feeds",
	Long: `Loads the JSON article feeds, chunks articles into paragraphs with
legal metadata, embeds the chunks, populates the lexical, vector, and
metadata stores, and builds the citation graph.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestDataPaths, "data", nil, "article feed paths (overrides config)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	apiKey := config.APIKey()
	if apiKey == "" {
		return lexerrors.ConfigError("GEMINI_API_KEY is required for ingestion", nil)
	}

	paths := cfg.Data.Articles
	if len(ingestDataPaths) > 0 {
		paths = ingestDataPaths
	}

	embedder, err := embed.NewGeminiEmbedder(ctx, apiKey, embed.Config{
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		BatchSize:  cfg.Embedding.BatchSize,
	})
	if err != nil {
		return err
	}
	defer embedder.Close()

	lexical, err := store.NewBleveLexicalIndex(cfg.Index.LexicalPath(), store.DefaultBM25Config())
	if err != nil {
		return err
	}
	defer lexical.Close()

	vector, err := store.NewHNSWIndex(store.DefaultVectorConfig(cfg.Embedding.Dimensions))
	if err != nil {
		return err
	}
	defer vector.Close()

	meta, err := store.NewMetadataStore(cfg.Index.MetadataPath())
	if err != nil {
		return err
	}
	defer meta.Close()

	pipeline := ingest.New(embedder, lexical, vector, meta, cfg.Index.VectorPath(), cfg.Index.GraphPath())
	stats, err := pipeline.Run(ctx, paths)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d articles into %d chunks in %s\n",
		stats.Articles, stats.Chunks, stats.Duration.Round(time.Millisecond))
	fmt.Printf("Citation graph: %d nodes, %d edges\n", stats.GraphNodes, stats.GraphEdges)
	return nil
}
