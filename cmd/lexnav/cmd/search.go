package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexnav/lexnav/internal/config"
	"github.com/lexnav/lexnav/internal/embed"
	lexerrors "github.com/lexnav/lexnav/internal/errors"
	"github.com/lexnav/lexnav/internal/graph"
	"github.com/lexnav/lexnav/internal/llm"
	"github.com/lexnav/lexnav/internal/search"
	"github.com/lexnav/lexnav/internal/store"
)

var (
	searchK          int
	searchRegulation string
	searchMode       string
	searchHyDE       bool
	searchRerank     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Retrieve relevant provisions for a legal question",
	Long: `Runs the retrieval pipeline for a natural-language question and
prints the ordered context results as JSON.

Modes:
  parent  parent-child retrieval with citation-graph expansion (default)
  hybrid  fused BM25 + vector chunk search`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().StringVar(&searchRegulation, "regulation", "", "restrict to one regulation (GDPR or EU_AI_Act)")
	searchCmd.Flags().StringVar(&searchMode, "mode", "parent", "retrieval mode: parent or hybrid")
	searchCmd.Flags().BoolVar(&searchHyDE, "hyde", false, "embed a hypothetical answer document instead of the query")
	searchCmd.Flags().BoolVar(&searchRerank, "rerank", false, "rerank results with the completion model")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	apiKey := config.APIKey()
	if apiKey == "" {
		return lexerrors.ConfigError("GEMINI_API_KEY is required for search", nil)
	}

	k := searchK
	if k <= 0 {
		k = cfg.Retrieval.K
	}
	opts := search.Options{
		K:               k,
		RRFConstant:     cfg.Retrieval.RRFConstant,
		MaxExpansion:    cfg.Retrieval.MaxExpansion,
		SnippetLength:   cfg.Retrieval.SnippetLength,
		JudgmentTimeout: cfg.Retrieval.JudgmentTimeout(),
	}

	gemini, err := embed.NewGeminiEmbedder(ctx, apiKey, embed.Config{
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		BatchSize:  cfg.Embedding.BatchSize,
	})
	if err != nil {
		return err
	}
	defer gemini.Close()
	embedder, err := embed.NewCachedEmbedder(gemini, cfg.Embedding.CacheSize)
	if err != nil {
		return err
	}

	completer, err := llm.NewGeminiCompleter(ctx, apiKey, llm.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return err
	}
	defer completer.Close()

	vector, err := store.NewHNSWIndex(store.DefaultVectorConfig(cfg.Embedding.Dimensions))
	if err != nil {
		return err
	}
	defer vector.Close()
	if err := vector.Load(cfg.Index.VectorPath()); err != nil {
		return lexerrors.New(lexerrors.ErrCodeCorruptIndex,
			fmt.Sprintf("cannot load vector index from %s (run: lexnav ingest)", cfg.Index.VectorPath()), err)
	}

	meta, err := store.NewMetadataStore(cfg.Index.MetadataPath())
	if err != nil {
		return err
	}
	defer meta.Close()

	regulation := searchRegulation
	if regulation == "" && cfg.Retrieval.UseClassifier {
		regulation = search.NewClassifier(completer).Classify(ctx, query)
	}

	var results []search.Result
	switch searchMode {
	case "hybrid":
		lexical, err := store.NewBleveLexicalIndex(cfg.Index.LexicalPath(), store.DefaultBM25Config())
		if err != nil {
			return err
		}
		defer lexical.Close()

		searcher := search.NewHybridSearcher(lexical, vector, embedder, meta, opts)
		var filter *store.Filter
		if regulation != "" {
			filter = &store.Filter{Field: "regulation", Value: regulation}
		}
		results, err = searcher.Search(ctx, query, k, filter)
		if err != nil {
			return err
		}

	case "parent":
		// A missing graph degrades to vector-only retrieval.
		var citationGraph *graph.Graph
		if g, err := graph.Load(cfg.Index.GraphPath()); err != nil {
			slog.Warn("citation_graph_unavailable",
				slog.String("path", cfg.Index.GraphPath()),
				slog.String("error", err.Error()))
		} else {
			citationGraph = g
		}

		judge := search.NewRelevanceJudge(completer, opts)
		retriever := search.NewParentChildRetriever(vector, embedder, meta, citationGraph, judge, opts)

		ropts := search.RetrieveOptions{K: k, Regulation: regulation}
		if searchHyDE || cfg.Retrieval.UseHyDE {
			ropts.EmbedText = search.NewHyDE(completer).Expand(ctx, query)
		}
		results, err = retriever.Retrieve(ctx, query, ropts)
		if err != nil {
			return err
		}

	default:
		return lexerrors.New(lexerrors.ErrCodeInvalidInput,
			fmt.Sprintf("unknown mode %q (want parent or hybrid)", searchMode), nil)
	}

	if searchRerank || cfg.Retrieval.Rerank {
		results = search.NewReranker(completer).Rerank(ctx, query, results, k)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
