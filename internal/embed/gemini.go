package embed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	lexerrors "github.com/lexnav/lexnav/internal/errors"
)

// GeminiEmbedder embeds text with the Gemini embedding API. Rate-limited
// requests are retried with exponential backoff.
type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
	config Config
	retry  lexerrors.RetryConfig
}

// NewGeminiEmbedder creates an embedder backed by the Gemini API.
func NewGeminiEmbedder(ctx context.Context, apiKey string, config Config) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, lexerrors.ConfigError("GEMINI_API_KEY is not set", nil)
	}
	if config.Model == "" {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, lexerrors.EmbeddingError("failed to create Gemini client", err)
	}

	return &GeminiEmbedder{
		client: client,
		model:  client.EmbeddingModel(config.Model),
		config: config,
		retry:  lexerrors.DefaultRetryConfig(),
	}, nil
}

// Embed generates an embedding for a single text.
func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return lexerrors.RetryWithResult(ctx, g.retry, func() ([]float32, error) {
		res, err := g.model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, g.wrapAPIError(err)
		}
		if res.Embedding == nil || len(res.Embedding.Values) == 0 {
			return nil, lexerrors.EmbeddingError("empty embedding returned", nil)
		}
		return res.Embedding.Values, nil
	})
}

// EmbedBatch generates embeddings for texts, splitting into API-sized
// batches. The result preserves input order.
func (g *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.config.BatchSize {
		end := start + g.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := g.embedOneBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, embeddings...)

		slog.Debug("embedded_batch",
			slog.Int("from", start),
			slog.Int("to", end),
			slog.Int("total", len(texts)))
	}

	return out, nil
}

func (g *GeminiEmbedder) embedOneBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return lexerrors.RetryWithResult(ctx, g.retry, func() ([][]float32, error) {
		batch := g.model.NewBatch()
		for _, t := range texts {
			batch.AddContent(genai.Text(t))
		}

		res, err := g.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, g.wrapAPIError(err)
		}
		if len(res.Embeddings) != len(texts) {
			return nil, lexerrors.EmbeddingError(
				fmt.Sprintf("batch returned %d embeddings for %d texts", len(res.Embeddings), len(texts)), nil)
		}

		embeddings := make([][]float32, len(res.Embeddings))
		for i, e := range res.Embeddings {
			embeddings[i] = e.Values
		}
		return embeddings, nil
	})
}

func (g *GeminiEmbedder) wrapAPIError(err error) error {
	if lexerrors.IsRateLimit(err) {
		return lexerrors.New(lexerrors.ErrCodeRateLimited, "Gemini embedding rate limited", err)
	}
	return lexerrors.EmbeddingError("Gemini embedding request failed", err)
}

// Dimensions returns the embedding dimension.
func (g *GeminiEmbedder) Dimensions() int {
	return g.config.Dimensions
}

// ModelName returns the model identifier.
func (g *GeminiEmbedder) ModelName() string {
	return g.config.Model
}

// Close closes the underlying API client.
func (g *GeminiEmbedder) Close() error {
	return g.client.Close()
}

var _ Embedder = (*GeminiEmbedder)(nil)
