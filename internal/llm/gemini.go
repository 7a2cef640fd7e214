package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	lexerrors "github.com/lexnav/lexnav/internal/errors"
)

// GeminiCompleter generates completions with the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  *genai.GenerativeModel
	config Config
	retry  lexerrors.RetryConfig
}

// NewGeminiCompleter creates a completer backed by the Gemini API.
func NewGeminiCompleter(ctx context.Context, apiKey string, config Config) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, lexerrors.ConfigError("GEMINI_API_KEY is not set", nil)
	}
	if config.Model == "" {
		config = DefaultConfig()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, lexerrors.New(lexerrors.ErrCodeJudgmentFailed, "failed to create Gemini client", err)
	}

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(config.Temperature)
	if config.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(config.MaxOutputTokens)
	}

	return &GeminiCompleter{
		client: client,
		model:  model,
		config: config,
		retry:  lexerrors.DefaultRetryConfig(),
	}, nil
}

// Complete returns the concatenated text parts of the first candidate.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return lexerrors.RetryWithResult(ctx, g.retry, func() (string, error) {
		res, err := g.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			if lexerrors.IsRateLimit(err) {
				return "", lexerrors.New(lexerrors.ErrCodeRateLimited, "Gemini completion rate limited", err)
			}
			return "", lexerrors.New(lexerrors.ErrCodeJudgmentFailed, "Gemini completion request failed", err)
		}

		text := extractText(res)
		if text == "" {
			return "", lexerrors.New(lexerrors.ErrCodeCompletionEmpty, "Gemini returned an empty completion", nil)
		}
		return text, nil
	})
}

func extractText(res *genai.GenerateContentResponse) string {
	if res == nil || len(res.Candidates) == 0 {
		return ""
	}
	candidate := res.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}

// ModelName returns the model identifier.
func (g *GeminiCompleter) ModelName() string {
	return g.config.Model
}

// Close closes the underlying API client.
func (g *GeminiCompleter) Close() error {
	return g.client.Close()
}

var _ Completer = (*GeminiCompleter)(nil)
