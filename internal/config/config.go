// Package config loads lexnav configuration from YAML with LEXNAV_*
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	lexerrors "github.com/lexnav/lexnav/internal/errors"
)

// Config is the full lexnav configuration.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DataConfig locates the article feeds.
type DataConfig struct {
	// Articles are paths to JSON article feed files.
	Articles []string `yaml:"articles"`
}

// IndexConfig locates the persisted index artifacts.
type IndexConfig struct {
	// Dir is the directory holding all index artifacts.
	Dir string `yaml:"dir"`
}

// LexicalPath is the Bleve index directory.
func (c IndexConfig) LexicalPath() string { return filepath.Join(c.Dir, "lexical.bleve") }

// VectorPath is the HNSW index file.
func (c IndexConfig) VectorPath() string { return filepath.Join(c.Dir, "vectors.hnsw") }

// MetadataPath is the SQLite metadata database.
func (c IndexConfig) MetadataPath() string { return filepath.Join(c.Dir, "metadata.db") }

// GraphPath is the citation graph JSON file.
func (c IndexConfig) GraphPath() string { return filepath.Join(c.Dir, "citation_graph.json") }

// EmbeddingConfig configures the embedding model.
type EmbeddingConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
	CacheSize  int    `yaml:"cache_size"`
}

// LLMConfig configures the completion model.
type LLMConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

// RetrievalConfig holds query-time tunables.
type RetrievalConfig struct {
	K                  int  `yaml:"k"`
	RRFConstant        int  `yaml:"rrf_constant"`
	MaxExpansion       int  `yaml:"max_expansion"`
	SnippetLength      int  `yaml:"snippet_length"`
	JudgmentTimeoutSec int  `yaml:"judgment_timeout_seconds"`
	UseHyDE            bool `yaml:"use_hyde"`
	UseClassifier      bool `yaml:"use_classifier"`
	Rerank             bool `yaml:"rerank"`
}

// JudgmentTimeout returns the judgment timeout as a duration.
func (c RetrievalConfig) JudgmentTimeout() time.Duration {
	return time.Duration(c.JudgmentTimeoutSec) * time.Second
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Articles: []string{"data/gdpr_articles.json", "data/ai_act_articles.json"},
		},
		Index: IndexConfig{Dir: ".lexnav"},
		Embedding: EmbeddingConfig{
			Model:      "text-embedding-004",
			Dimensions: 768,
			BatchSize:  100,
			CacheSize:  1024,
		},
		LLM: LLMConfig{
			Model:       "gemini-1.5-flash",
			Temperature: 0,
		},
		Retrieval: RetrievalConfig{
			K:                  5,
			RRFConstant:        60,
			MaxExpansion:       3,
			SnippetLength:      500,
			JudgmentTimeoutSec: 10,
			UseHyDE:            false,
			UseClassifier:      true,
			Rerank:             false,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the config at path, falling back to defaults when path is
// empty or the file does not exist, then applies environment overrides
// and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, lexerrors.ConfigError(fmt.Sprintf("cannot read config %s", path), err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, lexerrors.ConfigError(fmt.Sprintf("cannot parse config %s", path), err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies LEXNAV_* environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("LEXNAV_INDEX_DIR"); v != "" {
		c.Index.Dir = v
	}
	if v := os.Getenv("LEXNAV_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LEXNAV_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("LEXNAV_EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("LEXNAV_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LEXNAV_RETRIEVAL_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Retrieval.K = k
		}
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Index.Dir == "" {
		return lexerrors.ConfigError("index.dir must not be empty", nil)
	}
	if c.Embedding.Dimensions <= 0 {
		return lexerrors.ConfigError("embedding.dimensions must be positive", nil)
	}
	if c.Embedding.BatchSize <= 0 {
		return lexerrors.ConfigError("embedding.batch_size must be positive", nil)
	}
	if c.Retrieval.K <= 0 {
		return lexerrors.ConfigError("retrieval.k must be positive", nil)
	}
	if c.Retrieval.MaxExpansion < 0 {
		return lexerrors.ConfigError("retrieval.max_expansion must not be negative", nil)
	}
	if c.Retrieval.RRFConstant <= 0 {
		return lexerrors.ConfigError("retrieval.rrf_constant must be positive", nil)
	}
	return nil
}

// APIKey returns the Gemini API key from the environment. Commands that
// need the external models treat an empty key as fatal.
func APIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}
