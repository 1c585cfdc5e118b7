package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Qdrant      QdrantConfig     `toml:"qdrant"`
	Embedding   EmbeddingConfig  `toml:"embedding"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
	Chunking    ChunkingConfig   `toml:"chunking"`
	Retrieval   RetrievalConfig  `toml:"retrieval"`
	Chat        ChatConfig       `toml:"chat"`
	Reconciler  ReconcilerConfig `toml:"reconciler"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// QdrantConfig configures the external vector index service.
type QdrantConfig struct {
	URL              string `toml:"url" validate:"required,url"`
	APIKey           string `toml:"api_key"`
	Timeout          string `toml:"timeout"`           // e.g. "15s"
	CollectionPrefix string `toml:"collection_prefix"` // per-tenant collection name prefix
}

// EmbeddingConfig configures the local embedding server client.
type EmbeddingConfig struct {
	URL       string `toml:"url" validate:"required,url"` // llama-server style /embedding endpoint
	Dimension int    `toml:"dimension" validate:"gt=0"`   // fixed at deployment time, e.g. 384
	Timeout   string `toml:"timeout"`
	MockMode  bool   `toml:"mock_mode"` // deterministic embeddings without a server, for tests
}

// ClaudeConfig configures the Anthropic Claude generation service.
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// LLMConfig selects the generation provider.
type LLMConfig struct {
	Provider string `toml:"provider" validate:"oneof=claude mock"` // "claude" or "mock"
}

type ChunkingConfig struct {
	WindowWords  int `toml:"window_words" validate:"gt=0"`
	OverlapWords int `toml:"overlap_words" validate:"gte=0"`
}

type RetrievalConfig struct {
	TopK           int     `toml:"top_k" validate:"gt=0"`
	ScoreThreshold float32 `toml:"score_threshold" validate:"gte=0,lte=1"`
}

type ChatConfig struct {
	HistoryLimit int `toml:"history_limit" validate:"gt=0"` // turns of prior conversation sent to the LLM
}

// ReconcilerConfig controls the orphan-vector reconciliation sweep.
type ReconcilerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // cron format
}

// NewDefaultConfig returns the built-in defaults, overridden by file then env.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/knowledge",
				ResetOnStartup: false,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Qdrant: QdrantConfig{
			URL:              "http://localhost:6333",
			Timeout:          "15s",
			CollectionPrefix: "hr_knowledge_",
		},
		Embedding: EmbeddingConfig{
			URL:       "http://127.0.0.1:8086",
			Dimension: 384,
			Timeout:   "30s",
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			Timeout:     "120s",
			Temperature: 0.5,
			MaxTokens:   2048,
		},
		LLM: LLMConfig{
			Provider: "claude",
		},
		Chunking: ChunkingConfig{
			WindowWords:  500,
			OverlapWords: 50,
		},
		Retrieval: RetrievalConfig{
			TopK:           5,
			ScoreThreshold: 0.3,
		},
		Chat: ChatConfig{
			HistoryLimit: 10,
		},
		Reconciler: ReconcilerConfig{
			Enabled:  false,
			Schedule: "0 3 * * *",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyFlagOverrides applies command-line flag overrides, which take
// priority over files and environment variables.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the assembled configuration
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Chunking.OverlapWords >= c.Chunking.WindowWords {
		return fmt.Errorf("invalid configuration: chunking overlap_words (%d) must be less than window_words (%d)", c.Chunking.OverlapWords, c.Chunking.WindowWords)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("KNOWLEDGE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("KNOWLEDGE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("KNOWLEDGE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("KNOWLEDGE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("KNOWLEDGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if url := os.Getenv("QDRANT_URL"); url != "" {
		config.Qdrant.URL = url
	}
	if apiKey := os.Getenv("QDRANT_API_KEY"); apiKey != "" {
		config.Qdrant.APIKey = apiKey
	}

	if url := os.Getenv("KNOWLEDGE_EMBEDDING_URL"); url != "" {
		config.Embedding.URL = url
	}
	if dim := os.Getenv("KNOWLEDGE_EMBEDDING_DIMENSION"); dim != "" {
		if d, err := strconv.Atoi(dim); err == nil {
			config.Embedding.Dimension = d
		}
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("KNOWLEDGE_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if provider := os.Getenv("KNOWLEDGE_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
}
