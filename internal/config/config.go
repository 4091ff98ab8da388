// Package config loads the application configuration: YAML file with
// defaults applied, then environment overrides for the values that usually
// differ per deployment (data directory, endpoints, models).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// EmbedderConfig selects and configures the embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"` // "tfidf" or "openai"
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// OpenAIEmbedderConfig configures the OpenAI-compatible embeddings client.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	Concurrency int    `yaml:"concurrency"`
}

// ChunkerConfig configures the character-window splitter. Overlap is a
// pointer because zero is a valid setting, distinct from unset.
type ChunkerConfig struct {
	MaxSize int  `yaml:"max_size"`
	Overlap *int `yaml:"overlap"`
}

// IndexConfig selects the vector store backend and its location.
type IndexConfig struct {
	Backend string `yaml:"backend"` // "file" or "chromem"
	DataDir string `yaml:"data_dir"`
}

// RetrievalConfig configures top-K retrieval.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// GenerationConfig configures the chat completion client. Temperature is a
// pointer because zero is a valid setting, distinct from unset.
type GenerationConfig struct {
	BaseURL     string   `yaml:"base_url"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	Model       string   `yaml:"model"`
	Temperature *float32 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
	TimeoutSecs int      `yaml:"timeout_secs"`
}

// SummaryConfig configures the ingestion report summary.
type SummaryConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// PromptConfig points at an alternative grounding template. Empty means the
// built-in medical template.
type PromptConfig struct {
	TemplateFile string `yaml:"template_file"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	Index      IndexConfig      `yaml:"index"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Generation GenerationConfig `yaml:"generation"`
	Summary    SummaryConfig    `yaml:"summary"`
	Prompt     PromptConfig     `yaml:"prompt"`
}

// envOverrides are applied on top of the YAML values.
type envOverrides struct {
	DataDir         string `env:"CAREAI_DATA_DIR"`
	EmbedderBaseURL string `env:"CAREAI_EMBED_BASE_URL"`
	LLMBaseURL      string `env:"CAREAI_LLM_BASE_URL"`
	LLMModel        string `env:"CAREAI_LLM_MODEL"`
}

// IndexPath is the file-store index location inside the data directory.
func (c *AppConfig) IndexPath() string {
	return filepath.Join(c.Index.DataDir, "index.jsonl")
}

// TFIDFStatePath is where the fitted TF-IDF model lives.
func (c *AppConfig) TFIDFStatePath() string {
	return filepath.Join(c.Index.DataDir, "tfidf-model.json")
}

// Load reads the config from path; a missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyDefaults(cfg)
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml, then ~/.config/careai/config.yaml,
// falling back to defaults when neither exists.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, ".config", "careai", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			cfg, err := Load(userPath)
			return cfg, userPath, err
		}
	}
	cfg := defaultConfig()
	applyDefaults(cfg)
	if err := applyEnv(cfg); err != nil {
		return nil, "", err
	}
	return cfg, "", nil
}

func applyEnv(cfg *AppConfig) error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("parse environment overrides: %w", err)
	}
	if ov.DataDir != "" {
		cfg.Index.DataDir = ov.DataDir
	}
	if ov.EmbedderBaseURL != "" && cfg.Embedder.OpenAI != nil {
		cfg.Embedder.OpenAI.BaseURL = ov.EmbedderBaseURL
	}
	if ov.LLMBaseURL != "" {
		cfg.Generation.BaseURL = ov.LLMBaseURL
	}
	if ov.LLMModel != "" {
		cfg.Generation.Model = ov.LLMModel
	}
	return nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Index:     IndexConfig{Backend: "file", DataDir: "data"},
		Chunker:   ChunkerConfig{MaxSize: 10000},
		Embedder:  EmbedderConfig{Type: "tfidf"},
		Retrieval: RetrievalConfig{TopK: 4},
		Generation: GenerationConfig{
			APIKeyEnv:   "OPENAI_API_KEY",
			Model:       "gpt-4o-mini",
			TimeoutSecs: 60,
		},
		Summary: SummaryConfig{MaxSentences: 5},
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "file"
	}
	if cfg.Index.DataDir == "" {
		cfg.Index.DataDir = "data"
	}
	if cfg.Chunker.MaxSize == 0 {
		cfg.Chunker.MaxSize = 10000
	}
	if cfg.Chunker.Overlap == nil {
		overlap := 1000
		cfg.Chunker.Overlap = &overlap
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI == nil {
		cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
	}
	if cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.Concurrency == 0 {
			cfg.Embedder.OpenAI.Concurrency = 8
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Generation.APIKeyEnv == "" {
		cfg.Generation.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gpt-4o-mini"
	}
	if cfg.Generation.Temperature == nil {
		temperature := float32(0.3)
		cfg.Generation.Temperature = &temperature
	}
	if cfg.Generation.TimeoutSecs == 0 {
		cfg.Generation.TimeoutSecs = 60
	}
	if cfg.Summary.MaxSentences == 0 {
		cfg.Summary.MaxSentences = 5
	}
}
