package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GitHubConfig holds the target repository and API connection details. The
// token itself lives in the environment variable named by TokenEnv.
type GitHubConfig struct {
	Owner    string `yaml:"owner"`
	Repo     string `yaml:"repo"`
	TokenEnv string `yaml:"token_env"`
	BaseURL  string `yaml:"base_url"`
}

// AgentConfig configures the review session against the chat model.
type AgentConfig struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	MaxTurns  int    `yaml:"max_turns"`
}

// OpenAIEmbedderConfig configures the optional remote embedder.
type OpenAIEmbedderConfig struct {
	Model       string `yaml:"model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	BaseURL     string `yaml:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects the embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures the line-window chunker.
type ChunkerConfig struct {
	WindowSize int `yaml:"window_size"`
	Overlap    int `yaml:"overlap"`
}

// IndexerConfig controls the directory walk.
type IndexerConfig struct {
	Extensions    []string `yaml:"extensions"`
	ExcludedDirs  []string `yaml:"excluded_dirs"`
	MaxFileSizeKB int64    `yaml:"max_file_size_kb"`
}

// SearchConfig configures query answering.
type SearchConfig struct {
	DefaultK int `yaml:"default_k"`
}

// SummaryConfig configures the corpus summary line.
type SummaryConfig struct {
	MaxTerms int `yaml:"max_terms"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	GitHub   GitHubConfig   `yaml:"github"`
	Agent    AgentConfig    `yaml:"agent"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Chunker  ChunkerConfig  `yaml:"chunker"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Search   SearchConfig   `yaml:"search"`
	Summary  SummaryConfig  `yaml:"summary"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then the user config dir. If
// neither exists, it writes defaults to the user config path and returns
// them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "issue-reviewer", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.GitHub.TokenEnv == "" {
		cfg.GitHub.TokenEnv = "GITHUB_TOKEN"
	}
	if cfg.GitHub.BaseURL == "" {
		cfg.GitHub.BaseURL = "https://api.github.com"
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = "gpt-4.1"
	}
	if cfg.Agent.APIKeyEnv == "" {
		cfg.Agent.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Agent.MaxTurns == 0 {
		cfg.Agent.MaxTurns = 8
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "bagofwords"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	// Overlap defaults only when the whole chunker section is absent:
	// an explicit overlap of 0 is a valid setting and must survive.
	if cfg.Chunker.WindowSize == 0 {
		cfg.Chunker.WindowSize = 50
		if cfg.Chunker.Overlap == 0 {
			cfg.Chunker.Overlap = 5
		}
	}
	if len(cfg.Indexer.Extensions) == 0 {
		cfg.Indexer.Extensions = []string{".py", ".js", ".ts", ".md"}
	}
	if len(cfg.Indexer.ExcludedDirs) == 0 {
		cfg.Indexer.ExcludedDirs = []string{"node_modules", "__pycache__", "venv"}
	}
	if cfg.Indexer.MaxFileSizeKB == 0 {
		cfg.Indexer.MaxFileSizeKB = 1024
	}
	if cfg.Search.DefaultK == 0 {
		cfg.Search.DefaultK = 3
	}
	if cfg.Summary.MaxTerms == 0 {
		cfg.Summary.MaxTerms = 5
	}
}
