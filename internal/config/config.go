// Package config loads claimkg configuration from a YAML file with
// environment variable overrides. Missing config files are not an error;
// defaults plus environment are enough to run against a local Neo4j.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all claimkg configuration.
type Config struct {
	// Knowledge graph connection
	KG KGConfig `yaml:"kg"`

	// LLM verdict clients
	LLM LLMConfig `yaml:"llm"`

	// Embedding engine for relation similarity
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Local SQLite cache
	Cache CacheConfig `yaml:"cache"`

	// Dataset processing
	Dataset DatasetConfig `yaml:"dataset"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// KGConfig configures the Neo4j connection.
type KGConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// LLMConfig configures the Gemini verdict clients. Each role can carry its
// own API key so quota pools stay separate; empty role keys fall back to
// the shared key.
type LLMConfig struct {
	APIKey          string  `yaml:"api_key"`
	VerifierKey     string  `yaml:"verifier_key"`
	CheckerKey      string  `yaml:"checker_key"`
	RelabellerKey   string  `yaml:"relabeller_key"`
	Model           string  `yaml:"model"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	Timeout         string  `yaml:"timeout"`
}

// EmbeddingConfig configures the relation similarity engine.
type EmbeddingConfig struct {
	// Provider: "ollama" or "genai"
	Provider string `yaml:"provider"`

	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`

	GenAIAPIKey string `yaml:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model"`

	// Timeout bounds a single embedding request.
	Timeout string `yaml:"timeout"`
}

// RequestTimeout parses the embedding request timeout.
func (c EmbeddingConfig) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// CacheConfig configures the local SQLite cache.
type CacheConfig struct {
	Path string `yaml:"path"`
	// EntityTTL bounds how long a cached entity neighborhood is served
	// before the connector is asked again.
	EntityTTL string `yaml:"entity_ttl"`
}

// DatasetConfig configures dataset processing.
type DatasetConfig struct {
	Workers          int  `yaml:"workers"`
	RemoveUnderscore bool `yaml:"remove_underscore"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		KG: KGConfig{
			Database: "neo4j",
		},
		LLM: LLMConfig{
			Model:           "gemini-2.0-flash",
			Temperature:     0.3,
			MaxOutputTokens: 256,
			Timeout:         "2m",
		},
		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			Timeout:        "30s",
		},
		Cache: CacheConfig{
			Path:      ".claimkg/cache.db",
			EntityTTL: "24h",
		},
		Dataset: DatasetConfig{
			Workers:          4,
			RemoveUnderscore: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads config from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Defaults plus environment are a valid configuration.
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets the environment win over file values. The KG_*
// names match what the upstream dataset tooling already uses.
func (c *Config) applyEnvOverrides() {
	if uri := os.Getenv("KG_URI"); uri != "" {
		c.KG.URI = uri
	}
	if user := os.Getenv("KG_USERNAME"); user != "" {
		c.KG.Username = user
	}
	if pass := os.Getenv("KG_PASSWORD"); pass != "" {
		c.KG.Password = pass
	}
	if db := os.Getenv("KG_NAME"); db != "" {
		c.KG.Database = db
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GENERAL_LLM_API_KEY"); key != "" {
		c.LLM.VerifierKey = key
	}
	if key := os.Getenv("PSEUDOGRAPH_CHECKING_API_KEY"); key != "" {
		c.LLM.CheckerKey = key
	}
	if key := os.Getenv("PSEUDOGRAPH_RELABELLING_API_KEY"); key != "" {
		c.LLM.RelabellerKey = key
	}

	if key := os.Getenv("CLAIMKG_EMBEDDING_API_KEY"); key != "" {
		c.Embedding.GenAIAPIKey = key
	}
	if path := os.Getenv("CLAIMKG_CACHE"); path != "" {
		c.Cache.Path = path
	}
}

// Validate checks that required KG settings are present. Called by commands
// that actually touch Neo4j; offline commands skip it.
func (c *Config) Validate() error {
	if c.KG.URI == "" || c.KG.Username == "" || c.KG.Password == "" {
		return fmt.Errorf("KG_URI, KG_USERNAME and KG_PASSWORD must be set")
	}
	return nil
}

// LLMTimeout parses the configured LLM timeout.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// EntityTTL parses the cache TTL.
func (c *Config) EntityTTL() time.Duration {
	d, err := time.ParseDuration(c.Cache.EntityTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}
