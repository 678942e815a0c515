package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is the config file read when no explicit path is given.
const DefaultPath = "config.yaml"

// Config holds all configuration for ekaya-command.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (store password, embedding API key) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr       string        `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port           string        `yaml:"port" env:"PORT" env-default:"5000"`
	Env            string        `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel       string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"15s"`
	Version        string        `yaml:"-"` // Set at load time, not from config

	// Store is the records database the lexicon is sampled from.
	Store StoreConfig `yaml:"store"`

	Lexicon   LexiconConfig   `yaml:"lexicon"`
	Matching  MatchingConfig  `yaml:"matching"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	NLP       NLPConfig       `yaml:"nlp"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// StoreConfig describes the records database connection.
type StoreConfig struct {
	Type     string `yaml:"type" env:"STORE_TYPE" env-default:"postgres"` // postgres, sqlserver, sqlite
	Host     string `yaml:"host" env:"STORE_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"STORE_PORT"`
	User     string `yaml:"user" env:"STORE_USER" env-default:"records"`
	Password string `yaml:"-" env:"STORE_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"STORE_DATABASE" env-default:"records"`
	Schema   string `yaml:"schema" env:"STORE_SCHEMA"` // Restricts discovery to one schema when set
	SSLMode  string `yaml:"ssl_mode" env:"STORE_SSL_MODE" env-default:"disable"`
	Path     string `yaml:"path" env:"STORE_PATH"` // SQLite file path
}

// LexiconConfig controls how the lexicon snapshot is built and refreshed.
type LexiconConfig struct {
	RefreshInterval   time.Duration `yaml:"refresh_interval" env:"LEXICON_REFRESH_INTERVAL" env-default:"10m"`
	SampleLimit       int           `yaml:"sample_limit" env:"LEXICON_SAMPLE_LIMIT" env-default:"50"`
	SampleConcurrency int           `yaml:"sample_concurrency" env:"LEXICON_SAMPLE_CONCURRENCY" env-default:"4"`
	SynonymsPath      string        `yaml:"synonyms_path" env:"LEXICON_SYNONYMS_PATH"` // Built-in table when empty
}

// MatchingConfig holds the thresholds used by module resolution and fuzzy correction.
type MatchingConfig struct {
	FuzzyCutoff         int     `yaml:"fuzzy_cutoff" env:"MATCH_FUZZY_CUTOFF" env-default:"60"` // 0-100
	SynonymThreshold    float64 `yaml:"synonym_threshold" env:"MATCH_SYNONYM_THRESHOLD" env-default:"0.8"`
	SemanticThreshold   float64 `yaml:"semantic_threshold" env:"MATCH_SEMANTIC_THRESHOLD" env-default:"0.7"`
	ModuleNameThreshold float64 `yaml:"module_name_threshold" env:"MATCH_MODULE_NAME_THRESHOLD" env-default:"0.8"`
}

// EmbeddingConfig points at an OpenAI-compatible embeddings endpoint.
// Semantic module matching is disabled when BaseURL is empty.
type EmbeddingConfig struct {
	BaseURL   string `yaml:"base_url" env:"EMBEDDING_BASE_URL" env-default:""`
	Model     string `yaml:"model" env:"EMBEDDING_MODEL" env-default:"text-embedding-3-small"`
	APIKey    string `yaml:"-" env:"EMBEDDING_API_KEY"` // Secret - not in YAML
	CacheSize int    `yaml:"cache_size" env:"EMBEDDING_CACHE_SIZE" env-default:"4096"`
}

// IsAvailable returns true if an embeddings endpoint is configured.
func (c *EmbeddingConfig) IsAvailable() bool {
	return c.BaseURL != "" && c.Model != ""
}

// NLPConfig selects the language parser.
// "prose" tags tokens and entities with the statistical model; "rules" uses
// lexicon patterns and regex recognizers only.
type NLPConfig struct {
	Engine string `yaml:"engine" env:"NLP_ENGINE" env-default:"prose"`
}

// MCPConfig controls the MCP endpoint.
type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_ENABLED" env-default:"true"`
}

// Load reads configuration from path with environment variable overrides.
// If path is empty, config.yaml is used. A missing file at the default path is not
// an error; configuration then comes from the environment alone.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	case errors.Is(statErr, os.ErrNotExist) && !explicit:
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, statErr)
	}

	cfg.Store.Type = strings.ToLower(strings.TrimSpace(cfg.Store.Type))
	cfg.NLP.Engine = strings.ToLower(strings.TrimSpace(cfg.NLP.Engine))
	if cfg.Store.Port == 0 {
		cfg.Store.Port = defaultStorePort(cfg.Store.Type)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks ranges and enumerations that cleanenv cannot express.
func (c *Config) Validate() error {
	switch c.Store.Type {
	case "postgres", "sqlserver":
		if c.Store.Host == "" {
			return fmt.Errorf("store.host is required for %s", c.Store.Type)
		}
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for sqlite")
		}
	default:
		return fmt.Errorf("unknown store.type %q (want postgres, sqlserver or sqlite)", c.Store.Type)
	}

	switch c.NLP.Engine {
	case "", "prose", "rules":
	default:
		return fmt.Errorf("unknown nlp.engine %q (want prose or rules)", c.NLP.Engine)
	}

	if c.Lexicon.RefreshInterval <= 0 {
		return fmt.Errorf("lexicon.refresh_interval must be positive")
	}
	if c.Lexicon.SampleLimit <= 0 {
		return fmt.Errorf("lexicon.sample_limit must be positive")
	}
	if c.Matching.FuzzyCutoff < 0 || c.Matching.FuzzyCutoff > 100 {
		return fmt.Errorf("matching.fuzzy_cutoff must be within 0-100, got %d", c.Matching.FuzzyCutoff)
	}
	for name, v := range map[string]float64{
		"matching.synonym_threshold":     c.Matching.SynonymThreshold,
		"matching.semantic_threshold":    c.Matching.SemanticThreshold,
		"matching.module_name_threshold": c.Matching.ModuleNameThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within 0-1, got %g", name, v)
		}
	}
	return nil
}

// StoreSettings returns the store configuration as the generic map consumed by
// datasource adapter factories.
func (c *StoreConfig) StoreSettings() map[string]any {
	return map[string]any{
		"host":     c.Host,
		"port":     c.Port,
		"user":     c.User,
		"password": c.Password,
		"database": c.Database,
		"schema":   c.Schema,
		"ssl_mode": c.SSLMode,
		"path":     c.Path,
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}

func defaultStorePort(storeType string) int {
	switch storeType {
	case "postgres":
		return 5432
	case "sqlserver":
		return 1433
	default:
		return 0
	}
}
