package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// chdirTemp switches into a fresh temp directory for the duration of the test
// so Load() resolves config.yaml relative to it.
func chdirTemp(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})
	return tmpDir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultPath)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := chdirTemp(t)
	writeConfig(t, dir, `
port: "5000"
env: "test"
store:
  type: "sqlite"
  path: "records.db"
lexicon:
  refresh_interval: 5m
  sample_limit: 20
`)

	t.Setenv("PORT", "6000")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load("", "test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "6000" {
		t.Errorf("expected Port=6000 (from env), got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("expected Env=production (from env), got %s", cfg.Env)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}
	if cfg.Store.Type != "sqlite" || cfg.Store.Path != "records.db" {
		t.Errorf("expected sqlite store from yaml, got %+v", cfg.Store)
	}
	if cfg.Lexicon.RefreshInterval != 5*time.Minute {
		t.Errorf("expected RefreshInterval=5m (from yaml), got %v", cfg.Lexicon.RefreshInterval)
	}
	if cfg.Lexicon.SampleLimit != 20 {
		t.Errorf("expected SampleLimit=20 (from yaml), got %d", cfg.Lexicon.SampleLimit)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := chdirTemp(t)
	writeConfig(t, dir, `
store:
  type: "postgres"
  host: "db.example.com"
`)

	cfg, err := Load("", "dev")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Lexicon.RefreshInterval != 10*time.Minute {
		t.Errorf("expected default RefreshInterval=10m, got %v", cfg.Lexicon.RefreshInterval)
	}
	if cfg.Lexicon.SampleLimit != 50 {
		t.Errorf("expected default SampleLimit=50, got %d", cfg.Lexicon.SampleLimit)
	}
	if cfg.Matching.FuzzyCutoff != 60 {
		t.Errorf("expected default FuzzyCutoff=60, got %d", cfg.Matching.FuzzyCutoff)
	}
	if cfg.Matching.SynonymThreshold != 0.8 {
		t.Errorf("expected default SynonymThreshold=0.8, got %g", cfg.Matching.SynonymThreshold)
	}
	if cfg.Matching.SemanticThreshold != 0.7 {
		t.Errorf("expected default SemanticThreshold=0.7, got %g", cfg.Matching.SemanticThreshold)
	}
	if cfg.Store.Port != 5432 {
		t.Errorf("expected postgres default port 5432, got %d", cfg.Store.Port)
	}
	if cfg.NLP.Engine != "prose" {
		t.Errorf("expected default NLP engine prose, got %q", cfg.NLP.Engine)
	}
	if cfg.Embedding.IsAvailable() {
		t.Error("expected embeddings to be disabled without base_url")
	}
}

func TestLoad_MissingDefaultFileUsesEnvironment(t *testing.T) {
	chdirTemp(t)

	t.Setenv("STORE_TYPE", "sqlserver")
	t.Setenv("STORE_HOST", "mssql.example.com")

	cfg, err := Load("", "dev")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Store.Type != "sqlserver" {
		t.Errorf("expected Store.Type=sqlserver, got %s", cfg.Store.Type)
	}
	if cfg.Store.Port != 1433 {
		t.Errorf("expected sqlserver default port 1433, got %d", cfg.Store.Port)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := chdirTemp(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"), "dev")
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_SecretsOnlyFromEnv(t *testing.T) {
	dir := chdirTemp(t)
	writeConfig(t, dir, `
store:
  type: "postgres"
  host: "db.example.com"
  password: "from-yaml"
`)
	t.Setenv("STORE_PASSWORD", "from-env")

	cfg, err := Load("", "dev")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Store.Password != "from-env" {
		t.Errorf("expected password from env, got %q", cfg.Store.Password)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:    StoreConfig{Type: "sqlite", Path: "x.db"},
			Lexicon:  LexiconConfig{RefreshInterval: time.Minute, SampleLimit: 50},
			Matching: MatchingConfig{FuzzyCutoff: 60, SynonymThreshold: 0.8, SemanticThreshold: 0.7, ModuleNameThreshold: 0.8},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown store", func(c *Config) { c.Store.Type = "oracle" }, true},
		{"sqlite without path", func(c *Config) { c.Store.Path = "" }, true},
		{"postgres without host", func(c *Config) { c.Store.Type = "postgres" }, true},
		{"cutoff above 100", func(c *Config) { c.Matching.FuzzyCutoff = 101 }, true},
		{"negative threshold", func(c *Config) { c.Matching.SemanticThreshold = -0.1 }, true},
		{"zero interval", func(c *Config) { c.Lexicon.RefreshInterval = 0 }, true},
		{"zero sample limit", func(c *Config) { c.Lexicon.SampleLimit = 0 }, true},
		{"rules engine", func(c *Config) { c.NLP.Engine = "rules" }, false},
		{"unknown engine", func(c *Config) { c.NLP.Engine = "spacy" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
