package postgres

import (
	"fmt"
	"net/url"

	"github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-command/pkg/config"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Schema   string // Restricts discovery to a single schema when set
	SSLMode  string // "disable", "require", "verify-ca", "verify-full"
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSSLMode returns the default SSL mode.
func DefaultSSLMode() string {
	return "require"
}

// FromMap creates a Config from a generic settings map.
func FromMap(settings map[string]any) (*Config, error) {
	cfg := &Config{
		Host:     datasource.SettingString(settings, "host"),
		Port:     datasource.SettingInt(settings, "port", DefaultPort()),
		User:     datasource.SettingString(settings, "user"),
		Password: datasource.SettingString(settings, "password"),
		Database: datasource.SettingString(settings, "database"),
		Schema:   datasource.SettingString(settings, "schema"),
		SSLMode:  datasource.SettingString(settings, "ssl_mode"),
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("user is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = DefaultSSLMode()
	}

	return cfg, nil
}

// buildConnectionString builds a PostgreSQL URL with proper escaping.
// User, password and database are URL-escaped so characters such as @, /, # and ?
// cannot break URL parsing. localhost resolves to host.docker.internal inside Docker.
func buildConnectionString(cfg *Config) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode()
	}

	host := config.ResolveHostForDocker(cfg.Host)

	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		host,
		cfg.Port,
		url.QueryEscape(cfg.Database),
		url.QueryEscape(sslMode),
	)
}
