package mssql

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-command/pkg/config"
)

// Config contains SQL Server connection options. Only SQL authentication is supported.
type Config struct {
	Host     string
	Port     int
	Database string
	Schema   string // Restricts discovery to a single schema when set

	Username string
	Password string

	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// DefaultConnectionTimeout returns the default connection timeout in seconds.
func DefaultConnectionTimeout() int {
	return 30
}

// FromMap creates a Config from a generic settings map.
// ssl_mode "disable" turns encryption off; any other value keeps it on.
func FromMap(settings map[string]any) (*Config, error) {
	cfg := &Config{
		Host:              datasource.SettingString(settings, "host"),
		Port:              datasource.SettingInt(settings, "port", DefaultPort()),
		Database:          datasource.SettingString(settings, "database"),
		Schema:            datasource.SettingString(settings, "schema"),
		Username:          datasource.SettingString(settings, "user"),
		Password:          datasource.SettingString(settings, "password"),
		Encrypt:           true,
		ConnectionTimeout: datasource.SettingInt(settings, "connection_timeout", DefaultConnectionTimeout()),
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("user is required for SQL authentication")
	}

	switch strings.ToLower(datasource.SettingString(settings, "ssl_mode")) {
	case "disable":
		cfg.Encrypt = false
	case "trust":
		cfg.TrustServerCertificate = true
	}
	if trust, ok := settings["trust_server_certificate"].(bool); ok {
		cfg.TrustServerCertificate = trust
	}

	return cfg, nil
}

// buildConnectionString builds a sqlserver:// URL for SQL authentication.
func buildConnectionString(cfg *Config) string {
	query := url.Values{}
	query.Add("database", cfg.Database)

	if cfg.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}

	if cfg.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}

	if cfg.ConnectionTimeout > 0 {
		query.Add("connection timeout", fmt.Sprintf("%d", cfg.ConnectionTimeout))
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.Username),
		url.QueryEscape(cfg.Password),
		config.ResolveHostForDocker(cfg.Host),
		cfg.Port,
		query.Encode(),
	)
}
