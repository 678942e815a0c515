package sqlite

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Config contains SQLite connection options.
type Config struct {
	Path string
}

// FromMap creates a Config from a generic settings map.
func FromMap(settings map[string]any) (*Config, error) {
	cfg := &Config{Path: datasource.SettingString(settings, "path")}
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return cfg, nil
}

// dsn opens the file read-only unless it is an in-memory database.
func (c *Config) dsn() string {
	if c.Path == MemoryPath {
		return c.Path
	}
	return "file:" + c.Path + "?mode=ro&_pragma=busy_timeout(5000)"
}
