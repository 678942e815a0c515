package datasource

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-command/pkg/apperrors"
)

// NewSchemaDiscoverer opens a discoverer with the adapter registered for storeType.
func NewSchemaDiscoverer(ctx context.Context, storeType string, settings map[string]any, logger *zap.Logger) (SchemaDiscoverer, error) {
	a, ok := lookup(storeType)
	if !ok {
		var available []string
		for _, info := range RegisteredAdapters() {
			available = append(available, info.Type)
		}
		return nil, fmt.Errorf("%w: %q (available: %s)", apperrors.ErrUnsupportedStore, storeType, strings.Join(available, ", "))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return a.Factory(ctx, settings, logger)
}

// SettingString returns the string value of key, or "" when absent.
func SettingString(settings map[string]any, key string) string {
	if v, ok := settings[key].(string); ok {
		return v
	}
	return ""
}

// SettingInt returns the integer value of key, accepting JSON numbers (float64) and ints.
func SettingInt(settings map[string]any, key string, fallback int) int {
	switch v := settings[key].(type) {
	case int:
		if v != 0 {
			return v
		}
	case float64:
		if v != 0 {
			return int(v)
		}
	}
	return fallback
}
