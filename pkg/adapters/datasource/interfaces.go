package datasource

import "context"

// SchemaDiscoverer discovers the live records schema and samples column content.
// It is the only view the command engine has of the records store.
// Each implementation owns its connection and must be closed when done.
type SchemaDiscoverer interface {
	// DiscoverTables returns all user tables (excludes system schemas),
	// ordered by schema then table name.
	DiscoverTables(ctx context.Context) ([]TableMetadata, error)

	// DiscoverColumns returns columns for a specific table in ordinal order.
	DiscoverColumns(ctx context.Context, schemaName, tableName string) ([]ColumnMetadata, error)

	// GetDistinctValues returns up to limit distinct non-null values from a column.
	// Values are returned as strings. Callers must not rely on ordering and should
	// deduplicate after any normalization of their own.
	GetDistinctValues(ctx context.Context, schemaName, tableName, columnName string, limit int) ([]string, error)

	// Close releases the database connection.
	Close() error
}

// MaxSampleLimit is the hard cap on values returned by GetDistinctValues.
const MaxSampleLimit = 1000

// ClampSampleLimit applies the adapter-independent limit rules:
// limit <= 0 falls back to 50, limits above MaxSampleLimit are capped.
func ClampSampleLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > MaxSampleLimit {
		return MaxSampleLimit
	}
	return limit
}
