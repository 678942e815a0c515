package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource"
)

// mainSchema is the schema name SQLite gives the primary database.
const mainSchema = "main"

// quoteIdent double-quotes an identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SchemaDiscoverer implements datasource.SchemaDiscoverer for SQLite.
type SchemaDiscoverer struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ datasource.SchemaDiscoverer = (*SchemaDiscoverer)(nil)

// NewSchemaDiscoverer opens the database at cfg.Path.
// If logger is nil, a no-op logger is used.
func NewSchemaDiscoverer(ctx context.Context, cfg *Config, logger *zap.Logger) (*SchemaDiscoverer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	if cfg.Path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", cfg.Path, err)
	}

	return NewSchemaDiscovererFromDB(db, logger), nil
}

// NewSchemaDiscovererFromDB wraps an already open database. The discoverer takes
// ownership of db and closes it on Close.
func NewSchemaDiscovererFromDB(db *sql.DB, logger *zap.Logger) *SchemaDiscoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaDiscoverer{db: db, logger: logger.Named("sqlite")}
}

// DiscoverTables returns all user tables ordered by name.
func (d *SchemaDiscoverer) DiscoverTables(ctx context.Context) ([]datasource.TableMetadata, error) {
	const query = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []datasource.TableMetadata
	for rows.Next() {
		t := datasource.TableMetadata{SchemaName: mainSchema}
		if err := rows.Scan(&t.TableName); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	d.logger.Debug("Discovered tables", zap.Int("count", len(tables)))
	return tables, nil
}

// DiscoverColumns returns columns for a specific table in declaration order.
// A missing table yields no columns and no error.
func (d *SchemaDiscoverer) DiscoverColumns(ctx context.Context, schemaName, tableName string) ([]datasource.ColumnMetadata, error) {
	if schemaName == "" {
		schemaName = mainSchema
	}

	const query = `
		SELECT cid, name, type, "notnull", pk
		FROM pragma_table_info(?, ?)
		ORDER BY cid
	`

	rows, err := d.db.QueryContext(ctx, query, tableName, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []datasource.ColumnMetadata
	for rows.Next() {
		var (
			cid, notNull, pk int
			col              datasource.ColumnMetadata
		)
		if err := rows.Scan(&cid, &col.ColumnName, &col.DataType, &notNull, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.OrdinalPosition = cid + 1
		col.IsNullable = notNull == 0
		col.IsPrimaryKey = pk > 0
		col.DataType = strings.ToLower(col.DataType)
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	return columns, nil
}

// GetDistinctValues returns up to limit distinct non-null values from a column.
func (d *SchemaDiscoverer) GetDistinctValues(ctx context.Context, schemaName, tableName, columnName string, limit int) ([]string, error) {
	limit = datasource.ClampSampleLimit(limit)
	if schemaName == "" {
		schemaName = mainSchema
	}

	quotedCol := quoteIdent(columnName)
	query := fmt.Sprintf(`
		SELECT DISTINCT CAST(%s AS TEXT)
		FROM %s.%s
		WHERE %s IS NOT NULL
		ORDER BY 1
		LIMIT ?
	`, quotedCol, quoteIdent(schemaName), quoteIdent(tableName), quotedCol)

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get distinct values for %s.%s.%s: %w", schemaName, tableName, columnName, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var val string
		if err := rows.Scan(&val); err != nil {
			return nil, fmt.Errorf("scan distinct value: %w", err)
		}
		values = append(values, val)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct values: %w", err)
	}

	return values, nil
}

// Close releases the database handle.
func (d *SchemaDiscoverer) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
