package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource"
)

// SchemaDiscoverer reads tables, columns and sample values from PostgreSQL.
type SchemaDiscoverer struct {
	pool   *pgxpool.Pool
	schema string
	logger *zap.Logger
}

var _ datasource.SchemaDiscoverer = (*SchemaDiscoverer)(nil)

// NewSchemaDiscoverer opens a pool against the records database.
// If logger is nil, a no-op logger is used.
func NewSchemaDiscoverer(ctx context.Context, cfg *Config, logger *zap.Logger) (*SchemaDiscoverer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &SchemaDiscoverer{
		pool:   pool,
		schema: cfg.Schema,
		logger: logger.Named("postgres"),
	}, nil
}

// Close releases the pool.
func (d *SchemaDiscoverer) Close() error {
	if d.pool != nil {
		d.pool.Close()
	}
	return nil
}

const tablesQuery = `
	SELECT n.nspname, c.relname
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE c.relkind IN ('r', 'p')
	  AND NOT c.relispartition
	  AND n.nspname NOT IN ('pg_catalog', 'information_schema')
	  AND n.nspname NOT LIKE 'pg\_%'
	  AND ($1::text = '' OR n.nspname = $1::text)
	ORDER BY n.nspname, c.relname
`

// DiscoverTables lists ordinary and partitioned tables outside the system
// schemas, restricted to the configured schema when one is set.
func (d *SchemaDiscoverer) DiscoverTables(ctx context.Context) ([]datasource.TableMetadata, error) {
	rows, err := d.pool.Query(ctx, tablesQuery, d.schema)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	tables, err := pgx.CollectRows(rows, pgx.RowToStructByPos[datasource.TableMetadata])
	if err != nil {
		return nil, fmt.Errorf("collect tables: %w", err)
	}

	d.logger.Debug("Discovered tables", zap.Int("count", len(tables)))
	return tables, nil
}

const columnsQuery = `
	SELECT
		a.attname,
		format_type(a.atttypid, NULL),
		NOT a.attnotnull,
		COALESCE(a.attnum = ANY(pk.conkey), false),
		a.attnum::int
	FROM pg_attribute a
	JOIN pg_class c ON c.oid = a.attrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	LEFT JOIN pg_constraint pk ON pk.conrelid = c.oid AND pk.contype = 'p'
	WHERE n.nspname = $1
	  AND c.relname = $2
	  AND a.attnum > 0
	  AND NOT a.attisdropped
	ORDER BY a.attnum
`

// DiscoverColumns returns the live columns of a table in declaration order.
// Primary key membership comes from the table's primary key constraint.
func (d *SchemaDiscoverer) DiscoverColumns(ctx context.Context, schemaName, tableName string) ([]datasource.ColumnMetadata, error) {
	rows, err := d.pool.Query(ctx, columnsQuery, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s.%s: %w", schemaName, tableName, err)
	}
	columns, err := pgx.CollectRows(rows, pgx.RowToStructByPos[datasource.ColumnMetadata])
	if err != nil {
		return nil, fmt.Errorf("collect columns of %s.%s: %w", schemaName, tableName, err)
	}
	return columns, nil
}

// GetDistinctValues returns up to limit distinct non-null values of a column,
// rendered as text.
func (d *SchemaDiscoverer) GetDistinctValues(ctx context.Context, schemaName, tableName, columnName string, limit int) ([]string, error) {
	col := pgx.Identifier{columnName}.Sanitize()
	query := fmt.Sprintf(
		`SELECT DISTINCT %s::text FROM %s WHERE %s IS NOT NULL ORDER BY 1 LIMIT $1`,
		col, qualifiedTableName(schemaName, tableName), col)

	rows, err := d.pool.Query(ctx, query, datasource.ClampSampleLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("sample %s.%s.%s: %w", schemaName, tableName, columnName, err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect samples of %s.%s.%s: %w", schemaName, tableName, columnName, err)
	}
	return values, nil
}

// qualifiedTableName quotes table, and schema when given, as pgx identifiers.
func qualifiedTableName(schemaName, tableName string) string {
	if schemaName == "" {
		return pgx.Identifier{tableName}.Sanitize()
	}
	return pgx.Identifier{schemaName, tableName}.Sanitize()
}
