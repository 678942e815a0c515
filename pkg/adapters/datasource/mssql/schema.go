package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource"
)

// SchemaDiscoverer reads tables, columns and sample values from SQL Server.
type SchemaDiscoverer struct {
	db     *sql.DB
	schema string
	logger *zap.Logger
}

var _ datasource.SchemaDiscoverer = (*SchemaDiscoverer)(nil)

// NewSchemaDiscoverer opens a SQL-authenticated connection and verifies it with a ping.
// If logger is nil, a no-op logger is used.
func NewSchemaDiscoverer(ctx context.Context, cfg *Config, logger *zap.Logger) (*SchemaDiscoverer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlserver", buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sql server connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sql server: %w", err)
	}

	return &SchemaDiscoverer{
		db:     db,
		schema: cfg.Schema,
		logger: logger.Named("mssql"),
	}, nil
}

// Close releases the database connection.
func (s *SchemaDiscoverer) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const tablesQuery = `
	SET NOCOUNT ON;
	SELECT SCHEMA_NAME(t.schema_id), t.name
	FROM sys.tables t
	WHERE t.is_ms_shipped = 0
	  AND (@schema = N'' OR SCHEMA_NAME(t.schema_id) = @schema)
	ORDER BY 1, 2
`

// DiscoverTables lists user tables, restricted to the configured schema when one is set.
func (s *SchemaDiscoverer) DiscoverTables(ctx context.Context) ([]datasource.TableMetadata, error) {
	rows, err := s.db.QueryContext(ctx, tablesQuery, sql.Named("schema", s.schema))
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []datasource.TableMetadata
	for rows.Next() {
		var t datasource.TableMetadata
		if err := rows.Scan(&t.SchemaName, &t.TableName); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	s.logger.Debug("Discovered tables", zap.Int("count", len(tables)))
	return tables, nil
}

const columnsQuery = `
	SET NOCOUNT ON;
	SELECT
		c.name,
		LOWER(TYPE_NAME(c.user_type_id)),
		c.is_nullable,
		CAST(CASE WHEN EXISTS (
			SELECT 1
			FROM sys.index_columns ic
			JOIN sys.indexes i ON i.object_id = ic.object_id AND i.index_id = ic.index_id
			WHERE i.is_primary_key = 1
			  AND ic.object_id = c.object_id
			  AND ic.column_id = c.column_id
		) THEN 1 ELSE 0 END AS bit),
		c.column_id
	FROM sys.columns c
	WHERE c.object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	ORDER BY c.column_id
`

// DiscoverColumns returns the columns of a table in declaration order.
func (s *SchemaDiscoverer) DiscoverColumns(ctx context.Context, schemaName, tableName string) ([]datasource.ColumnMetadata, error) {
	if schemaName == "" {
		schemaName = defaultSchema
	}
	rows, err := s.db.QueryContext(ctx, columnsQuery,
		sql.Named("schema", schemaName),
		sql.Named("table", tableName),
	)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s.%s: %w", schemaName, tableName, err)
	}
	defer rows.Close()

	var columns []datasource.ColumnMetadata
	for rows.Next() {
		var c datasource.ColumnMetadata
		if err := rows.Scan(&c.ColumnName, &c.DataType, &c.IsNullable, &c.IsPrimaryKey, &c.OrdinalPosition); err != nil {
			return nil, fmt.Errorf("scan column of %s.%s: %w", schemaName, tableName, err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %s.%s: %w", schemaName, tableName, err)
	}
	return columns, nil
}

// GetDistinctValues returns up to limit distinct non-null values of a column,
// cast to NVARCHAR.
func (s *SchemaDiscoverer) GetDistinctValues(ctx context.Context, schemaName, tableName, columnName string, limit int) ([]string, error) {
	col := quoteName(columnName)
	query := fmt.Sprintf(
		`SET NOCOUNT ON; SELECT DISTINCT TOP (@limit) CAST(%s AS NVARCHAR(MAX)) FROM %s WITH (NOLOCK) WHERE %s IS NOT NULL ORDER BY 1`,
		col, qualifiedTableName(schemaName, tableName), col)

	rows, err := s.db.QueryContext(ctx, query, sql.Named("limit", datasource.ClampSampleLimit(limit)))
	if err != nil {
		return nil, fmt.Errorf("sample %s.%s.%s: %w", schemaName, tableName, columnName, err)
	}
	values, err := collectStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("collect samples of %s.%s.%s: %w", schemaName, tableName, columnName, err)
	}
	return values, nil
}
