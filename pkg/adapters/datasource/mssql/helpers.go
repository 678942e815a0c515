package mssql

import (
	"database/sql"
	"strings"
)

// defaultSchema is used when a table reference carries no schema.
const defaultSchema = "dbo"

// quoteName bracket-quotes an identifier the way QUOTENAME() does.
func quoteName(identifier string) string {
	return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
}

// qualifiedTableName returns [schema].[table], defaulting the schema to dbo.
func qualifiedTableName(schema, table string) string {
	if schema == "" {
		schema = defaultSchema
	}
	return quoteName(schema) + "." + quoteName(table)
}

// collectStrings drains single-column rows and closes them.
func collectStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
