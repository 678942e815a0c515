package testhelpers

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordsSQL_CreatesEveryFixtureTable(t *testing.T) {
	ddl := RecordsSQL()
	for _, table := range FixtureTables {
		assert.Contains(t, ddl, "CREATE TABLE "+table+" (")
	}
}

func TestNewSQLiteRecords(t *testing.T) {
	path := NewSQLiteRecords(t)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, FixtureTables, names)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM citizens WHERE name = 'John Smith'`).Scan(&count))
	assert.Equal(t, 1, count)
	assert.True(t, strings.HasSuffix(path, "records.db"))
}
