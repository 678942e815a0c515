package testhelpers

import (
	"context"
	"database/sql"
	"embed"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite" // SQLite driver for fixture databases
)

//go:embed fixtures/*.sql
var fixtureFS embed.FS

// FixtureTables lists the tables created by the records fixture, in name order.
var FixtureTables = []string{"citizens", "criminals", "incidents", "reports", "shiftsummaries"}

// RecordsSQL returns the DDL and seed data of the records fixture.
func RecordsSQL() string {
	b, err := fixtureFS.ReadFile("fixtures/000001_records.up.sql")
	if err != nil {
		panic("records fixture missing from embed: " + err.Error())
	}
	return string(b)
}

// NewSQLiteRecords writes the records fixture to a fresh SQLite file under
// t.TempDir() and returns its path.
func NewSQLiteRecords(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "records.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open sqlite fixture: %v", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(context.Background(), RecordsSQL()); err != nil {
		t.Fatalf("failed to seed sqlite fixture: %v", err)
	}

	return path
}
