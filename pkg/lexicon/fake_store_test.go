package lexicon

import (
	"context"
	"errors"
	"sync"

	"github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource"
)

// fakeStore is an in-memory datasource.SchemaDiscoverer.
type fakeStore struct {
	mu      sync.Mutex
	tables  []datasource.TableMetadata
	columns map[string][]datasource.ColumnMetadata
	values  map[string][]string // "table.column" -> values

	tablesErr error
	valuesErr error
	calls     int
	// strict makes sampling an unknown "table.column" fail like a real store.
	strict bool
}

func (f *fakeStore) DiscoverTables(ctx context.Context) ([]datasource.TableMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.tablesErr != nil {
		return nil, f.tablesErr
	}
	return f.tables, nil
}

func (f *fakeStore) DiscoverColumns(ctx context.Context, schemaName, tableName string) ([]datasource.ColumnMetadata, error) {
	cols, ok := f.columns[tableName]
	if !ok {
		return nil, errors.New("no such table")
	}
	return cols, nil
}

func (f *fakeStore) GetDistinctValues(ctx context.Context, schemaName, tableName, columnName string, limit int) ([]string, error) {
	if f.valuesErr != nil {
		return nil, f.valuesErr
	}
	v, ok := f.values[tableName+"."+columnName]
	if !ok && f.strict {
		return nil, errors.New(`column "` + columnName + `" does not exist`)
	}
	if len(v) > limit {
		v = v[:limit]
	}
	return v, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) setTablesErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tablesErr = err
}

// newFakeStore returns a two-table store shaped like the records fixture.
func newFakeStore() *fakeStore {
	return &fakeStore{
		tables: []datasource.TableMetadata{
			{SchemaName: "public", TableName: "citizens"},
			{SchemaName: "public", TableName: "incidents"},
		},
		columns: map[string][]datasource.ColumnMetadata{
			"citizens": {
				{ColumnName: "id", DataType: "integer", IsPrimaryKey: true},
				{ColumnName: "name", DataType: "text"},
				{ColumnName: "address", DataType: "text"},
				{ColumnName: "phone_number", DataType: "text"},
			},
			"incidents": {
				{ColumnName: "id", DataType: "integer", IsPrimaryKey: true},
				{ColumnName: "incident_type", DataType: "text"},
				{ColumnName: "location", DataType: "text"},
			},
		},
		values: map[string][]string{
			"citizens.name":           {"John Smith", "Maria Garcia", " John Smith ", ""},
			"citizens.address":        {"221 Baker Street, Springfield, IL 62701", "5th Avenue, New York, NY 10001"},
			"citizens.phone_number":   {"555-123-4567"},
			"incidents.incident_type": {"fire", "burglary"},
			"incidents.location":      {"5th Avenue, New York, NY 10001", "Main Street Bridge"},
		},
	}
}
