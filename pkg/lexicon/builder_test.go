package lexicon

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource/sqlite"
	"github.com/ekaya-inc/ekaya-command/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-command/pkg/fuzzy"
	"github.com/ekaya-inc/ekaya-command/pkg/testhelpers"
)

func TestInferRole(t *testing.T) {
	tests := []struct {
		column string
		want   ColumnRole
	}{
		{"id", RoleID},
		{"citizen_id", RoleID},
		{"governmentid", RoleID},
		{"name", RoleName},
		{"officername", RoleName},
		{"involvedpersons", RoleName},
		{"address", RoleAddress},
		{"location", RoleAddress},
		{"datearrested", RoleDate},
		{"datetime", RoleDate},
		{"shiftstart", RoleDate},
		{"created_at", RoleDate},
		{"crime", RoleGeneric},
		{"age", RoleGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.want, InferRole(tt.column))
		})
	}
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(newFakeStore(), 50, 4, nil)

	modules, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, modules, 2)

	citizens := modules[0]
	assert.Equal(t, "citizens", citizens.Name)
	assert.Equal(t, "public", citizens.Schema)
	assert.Equal(t, []string{"citizen"}, citizens.Aliases)

	require.Len(t, citizens.Columns, 3, "primary key column must be skipped")
	assert.Equal(t, "name", citizens.Columns[0].Name)
	assert.Equal(t, RoleName, citizens.Columns[0].Role)
	assert.Equal(t, []string{"John Smith", "Maria Garcia"}, citizens.Columns[0].Samples)
	assert.Empty(t, citizens.Columns[0].Normalized)

	addr := citizens.Columns[1]
	assert.Equal(t, RoleAddress, addr.Role)
	require.Len(t, addr.Normalized, len(addr.Samples))
	assert.Equal(t, fuzzy.NormalizeAddress(addr.Samples[0]), addr.Normalized[0])
}

func TestBuilder_Build_KeepsStoreColumnCase(t *testing.T) {
	store := &fakeStore{
		strict: true,
		tables: []datasource.TableMetadata{{SchemaName: "public", TableName: "Citizens"}},
		columns: map[string][]datasource.ColumnMetadata{
			"Citizens": {
				{ColumnName: "Id", DataType: "integer", IsPrimaryKey: true},
				{ColumnName: "Name", DataType: "text"},
				{ColumnName: "GovernmentId", DataType: "text"},
				{ColumnName: "name", DataType: "text"},
			},
		},
		values: map[string][]string{
			"Citizens.Name":         {"John Smith"},
			"Citizens.GovernmentId": {"GOV-1001"},
		},
	}

	modules, err := NewBuilder(store, 50, 2, nil).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, modules, 1)

	m := modules[0]
	assert.Equal(t, "citizens", m.Name)
	assert.Equal(t, "Citizens", m.Table)
	require.Len(t, m.Columns, 2, "case-insensitive duplicate column must be skipped")

	assert.Equal(t, "name", m.Columns[0].Name)
	assert.Equal(t, "Name", m.Columns[0].StoreName)
	assert.Equal(t, []string{"John Smith"}, m.Columns[0].Samples)

	assert.Equal(t, "governmentid", m.Columns[1].Name)
	assert.Equal(t, "GovernmentId", m.Columns[1].StoreName)
	assert.Equal(t, []string{"GOV-1001"}, m.Columns[1].Samples)
}

func TestBuilder_Build_StoreErrorsAbort(t *testing.T) {
	tests := []struct {
		name  string
		store func() *fakeStore
	}{
		{"tables", func() *fakeStore {
			s := newFakeStore()
			s.tablesErr = errors.New("connection refused")
			return s
		}},
		{"columns", func() *fakeStore {
			s := newFakeStore()
			delete(s.columns, "incidents")
			return s
		}},
		{"values", func() *fakeStore {
			s := newFakeStore()
			s.valuesErr = errors.New("permission denied")
			return s
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modules, err := NewBuilder(tt.store(), 50, 2, nil).Build(context.Background())
			assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
			assert.Nil(t, modules)
		})
	}
}

func TestBuilder_Build_SkipsDuplicateModuleNames(t *testing.T) {
	store := newFakeStore()
	store.tables = append(store.tables, store.tables[0])
	store.tables[2].SchemaName = "archive"

	modules, err := NewBuilder(store, 50, 1, nil).Build(context.Background())
	require.NoError(t, err)
	assert.Len(t, modules, 2)
}

func TestBuilder_Build_SQLiteFixture(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.NewSchemaDiscoverer(ctx, &sqlite.Config{Path: testhelpers.NewSQLiteRecords(t)}, nil)
	require.NoError(t, err)
	defer store.Close()

	modules, err := NewBuilder(store, 50, 4, nil).Build(ctx)
	require.NoError(t, err)

	names := make([]string, len(modules))
	for i, m := range modules {
		names[i] = m.Name
	}
	assert.Equal(t, testhelpers.FixtureTables, names)

	snap := newSnapshot(modules, nil, ts)
	citizens, ok := snap.Module("citizens")
	require.True(t, ok)
	var columnNames []string
	for _, c := range citizens.Columns {
		columnNames = append(columnNames, c.Name)
	}
	assert.Equal(t, []string{"name", "age", "address", "governmentid", "phone_number"}, columnNames)

	var values []string
	for _, c := range snap.Candidates("citizens", "name") {
		values = append(values, c.Value)
	}
	assert.ElementsMatch(t, []string{"John Smith", "Maria Garcia", "Aisha Khan", "Robert Johnson"}, values)
}

func TestModuleAliases(t *testing.T) {
	assert.Equal(t, []string{"citizen"}, moduleAliases("citizens"))
	assert.Contains(t, moduleAliases("shiftsummaries"), "shiftsummary")
	assert.Equal(t, []string{"reports"}, moduleAliases("report"))
}
