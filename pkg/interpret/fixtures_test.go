package interpret

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource/sqlite"
	"github.com/ekaya-inc/ekaya-command/pkg/lexicon"
	"github.com/ekaya-inc/ekaya-command/pkg/synonyms"
	"github.com/ekaya-inc/ekaya-command/pkg/testhelpers"
)

// recordsSnapshot builds a snapshot from the SQLite records fixture.
func recordsSnapshot(t *testing.T) *lexicon.Snapshot {
	t.Helper()
	return recordsCache(t).Current()
}

// recordsCache returns a cache refreshed once from the SQLite records fixture.
func recordsCache(t *testing.T) *lexicon.Cache {
	t.Helper()

	ctx := context.Background()
	store, err := sqlite.NewSchemaDiscoverer(ctx, &sqlite.Config{Path: testhelpers.NewSQLiteRecords(t)}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cache := lexicon.NewCache(
		lexicon.NewBuilder(store, 50, 2, nil),
		lexicon.CompileOptions{Synonyms: synonyms.Default(), Vocabulary: Vocabulary()},
		nil, nil,
	)
	_, err = cache.Refresh(ctx)
	require.NoError(t, err)
	return cache
}

// namesSnapshot is a small in-memory snapshot for unit tests.
func namesSnapshot() *lexicon.Snapshot {
	return lexicon.NewSnapshot([]lexicon.Module{
		{
			Name: "citizens", Table: "citizens", Aliases: []string{"citizen"},
			Columns: []lexicon.Column{
				{Name: "name", Role: lexicon.RoleName,
					Samples: []string{"John Smith", "Maria Garcia", "Aisha Khan", "Robert Johnson"}},
				{Name: "address", Role: lexicon.RoleAddress,
					Samples: []string{"221 Baker Street, Springfield, IL 62701", "5th Avenue, New York, NY 10001"}},
			},
		},
		{
			Name: "incidents", Table: "incidents", Aliases: []string{"incident"},
			Columns: []lexicon.Column{
				{Name: "incident_type", Samples: []string{"fire", "burglary", "traffic collision"}},
				{Name: "location", Role: lexicon.RoleAddress,
					Samples: []string{"5th Avenue, New York, NY 10001", "Main Street Bridge"}},
			},
		},
	}, lexicon.CompileOptions{})
}
