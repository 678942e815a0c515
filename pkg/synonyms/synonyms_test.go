package synonyms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-command/pkg/apperrors"
)

func TestDefault(t *testing.T) {
	m := Default()

	tests := map[string]string{
		"fire":           "incidents",
		"Suspect":        "criminals",
		"citizens":       "citizens",
		"shift":          "shiftsummaries",
		" complaint ":    "reports",
		"shiftsummaries": "shiftsummaries",
	}
	for alias, want := range tests {
		got, ok := m.Lookup(alias)
		assert.True(t, ok, alias)
		assert.Equal(t, want, got, alias)
	}

	_, ok := m.Lookup("spaceship")
	assert.False(t, ok)
}

func TestParse_CollisionKeepsLexicographicallyFirst(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	m, err := Parse([]byte(`
reports: [event]
incidents: [event, fire]
`), zap.New(core))
	require.NoError(t, err)

	got, _ := m.Lookup("event")
	assert.Equal(t, "incidents", got)
	assert.Equal(t, 1, logs.FilterMessage("Synonym alias claimed by two modules; keeping first").Len())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("incidents: fire: [oops"), nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSynonymFile)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Vehicles: [car, cars, truck]\n"), 0644))

	m, err := Load(path, nil)
	require.NoError(t, err)

	got, ok := m.Lookup("truck")
	assert.True(t, ok)
	assert.Equal(t, "vehicles", got)
	assert.Equal(t, []string{"car", "cars", "truck", "vehicles"}, m.Aliases())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	def, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default().Len(), def.Len())
}

func TestRestrict(t *testing.T) {
	m := Default().Restrict([]string{"incidents", "citizens"})

	_, ok := m.Lookup("fire")
	assert.True(t, ok)
	_, ok = m.Lookup("suspect")
	assert.False(t, ok, "criminals is not a known module")

	for _, alias := range m.Aliases() {
		c, _ := m.Lookup(alias)
		assert.Contains(t, []string{"incidents", "citizens"}, c)
	}
}

func TestEmpty(t *testing.T) {
	assert.Equal(t, 0, Empty().Len())
	_, ok := Empty().Lookup("fire")
	assert.False(t, ok)
}
