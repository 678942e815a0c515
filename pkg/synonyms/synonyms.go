// Package synonyms loads the alias table that maps words operators use onto
// canonical module names. A Map is immutable once built.
package synonyms

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-command/pkg/apperrors"
)

//go:embed default.yaml
var defaultYAML []byte

// Map resolves aliases (lower-case) to canonical module names.
type Map struct {
	aliases map[string]string
	keys    []string
}

// Empty returns a map with no aliases.
func Empty() *Map {
	return &Map{aliases: map[string]string{}}
}

// Default returns the built-in table for the records domain.
func Default() *Map {
	m, err := Parse(defaultYAML, nil)
	if err != nil {
		panic("built-in synonym table is invalid: " + err.Error())
	}
	return m
}

// Load reads a YAML synonym file. An empty path yields Default().
func Load(path string, logger *zap.Logger) (*Map, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonym file %s: %w", path, err)
	}
	return Parse(data, logger)
}

// Parse builds a Map from YAML of the form `canonical: [alias, ...]`.
// Every canonical name is also an alias of itself. When two canonical names
// claim the same alias, the lexicographically first one keeps it.
func Parse(data []byte, logger *zap.Logger) (*Map, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var table map[string][]string
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidSynonymFile, err)
	}

	canonicals := make([]string, 0, len(table))
	for c := range table {
		canonicals = append(canonicals, c)
	}
	sort.Strings(canonicals)

	m := &Map{aliases: make(map[string]string)}
	for _, raw := range canonicals {
		canonical := normalize(raw)
		if canonical == "" {
			return nil, fmt.Errorf("%w: empty canonical module name", apperrors.ErrInvalidSynonymFile)
		}
		for _, alias := range append([]string{raw}, table[raw]...) {
			alias = normalize(alias)
			if alias == "" {
				continue
			}
			if existing, ok := m.aliases[alias]; ok && existing != canonical {
				logger.Warn("Synonym alias claimed by two modules; keeping first",
					zap.String("alias", alias),
					zap.String("kept", existing),
					zap.String("ignored", canonical))
				continue
			}
			m.aliases[alias] = canonical
		}
	}

	m.keys = make([]string, 0, len(m.aliases))
	for k := range m.aliases {
		m.keys = append(m.keys, k)
	}
	sort.Strings(m.keys)
	return m, nil
}

// Lookup returns the canonical module for alias.
func (m *Map) Lookup(alias string) (string, bool) {
	c, ok := m.aliases[normalize(alias)]
	return c, ok
}

// Aliases returns every alias in sorted order.
func (m *Map) Aliases() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of aliases.
func (m *Map) Len() int {
	return len(m.aliases)
}

// Restrict returns a copy holding only aliases whose canonical module is in known.
func (m *Map) Restrict(known []string) *Map {
	keep := make(map[string]bool, len(known))
	for _, k := range known {
		keep[normalize(k)] = true
	}
	out := &Map{aliases: make(map[string]string)}
	for _, alias := range m.keys {
		if c := m.aliases[alias]; keep[c] {
			out.aliases[alias] = c
			out.keys = append(out.keys, alias)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
