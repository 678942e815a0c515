// Package lexicon builds and publishes the schema-derived vocabulary the command
// engine matches against: the known modules (tables), their columns, sampled
// column values and the compiled priority patterns handed to the parser.
package lexicon

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-command/pkg/nlp"
)

// GeneralModule is the sentinel module used when no table can be identified.
const GeneralModule = "general"

// ColumnRole is the semantic role of a column, inferred from its name.
type ColumnRole string

const (
	RoleName    ColumnRole = "name"
	RoleAddress ColumnRole = "address"
	RoleDate    ColumnRole = "date"
	RoleID      ColumnRole = "id"
	RoleGeneric ColumnRole = "generic"
)

// Column is one sampled column of a module.
type Column struct {
	Name     string     `json:"name"`
	DataType string     `json:"data_type"`
	Role     ColumnRole `json:"role"`
	// StoreName is the column name as the store spells it, used in store queries.
	StoreName string `json:"-"`
	// Samples are distinct raw values as stored.
	Samples []string `json:"-"`
	// Normalized holds NormalizeAddress(sample) for address columns, parallel to Samples.
	Normalized []string `json:"-"`
}

// Module is one table of the records store.
type Module struct {
	Name    string   `json:"name"`
	Schema  string   `json:"schema"`
	Table   string   `json:"table"`
	Aliases []string `json:"aliases,omitempty"`
	Columns []Column `json:"columns"`
}

// Candidate is a stored value the corrector may snap an entity onto.
type Candidate struct {
	Value      string
	Normalized string // canonical address form, empty for non-address columns
	Module     string
	Column     string
}

// Snapshot is an immutable view of the lexicon. Slices reachable from a
// Snapshot must not be modified by callers.
type Snapshot struct {
	ID       string
	BuiltAt  time.Time
	Patterns *nlp.PatternSet

	modules []Module
	byName  map[string]int
	aliases map[string]string
}

// Empty returns a snapshot with no modules and no patterns.
func Empty() *Snapshot {
	return newSnapshot(nil, nil, time.Time{})
}

// NewSnapshot compiles modules into a snapshot stamped with the current time.
func NewSnapshot(modules []Module, opts CompileOptions) *Snapshot {
	return newSnapshot(modules, Compile(modules, opts), time.Now())
}

func newSnapshot(modules []Module, patterns *nlp.PatternSet, builtAt time.Time) *Snapshot {
	s := &Snapshot{
		ID:       uuid.NewString(),
		BuiltAt:  builtAt,
		Patterns: patterns,
		modules:  modules,
		byName:   make(map[string]int, len(modules)),
		aliases:  make(map[string]string),
	}
	if s.Patterns == nil {
		s.Patterns = nlp.NewPatternSet(nil, nil)
	}
	for i, m := range modules {
		s.byName[m.Name] = i
	}
	for _, m := range modules {
		for _, a := range m.Aliases {
			if _, taken := s.byName[a]; taken {
				continue
			}
			if _, taken := s.aliases[a]; !taken {
				s.aliases[a] = m.Name
			}
		}
	}
	return s
}

// ModuleNames returns the known modules in store enumeration order.
func (s *Snapshot) ModuleNames() []string {
	names := make([]string, len(s.modules))
	for i, m := range s.modules {
		names[i] = m.Name
	}
	return names
}

// Modules returns all modules in store enumeration order.
func (s *Snapshot) Modules() []Module {
	return s.modules
}

// Module returns the module with the given name.
func (s *Snapshot) Module(name string) (Module, bool) {
	i, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return Module{}, false
	}
	return s.modules[i], true
}

// ResolveName maps a module name or one of its inflected aliases to the module name.
func (s *Snapshot) ResolveName(word string) (string, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if _, ok := s.byName[word]; ok {
		return word, true
	}
	m, ok := s.aliases[word]
	return m, ok
}

// Candidates returns the stored values of module columns related to label: the
// column name contains the label or the label contains the column name, or the
// column's role equals the label. For GeneralModule every module is searched.
func (s *Snapshot) Candidates(module, label string) []Candidate {
	label = strings.ToLower(label)

	var modules []Module
	if module == GeneralModule {
		modules = s.modules
	} else if m, ok := s.Module(module); ok {
		modules = []Module{m}
	}

	var out []Candidate
	seen := make(map[string]bool)
	for _, m := range modules {
		for _, col := range m.Columns {
			if !columnRelates(col, label) {
				continue
			}
			for i, v := range col.Samples {
				if seen[v] {
					continue
				}
				seen[v] = true
				c := Candidate{Value: v, Module: m.Name, Column: col.Name}
				if i < len(col.Normalized) {
					c.Normalized = col.Normalized[i]
				}
				out = append(out, c)
			}
		}
	}
	return out
}

func columnRelates(col Column, label string) bool {
	if label == "" {
		return false
	}
	if strings.Contains(col.Name, label) || strings.Contains(label, col.Name) {
		return true
	}
	return string(col.Role) == label
}

// Stats summarizes a snapshot.
type Stats struct {
	ID       string         `json:"id"`
	BuiltAt  time.Time      `json:"built_at"`
	Modules  int            `json:"modules"`
	Columns  map[string]int `json:"columns"`
	Samples  int            `json:"samples"`
	Patterns int            `json:"patterns"`
}

// Stats returns counts describing the snapshot.
func (s *Snapshot) Stats() Stats {
	st := Stats{
		ID:       s.ID,
		BuiltAt:  s.BuiltAt,
		Modules:  len(s.modules),
		Columns:  make(map[string]int, len(s.modules)),
		Patterns: s.Patterns.Len(),
	}
	for _, m := range s.modules {
		st.Columns[m.Name] = len(m.Columns)
		for _, c := range m.Columns {
			st.Samples += len(c.Samples)
		}
	}
	return st
}
