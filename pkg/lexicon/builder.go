package lexicon

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-command/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-command/pkg/fuzzy"
)

// InferRole classifies a column by its name.
func InferRole(column string) ColumnRole {
	c := strings.ToLower(column)
	switch {
	case c == "id" || strings.HasSuffix(c, "_id") || (len(c) > 2 && strings.HasSuffix(c, "id")):
		return RoleID
	case strings.Contains(c, "name") || strings.Contains(c, "person"):
		return RoleName
	case strings.Contains(c, "address") || strings.Contains(c, "location") ||
		strings.Contains(c, "street") || strings.Contains(c, "city"):
		return RoleAddress
	case strings.Contains(c, "date") || strings.Contains(c, "time") ||
		strings.HasSuffix(c, "_at") || strings.HasPrefix(c, "shift"):
		return RoleDate
	default:
		return RoleGeneric
	}
}

// Builder reads modules, columns and sample values from the records store.
type Builder struct {
	store       datasource.SchemaDiscoverer
	sampleLimit int
	concurrency int
	logger      *zap.Logger
}

// NewBuilder creates a Builder. sampleLimit is clamped by the adapter rules;
// concurrency below 1 means sequential sampling.
func NewBuilder(store datasource.SchemaDiscoverer, sampleLimit, concurrency int, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Builder{
		store:       store,
		sampleLimit: datasource.ClampSampleLimit(sampleLimit),
		concurrency: concurrency,
		logger:      logger.Named("lexicon-builder"),
	}
}

// Build lists every table, its columns and up to sampleLimit distinct values per
// non-key column. Any store error aborts the whole build and wraps
// apperrors.ErrStoreUnavailable.
func (b *Builder) Build(ctx context.Context) ([]Module, error) {
	tables, err := b.store.DiscoverTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list modules: %w", apperrors.ErrStoreUnavailable, err)
	}

	modules := make([]Module, 0, len(tables))
	seen := make(map[string]bool, len(tables))
	for _, t := range tables {
		name := strings.ToLower(t.TableName)
		if seen[name] {
			b.logger.Warn("Skipping table with duplicate module name",
				zap.String("schema", t.SchemaName),
				zap.String("table", t.TableName))
			continue
		}
		seen[name] = true

		cols, err := b.store.DiscoverColumns(ctx, t.SchemaName, t.TableName)
		if err != nil {
			return nil, fmt.Errorf("%w: list columns of %s: %w", apperrors.ErrStoreUnavailable, t.TableName, err)
		}

		m := Module{
			Name:    name,
			Schema:  t.SchemaName,
			Table:   t.TableName,
			Aliases: moduleAliases(name),
		}
		colSeen := make(map[string]bool, len(cols))
		for _, c := range cols {
			if c.IsPrimaryKey {
				continue
			}
			colName := strings.ToLower(c.ColumnName)
			if colSeen[colName] {
				b.logger.Warn("Skipping column with duplicate name",
					zap.String("table", t.TableName),
					zap.String("column", c.ColumnName))
				continue
			}
			colSeen[colName] = true
			m.Columns = append(m.Columns, Column{
				Name:      colName,
				DataType:  c.DataType,
				Role:      InferRole(c.ColumnName),
				StoreName: c.ColumnName,
			})
		}
		modules = append(modules, m)
	}

	if err := b.sample(ctx, modules); err != nil {
		return nil, err
	}

	b.logger.Debug("Lexicon built", zap.Int("modules", len(modules)))
	return modules, nil
}

// sample fills Samples and Normalized for every column with bounded concurrency.
// Each goroutine writes only its own column, so no locking is needed.
func (b *Builder) sample(ctx context.Context, modules []Module) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for mi := range modules {
		for ci := range modules[mi].Columns {
			m := &modules[mi]
			col := &m.Columns[ci]
			g.Go(func() error {
				values, err := b.store.GetDistinctValues(gctx, m.Schema, m.Table, col.StoreName, b.sampleLimit)
				if err != nil {
					return fmt.Errorf("%w: sample %s.%s: %w", apperrors.ErrStoreUnavailable, m.Name, col.Name, err)
				}
				col.Samples = dedupe(values)
				if col.Role == RoleAddress {
					col.Normalized = make([]string, len(col.Samples))
					for i, v := range col.Samples {
						col.Normalized[i] = fuzzy.NormalizeAddress(v)
					}
				}
				return nil
			})
		}
	}
	return g.Wait()
}

// dedupe trims values and drops blanks and exact duplicates, keeping first-seen order.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// moduleAliases returns the singular and plural forms of name that differ from it.
func moduleAliases(name string) []string {
	set := map[string]bool{}
	for _, a := range []string{inflection.Singular(name), inflection.Plural(name)} {
		a = strings.ToLower(a)
		if a != "" && a != name {
			set[a] = true
		}
	}
	aliases := make([]string, 0, len(set))
	for a := range set {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	return aliases
}
