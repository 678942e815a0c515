package lexicon

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-command/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-command/pkg/logging"
)

// Source produces the modules of a new snapshot. *Builder is the production Source.
type Source interface {
	Build(ctx context.Context) ([]Module, error)
}

// Observer receives refresh outcomes, typically for metrics.
type Observer interface {
	RefreshSucceeded(duration time.Duration, stats Stats)
	RefreshFailed(duration time.Duration)
}

// Status describes the refresh history of a Cache.
type Status struct {
	SnapshotID  string    `json:"snapshot_id"`
	BuiltAt     time.Time `json:"built_at"`
	Modules     int       `json:"modules"`
	Patterns    int       `json:"patterns"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastFailure time.Time `json:"last_failure,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Refreshes   int64     `json:"refreshes"`
	Failures    int64     `json:"failures"`
}

// Cache publishes the current Snapshot. Readers call Current and never block;
// Refresh builds a replacement off to the side and swaps it in atomically.
type Cache struct {
	source   Source
	opts     CompileOptions
	observer Observer
	logger   *zap.Logger

	current   atomic.Pointer[Snapshot]
	refreshMu sync.Mutex // serializes refreshes, never held by readers

	hooksMu sync.RWMutex
	hooks   []func(*Snapshot)

	statusMu sync.RWMutex
	status   Status
}

// NewCache creates a cache holding an empty snapshot until the first Refresh.
// observer may be nil.
func NewCache(source Source, opts CompileOptions, observer Observer, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		source:   source,
		opts:     opts,
		observer: observer,
		logger:   logger.Named("lexicon"),
	}
	empty := Empty()
	c.current.Store(empty)
	c.status.SnapshotID = empty.ID
	return c
}

// Current returns the published snapshot. It is never nil.
func (c *Cache) Current() *Snapshot {
	return c.current.Load()
}

// OnPublish registers fn to run after each successful swap, in registration order.
func (c *Cache) OnPublish(fn func(*Snapshot)) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Refresh rebuilds the lexicon from the store and publishes it. On failure the
// previous snapshot stays published and the error wraps apperrors.ErrRefreshFailed.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	start := time.Now()
	modules, err := c.source.Build(ctx)
	elapsed := time.Since(start)

	if err != nil {
		c.statusMu.Lock()
		c.status.LastFailure = time.Now()
		c.status.LastError = logging.SanitizeError(err)
		c.status.Failures++
		c.statusMu.Unlock()

		if c.observer != nil {
			c.observer.RefreshFailed(elapsed)
		}
		c.logger.Error("Lexicon refresh failed; keeping previous snapshot",
			zap.String("snapshot_id", c.Current().ID),
			zap.Duration("elapsed", elapsed),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, err)
	}

	snap := NewSnapshot(modules, c.opts)
	c.current.Store(snap)

	stats := snap.Stats()
	c.statusMu.Lock()
	c.status.SnapshotID = snap.ID
	c.status.BuiltAt = snap.BuiltAt
	c.status.Modules = stats.Modules
	c.status.Patterns = stats.Patterns
	c.status.LastSuccess = snap.BuiltAt
	c.status.Refreshes++
	c.statusMu.Unlock()

	c.hooksMu.RLock()
	hooks := append(([]func(*Snapshot))(nil), c.hooks...)
	c.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(snap)
	}

	if c.observer != nil {
		c.observer.RefreshSucceeded(elapsed, stats)
	}
	c.logger.Info("Lexicon snapshot published",
		zap.String("snapshot_id", snap.ID),
		zap.Int("modules", stats.Modules),
		zap.Int("samples", stats.Samples),
		zap.Int("patterns", stats.Patterns),
		zap.Duration("elapsed", elapsed))
	return snap, nil
}

// Status returns a copy of the refresh status.
func (c *Cache) Status() Status {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

// RunScheduler starts a background loop that refreshes the lexicon every interval.
// The first refresh happens one interval after the call; run Refresh beforehand
// for a startup snapshot. Failures are logged and retried on the next tick.
// Cancel the context to stop the scheduler.
func (c *Cache) RunScheduler(ctx context.Context, interval time.Duration) {
	go func() {
		c.logger.Info("Lexicon refresh scheduler started", zap.Duration("interval", interval))

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Lexicon refresh scheduler stopped")
				return
			case <-ticker.C:
				_, _ = c.Refresh(ctx)
			}
		}
	}()
}
