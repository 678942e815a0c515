package lexicon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-command/pkg/apperrors"
)

type recordingObserver struct {
	mu        sync.Mutex
	successes []Stats
	failures  int
}

func (r *recordingObserver) RefreshSucceeded(_ time.Duration, stats Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, stats)
}

func (r *recordingObserver) RefreshFailed(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func TestCache_StartsEmpty(t *testing.T) {
	c := NewCache(NewBuilder(newFakeStore(), 10, 1, nil), CompileOptions{}, nil, nil)

	require.NotNil(t, c.Current())
	assert.Empty(t, c.Current().ModuleNames())
	assert.Equal(t, c.Current().ID, c.Status().SnapshotID)
}

func TestCache_RefreshPublishes(t *testing.T) {
	obs := &recordingObserver{}
	c := NewCache(NewBuilder(newFakeStore(), 10, 2, nil), CompileOptions{}, obs, nil)

	var published []string
	c.OnPublish(func(s *Snapshot) { published = append(published, s.ID) })

	before := c.Current()
	snap, err := c.Refresh(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, before.ID, snap.ID)
	assert.Same(t, snap, c.Current())
	assert.Equal(t, []string{"citizens", "incidents"}, snap.ModuleNames())
	assert.Greater(t, snap.Patterns.Len(), 0)
	assert.Equal(t, []string{snap.ID}, published)

	st := c.Status()
	assert.Equal(t, snap.ID, st.SnapshotID)
	assert.Equal(t, 2, st.Modules)
	assert.EqualValues(t, 1, st.Refreshes)
	assert.Zero(t, st.Failures)

	require.Len(t, obs.successes, 1)
	assert.Equal(t, snap.ID, obs.successes[0].ID)
}

func TestCache_FailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := newFakeStore()
	obs := &recordingObserver{}
	c := NewCache(NewBuilder(store, 10, 1, nil), CompileOptions{}, obs, zap.New(core))

	good, err := c.Refresh(context.Background())
	require.NoError(t, err)

	hookCalls := 0
	c.OnPublish(func(*Snapshot) { hookCalls++ })

	store.setTablesErr(errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	snap, err := c.Refresh(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRefreshFailed)
	assert.Nil(t, snap)
	assert.Same(t, good, c.Current())
	assert.Zero(t, hookCalls)

	st := c.Status()
	assert.Equal(t, good.ID, st.SnapshotID)
	assert.EqualValues(t, 1, st.Failures)
	assert.NotEmpty(t, st.LastError)
	assert.False(t, st.LastFailure.IsZero())
	assert.Equal(t, 1, obs.failures)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, good.ID, logs.All()[0].ContextMap()["snapshot_id"])
}

func TestCache_ConcurrentReadsDuringRefresh(t *testing.T) {
	c := NewCache(NewBuilder(newFakeStore(), 10, 2, nil), CompileOptions{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				s := c.Current()
				// A reader sees either the empty snapshot or a complete one.
				n := len(s.ModuleNames())
				if n != 0 && n != 2 {
					t.Errorf("observed partial snapshot with %d modules", n)
					return
				}
			}
		}()
	}

	for i := 0; i < 5; i++ {
		_, err := c.Refresh(context.Background())
		require.NoError(t, err)
	}
	cancel()
	wg.Wait()

	assert.EqualValues(t, 5, c.Status().Refreshes)
}

func TestCache_RunScheduler(t *testing.T) {
	store := newFakeStore()
	c := NewCache(NewBuilder(store, 10, 1, nil), CompileOptions{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.RunScheduler(ctx, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return c.Status().Refreshes >= 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, c.Current().ModuleNames(), 2)
}
