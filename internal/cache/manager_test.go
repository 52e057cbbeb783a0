package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/folken88/casandalee-discord-bot-sub000/internal/errors"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/index"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/timeline"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	return NewManager(path, index.NewBuilder(nil))
}

func makeEvents(n int) []timeline.Event {
	events := make([]timeline.Event, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, timeline.Event{
			Date:        "4707.01.16",
			Location:    "Kintargo",
			Category:    "battle",
			Description: "Tokala fought the cultists in the sewers",
			ParsedYear:  4707,
		})
	}
	return events
}

func TestRebuild_FirstBuildReportsEverythingNew(t *testing.T) {
	m := newTestManager(t)

	result, err := m.Rebuild(context.Background(), makeEvents(5))
	require.NoError(t, err)

	assert.Len(t, result.NewEvents, 5)
	assert.Equal(t, 5, result.TotalEvents)
	require.NotNil(t, m.Current())
	assert.Len(t, m.Current().Events, 5)
}

// Given a base list of length N and a rebuild with N+k (same prefix),
// NewEvents is exactly the last k elements.
func TestRebuild_AppendOnlyDiff(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	base := makeEvents(10)
	_, err := m.Rebuild(ctx, base)
	require.NoError(t, err)

	grown := append(append([]timeline.Event{}, base...), timeline.Event{
		Date:        "4708.01.01",
		Location:    "Westcrown",
		Description: "a new chapter began",
		ParsedYear:  4708,
	}, timeline.Event{
		Date:        "4708.02.01",
		Location:    "Westcrown",
		Description: "and then another",
		ParsedYear:  4708,
	})

	result, err := m.Rebuild(ctx, grown)
	require.NoError(t, err)

	require.Len(t, result.NewEvents, 2)
	assert.Equal(t, grown[10:], result.NewEvents)
	assert.Equal(t, 12, result.TotalEvents)
}

func TestRebuild_SameListTwiceReportsNothingNew(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	events := makeEvents(500)

	_, err := m.Rebuild(ctx, events)
	require.NoError(t, err)

	result, err := m.Rebuild(ctx, events)
	require.NoError(t, err)

	assert.Empty(t, result.NewEvents)
	assert.Equal(t, 500, result.TotalEvents)
}

func TestRebuild_ShrunkSourceAcceptedWithoutNewEvents(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Rebuild(ctx, makeEvents(10))
	require.NoError(t, err)

	result, err := m.Rebuild(ctx, makeEvents(3))
	require.NoError(t, err)

	assert.Empty(t, result.NewEvents)
	assert.Equal(t, 3, result.TotalEvents)
	assert.Len(t, m.Current().Events, 3)
}

func TestRebuild_PersistAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	builder := index.NewBuilder(nil)
	ctx := context.Background()

	m := NewManager(path, builder)
	events := makeEvents(4)
	_, err := m.Rebuild(ctx, events)
	require.NoError(t, err)

	// A fresh manager over the same file rebuilds identical indices, since
	// indices are derived from the persisted event list, never stored.
	m2 := NewManager(path, builder)
	require.NoError(t, m2.Load(ctx))

	snap := m2.Current()
	require.NotNil(t, snap)
	assert.Equal(t, events, snap.Events)
	assert.Equal(t, m.Current().Indexes.Keyword, snap.Indexes.Keyword)
	assert.Equal(t, m.Current().Indexes.Character, snap.Indexes.Character)
	assert.Equal(t, m.Current().Indexes.Location, snap.Indexes.Location)
	assert.Equal(t, 4, snap.EventCount)
	assert.WithinDuration(t, m.Current().LastBuildTime, snap.LastBuildTime, time.Second)
}

func TestLoad_MissingFileStartsEmpty(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.Load(context.Background()))
	assert.Nil(t, m.Current())
}

func TestLoad_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	m := NewManager(path, index.NewBuilder(nil))
	require.NoError(t, m.Load(context.Background()))
	assert.Nil(t, m.Current())
}

func TestRebuild_ConcurrentCallRejected(t *testing.T) {
	m := newTestManager(t)

	// Hold the rebuild lock to simulate an in-flight rebuild.
	m.rebuildMu.Lock()
	var wg sync.WaitGroup
	wg.Add(1)

	var rejectedErr error
	go func() {
		defer wg.Done()
		_, rejectedErr = m.Rebuild(context.Background(), makeEvents(1))
	}()
	wg.Wait()
	m.rebuildMu.Unlock()

	require.Error(t, rejectedErr)
	assert.Equal(t, apperrors.ErrCodeRebuildInProgress, apperrors.GetCode(rejectedErr))
}

func TestRebuild_FailureLeavesPreviousSnapshotLive(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Rebuild(ctx, makeEvents(3))
	require.NoError(t, err)
	before := m.Current()

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = m.Rebuild(cancelled, makeEvents(9))
	require.Error(t, err)

	assert.Same(t, before, m.Current())
}

func TestIsStale(t *testing.T) {
	m := newTestManager(t)

	// Empty cache is always stale.
	assert.True(t, m.IsStale(time.Hour))

	_, err := m.Rebuild(context.Background(), makeEvents(1))
	require.NoError(t, err)

	assert.False(t, m.IsStale(time.Hour))
	assert.True(t, m.IsStale(time.Nanosecond))
}

func TestStats(t *testing.T) {
	m := newTestManager(t)

	assert.Equal(t, Stats{}, m.Stats())

	_, err := m.Rebuild(context.Background(), makeEvents(2))
	require.NoError(t, err)

	stats := m.Stats()
	assert.Equal(t, 2, stats.TotalEvents)
	assert.Greater(t, stats.KeywordCount, 0)
	assert.Greater(t, stats.CharacterCount, 0)
	assert.Equal(t, 1, stats.LocationCount)
	assert.False(t, stats.LastBuildTime.IsZero())
}
