package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	apperrors "github.com/folken88/casandalee-discord-bot-sub000/internal/errors"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/index"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/timeline"
)

// lockRetryDelay is how often a blocked flock acquisition retries.
const lockRetryDelay = 50 * time.Millisecond

// Manager owns the single live snapshot and its lifecycle.
//
// Single-writer, many-reader: searches read the live snapshot through
// Current() at any time, while at most one rebuild is in flight. A rebuild
// assembles a complete new snapshot before an atomic pointer swap publishes
// it, so readers never observe partially-built indices. The external
// scheduler is the only caller of Rebuild; the manager has no timer of
// its own.
type Manager struct {
	path    string
	builder *index.Builder
	flk     *flock.Flock

	live atomic.Pointer[Snapshot]

	rebuildMu sync.Mutex
}

// NewManager creates a manager persisting snapshots at path. The manager
// starts empty; call Load to restore a previously persisted snapshot.
func NewManager(path string, builder *index.Builder) *Manager {
	return &Manager{
		path:    path,
		builder: builder,
		flk:     flock.New(path + ".lock"),
	}
}

// Current returns the live snapshot, or nil while the cache is empty.
// The returned snapshot is immutable; readers may hold it across a swap.
func (m *Manager) Current() *Snapshot {
	return m.live.Load()
}

// Load restores the persisted snapshot from disk. Indices are rebuilt from
// the persisted event list, never deserialized. A missing or corrupt file
// leaves the cache empty rather than failing: the query path degrades to
// "no data", it never crashes.
func (m *Manager) Load(ctx context.Context) error {
	locked, err := m.flk.TryRLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return apperrors.New(apperrors.ErrCodeSnapshotWrite, "cannot lock snapshot file", err)
	}
	data, readErr := os.ReadFile(m.path)
	_ = m.flk.Unlock()

	if readErr != nil {
		if os.IsNotExist(readErr) {
			slog.Info("snapshot_missing", slog.String("path", m.path))
			return nil
		}
		slog.Warn("snapshot_unreadable",
			slog.String("path", m.path),
			slog.String("error", readErr.Error()))
		return nil
	}

	var persisted persistedSnapshot
	if err := json.Unmarshal(data, &persisted); err != nil {
		slog.Warn("snapshot_corrupt",
			slog.String("path", m.path),
			slog.String("error", err.Error()))
		return nil
	}

	indexes, err := m.builder.Build(ctx, persisted.Events)
	if err != nil {
		return apperrors.New(apperrors.ErrCodeRebuildFailed, "index rebuild on load failed", err)
	}

	m.live.Store(&Snapshot{
		Events:        persisted.Events,
		Indexes:       indexes,
		LastBuildTime: persisted.LastBuildTime,
		EventCount:    persisted.EventCount,
	})

	slog.Info("snapshot_loaded",
		slog.String("path", m.path),
		slog.Int("events", len(persisted.Events)))
	return nil
}

// Rebuild builds a fresh snapshot from the supplied event list, swaps it
// live, persists it, and reports which events are new relative to the
// previous snapshot. The source is append-only, so the new events are
// exactly the suffix past the previous event count.
//
// At most one rebuild may be in flight; concurrent calls fail with
// ErrCodeRebuildInProgress. A failed rebuild leaves the previous snapshot
// live.
func (m *Manager) Rebuild(ctx context.Context, events []timeline.Event) (*RebuildResult, error) {
	if !m.rebuildMu.TryLock() {
		return nil, apperrors.New(apperrors.ErrCodeRebuildInProgress,
			"a rebuild is already in flight", nil)
	}
	defer m.rebuildMu.Unlock()

	start := time.Now()
	indexes, err := m.builder.Build(ctx, events)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeRebuildFailed, "index build failed", err)
	}

	prevCount := 0
	if prev := m.live.Load(); prev != nil {
		prevCount = prev.EventCount
	}

	var newEvents []timeline.Event
	switch {
	case len(events) > prevCount:
		newEvents = events[prevCount:]
	case len(events) < prevCount:
		// The source is contractually append-only; a shrink means it was
		// rewritten. Accept the new list wholesale and report nothing new.
		slog.Warn("event_source_shrank",
			slog.Int("previous", prevCount),
			slog.Int("current", len(events)))
	}

	snap := &Snapshot{
		Events:        events,
		Indexes:       indexes,
		LastBuildTime: time.Now().UTC(),
		EventCount:    len(events),
	}
	m.live.Store(snap)

	// Persistence failure degrades to in-memory-only operation: the fresh
	// snapshot stays live and the next rebuild retries the write.
	if err := m.persist(ctx, snap); err != nil {
		slog.Warn("snapshot_persist_failed",
			slog.String("path", m.path),
			slog.String("error", err.Error()))
	}

	slog.Info("rebuild_complete",
		slog.Int("total_events", len(events)),
		slog.Int("new_events", len(newEvents)),
		slog.Duration("took", time.Since(start)))

	return &RebuildResult{NewEvents: newEvents, TotalEvents: len(events)}, nil
}

// persist writes the snapshot to disk under an exclusive file lock.
// The write goes to a temp file first and renames into place, so a crash
// mid-write never corrupts the previous snapshot.
func (m *Manager) persist(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(persistedSnapshot{
		Events:        snap.Events,
		LastBuildTime: snap.LastBuildTime,
		EventCount:    snap.EventCount,
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSnapshotWrite, err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSnapshotWrite, err)
	}

	locked, err := m.flk.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return apperrors.New(apperrors.ErrCodeSnapshotWrite, "cannot lock snapshot file", err)
	}
	defer func() { _ = m.flk.Unlock() }()

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSnapshotWrite, err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSnapshotWrite, err)
	}
	return nil
}

// IsStale reports whether the live snapshot is older than threshold.
// An empty cache is always stale. The manager never schedules itself; the
// caller owns the cadence.
func (m *Manager) IsStale(threshold time.Duration) bool {
	snap := m.live.Load()
	if snap == nil {
		return true
	}
	return time.Since(snap.LastBuildTime) > threshold
}

// Stats summarizes the live snapshot. An empty cache reports zeros.
func (m *Manager) Stats() Stats {
	snap := m.live.Load()
	if snap == nil {
		return Stats{}
	}
	return Stats{
		TotalEvents:    len(snap.Events),
		KeywordCount:   len(snap.Indexes.Keyword),
		CharacterCount: len(snap.Indexes.Character),
		LocationCount:  len(snap.Indexes.Location),
		LastBuildTime:  snap.LastBuildTime,
	}
}
