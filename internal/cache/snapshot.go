// Package cache owns the authoritative in-memory snapshot of the timeline:
// the event list plus its derived indices. It persists the event list to
// disk, detects newly-appended events across rebuilds, and swaps snapshots
// atomically so readers never see a half-built index.
package cache

import (
	"time"

	"github.com/folken88/casandalee-discord-bot-sub000/internal/index"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/timeline"
)

// Snapshot is the atomic unit of cache state. A snapshot is immutable once
// published; rebuilds construct a new one and swap it in whole.
type Snapshot struct {
	// Events is the full ordered event list this snapshot was built from.
	Events []timeline.Event

	// Indexes are derived from Events and never persisted.
	Indexes *index.Indexes

	// LastBuildTime is when this snapshot was built.
	LastBuildTime time.Time

	// EventCount is len(Events) recorded at build time. The next rebuild
	// diffs against it to find the newly appended suffix.
	EventCount int
}

// persistedSnapshot is the on-disk form. Indices are always rebuilt from the
// persisted event list on load, which doubles as the determinism check.
type persistedSnapshot struct {
	Events        []timeline.Event `json:"events"`
	LastBuildTime time.Time        `json:"last_build_time"`
	EventCount    int              `json:"previous_event_count"`
}

// RebuildResult reports what a rebuild produced.
type RebuildResult struct {
	// NewEvents is the suffix of the event list appended since the previous
	// snapshot. Callers use it to announce fresh events.
	NewEvents []timeline.Event

	// TotalEvents is the event count of the new live snapshot.
	TotalEvents int
}

// Stats summarizes the live snapshot for the maintenance API.
type Stats struct {
	TotalEvents    int       `json:"total_events"`
	KeywordCount   int       `json:"keyword_count"`
	CharacterCount int       `json:"character_count"`
	LocationCount  int       `json:"location_count"`
	LastBuildTime  time.Time `json:"last_build_time"`
}
