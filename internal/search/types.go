// Package search scores timeline events against free-text queries using the
// inverted indices and the name registry. Scoring is a pure function of
// (query, snapshot, registry); all state lives in the cache layer.
package search

import (
	"github.com/folken88/casandalee-discord-bot-sub000/internal/cache"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/timeline"
)

// Scoring weights. A keyword hit is the baseline; character hits outrank it,
// and an exact-phrase hit dominates any bag-of-words accumulation.
const (
	// KeywordWeight is added per query token found in the keyword index.
	KeywordWeight = 10

	// CharacterWeight is added per query token found in the character index.
	CharacterWeight = 20

	// LocationWeight is added per query token contained in an indexed
	// location string.
	LocationWeight = 15

	// RegistryBoost is added to events in the character index of an
	// identity the whole query resolved to.
	RegistryBoost = 30

	// PhraseBonus is added when the whole query (or its "of"-joined form)
	// appears verbatim in an event description. It is the decisive
	// tie-break between a precise hit and a merely topical one.
	PhraseBonus = 200
)

// RankedEvent is an event with its relevance score.
type RankedEvent struct {
	timeline.Event
	Score int `json:"score"`
}

// SnapshotSource supplies the live snapshot to score against.
// Current returns nil while the cache is empty.
type SnapshotSource interface {
	Current() *cache.Snapshot
}
