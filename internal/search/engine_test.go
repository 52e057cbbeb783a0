package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folken88/casandalee-discord-bot-sub000/internal/cache"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/index"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/registry"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/timeline"
)

// staticSource serves a fixed snapshot for tests.
type staticSource struct {
	snap *cache.Snapshot
}

func (s *staticSource) Current() *cache.Snapshot {
	return s.snap
}

func buildSnapshot(t *testing.T, events []timeline.Event) *cache.Snapshot {
	t.Helper()
	idx, err := index.NewBuilder(nil).Build(context.Background(), events)
	require.NoError(t, err)
	return &cache.Snapshot{Events: events, Indexes: idx, EventCount: len(events)}
}

func newTestEngine(t *testing.T, events []timeline.Event, reg *registry.Registry) *Engine {
	t.Helper()
	if reg == nil {
		reg = registry.New()
	}
	e, err := NewEngine(&staticSource{snap: buildSnapshot(t, events)}, reg, 0)
	require.NoError(t, err)
	return e
}

func searchEvents() []timeline.Event {
	return []timeline.Event{
		{
			Date:        "4707.01.16",
			Location:    "Kintargo",
			Category:    "battle",
			Description: "Tokala fought the cultists in the sewers",
			ParsedYear:  4707,
		},
		{
			Date:        "4707.02.03",
			Location:    "Westcrown",
			Category:    "travel",
			Description: "the party sailed for distant shores",
			ParsedYear:  4707,
		},
		{
			Date:        "4707.03.10",
			Location:    "Kintargo Docks",
			Category:    "politics",
			Description: "rumors spread of cultists near the docks",
			ParsedYear:  4707,
		},
	}
}

func TestSearch_CharacterHitScoresAtLeastTwenty(t *testing.T) {
	e := newTestEngine(t, searchEvents(), nil)

	results := e.Search("tokala", 0)

	require.Len(t, results, 1)
	assert.Equal(t, "4707.01.16", results[0].Date)
	assert.GreaterOrEqual(t, results[0].Score, CharacterWeight)
}

func TestSearch_KeywordAccumulatesAcrossTokens(t *testing.T) {
	e := newTestEngine(t, searchEvents(), nil)

	results := e.Search("cultists sewers", 0)

	require.NotEmpty(t, results)
	// Event 0 matches both tokens, event 2 only one.
	assert.Equal(t, "4707.01.16", results[0].Date)
}

func TestSearch_LocationSubstringHit(t *testing.T) {
	e := newTestEngine(t, searchEvents(), nil)

	results := e.Search("kintargo", 0)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Contains(t, []string{"Kintargo", "Kintargo Docks"}, r.Location)
	}
}

// A query appearing verbatim in one description must outrank any event
// matching only individual keywords from it.
func TestSearch_ExactPhraseDominates(t *testing.T) {
	events := []timeline.Event{
		{Date: "4707.01.01", Location: "a", Description: "cultists marched while sewers flooded"},
		{Date: "4707.01.02", Location: "b", Description: "Tokala fought the cultists in the sewers"},
	}
	e := newTestEngine(t, events, nil)

	results := e.Search("cultists in the sewers", 0)

	require.Len(t, results, 2)
	assert.Equal(t, "4707.01.02", results[0].Date)
	assert.Greater(t, results[0].Score, results[1].Score+PhraseBonus-1)
}

func TestSearch_OfInsertionCatchesPhrase(t *testing.T) {
	events := []timeline.Event{
		{Date: "4707.01.01", Location: "Kintargo", Description: "they toasted the queen of kintargo"},
	}
	e := newTestEngine(t, events, nil)

	// "queen kintargo" does not appear verbatim, "queen of kintargo" does.
	results := e.Search("queen kintargo", 0)

	require.Len(t, results, 1)
	assert.GreaterOrEqual(t, results[0].Score, PhraseBonus)
}

func TestSearch_RegistryBoostOutranksCoincidentalMatch(t *testing.T) {
	events := []timeline.Event{
		{Date: "4707.01.01", Location: "a", Description: "a fox was seen in the market"},
		{Date: "4707.01.02", Location: "b", Description: "Tokala rallied the rebels"},
	}
	reg := registry.New()
	reg.Register("Tokala Ironfang", []string{"the fox"})
	e := newTestEngine(t, events, reg)

	results := e.Search("the fox", 0)

	// "fox" keyword-matches event 0, but the query resolves to Tokala
	// Ironfang whose character entries point at event 1.
	require.Len(t, results, 2)
	assert.Equal(t, "4707.01.02", results[0].Date)
	assert.GreaterOrEqual(t, results[0].Score, RegistryBoost)
}

func TestSearch_TiesPreserveEventOrder(t *testing.T) {
	events := []timeline.Event{
		{Date: "4707.01.01", Location: "a", Description: "cultists gathered quietly"},
		{Date: "4707.01.02", Location: "b", Description: "cultists gathered again"},
	}
	e := newTestEngine(t, events, nil)

	results := e.Search("cultists", 0)

	require.Len(t, results, 2)
	assert.Equal(t, "4707.01.01", results[0].Date)
	assert.Equal(t, "4707.01.02", results[1].Date)
	assert.Equal(t, results[0].Score, results[1].Score)
}

func TestSearch_LimitCapsResults(t *testing.T) {
	e := newTestEngine(t, searchEvents(), nil)

	results := e.Search("cultists kintargo sewers", 1)

	assert.Len(t, results, 1)
}

func TestSearch_NoMatchesReturnsEmpty(t *testing.T) {
	e := newTestEngine(t, searchEvents(), nil)

	assert.Empty(t, e.Search("xyzzy", 0))
	assert.Empty(t, e.Search("", 0))
}

func TestSearch_EmptySnapshot(t *testing.T) {
	reg := registry.New()
	e, err := NewEngine(&staticSource{snap: nil}, reg, 0)
	require.NoError(t, err)

	assert.Nil(t, e.Search("anything", 0))
}

func TestSearch_ShortTokensIgnored(t *testing.T) {
	e := newTestEngine(t, searchEvents(), nil)

	// All tokens <= 2 chars; nothing to score.
	assert.Empty(t, e.Search("a of in", 0))
}

func TestCharacterEvents_ResolvesAliasFirst(t *testing.T) {
	reg := registry.New()
	reg.Register("Tokala Ironfang", []string{"tok"})
	e := newTestEngine(t, searchEvents(), reg)

	events := e.CharacterEvents("tok")

	require.Len(t, events, 1)
	assert.Equal(t, "4707.01.16", events[0].Date)
}

func TestCharacterEvents_UnresolvedNameFallsBackToDirectLookup(t *testing.T) {
	e := newTestEngine(t, searchEvents(), nil)

	events := e.CharacterEvents("Tokala")

	require.Len(t, events, 1)
	assert.Equal(t, "4707.01.16", events[0].Date)
}

func TestLocationEvents_SubstringMatch(t *testing.T) {
	e := newTestEngine(t, searchEvents(), nil)

	events := e.LocationEvents("kintargo")

	require.Len(t, events, 2)
	// Timeline order preserved.
	assert.Equal(t, "4707.01.16", events[0].Date)
	assert.Equal(t, "4707.03.10", events[1].Date)
}

func TestLocationEvents_EmptyInput(t *testing.T) {
	e := newTestEngine(t, searchEvents(), nil)

	assert.Nil(t, e.LocationEvents("  "))
}

func TestNewEngine_NilDependencies(t *testing.T) {
	_, err := NewEngine(nil, registry.New(), 0)
	assert.Error(t, err)

	_, err = NewEngine(&staticSource{}, nil, 0)
	assert.Error(t, err)
}

func TestSearch_CacheInvalidatedByRegistration(t *testing.T) {
	// Given: a ranking cached before the character was registered
	reg := registry.New()
	e := newTestEngine(t, searchEvents(), reg)

	before := e.Search("tokala", 0)
	require.Len(t, before, 1)

	// When: the name is registered after the query was cached
	reg.Register("Tokala", nil)

	// Then: a repeat query re-scores with the registry boost applied
	after := e.Search("tokala", 0)
	require.Len(t, after, 1)
	assert.Equal(t, before[0].Score+RegistryBoost, after[0].Score)
}
