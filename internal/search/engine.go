package search

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/folken88/casandalee-discord-bot-sub000/internal/index"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/registry"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/timeline"
)

// DefaultResultCacheSize is the default number of query results to keep.
const DefaultResultCacheSize = 256

// Engine ranks timeline events by relevance to a free-text query.
// It reads whatever snapshot is live at call time; a rebuild swapping the
// snapshot mid-query is harmless because the old snapshot stays intact.
type Engine struct {
	source  SnapshotSource
	reg     *registry.Registry
	results *lru.Cache[string, []RankedEvent]
}

// NewEngine creates a search engine over the given snapshot source and
// registry. cacheSize bounds the query-result LRU; zero or negative selects
// the default.
func NewEngine(source SnapshotSource, reg *registry.Registry, cacheSize int) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("search: snapshot source is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("search: registry is required")
	}
	if cacheSize <= 0 {
		cacheSize = DefaultResultCacheSize
	}
	results, _ := lru.New[string, []RankedEvent](cacheSize)
	return &Engine{source: source, reg: reg, results: results}, nil
}

// Search returns events ranked by descending relevance score. Ties keep the
// original event order; zero-scoring events are excluded. limit <= 0 returns
// everything that scored.
func (e *Engine) Search(query string, limit int) []RankedEvent {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	snap := e.source.Current()
	if snap == nil || len(snap.Events) == 0 {
		return nil
	}

	// Results are cached per snapshot and registry state: the build time
	// invalidates entries when a rebuild swaps snapshots, the registry
	// generation when a registration or learned alias changes scoring.
	cacheKey := fmt.Sprintf("%d|%d|%d|%s", snap.LastBuildTime.UnixNano(), e.reg.Generation(), limit, q)
	if cached, ok := e.results.Get(cacheKey); ok {
		return cached
	}

	start := time.Now()
	scores := make(map[int]int)
	tokens := index.QueryTokens(q)

	for _, token := range tokens {
		for _, pos := range snap.Indexes.Keyword[token] {
			scores[pos] += KeywordWeight
		}
		for _, pos := range snap.Indexes.Character[token] {
			scores[pos] += CharacterWeight
		}
		for loc, postings := range snap.Indexes.Location {
			if strings.Contains(loc, token) {
				for _, pos := range postings {
					scores[pos] += LocationWeight
				}
			}
		}
	}

	e.addPhraseBonus(snap.Events, q, tokens, scores)
	e.addRegistryBoost(snap.Indexes, q, scores)

	ranked := rankScores(snap.Events, scores, limit)

	slog.Debug("search_scored",
		slog.String("query", q),
		slog.Int("candidates", len(scores)),
		slog.Int("returned", len(ranked)),
		slog.Duration("took", time.Since(start)))

	e.results.Add(cacheKey, ranked)
	return ranked
}

// addPhraseBonus rewards descriptions containing the whole query verbatim,
// or the query with "of" re-inserted between significant words so that
// "queen kintargo" still catches "queen of Kintargo".
func (e *Engine) addPhraseBonus(events []timeline.Event, q string, tokens []string, scores map[int]int) {
	phrases := []string{q}
	if len(tokens) > 1 {
		if ofForm := strings.Join(tokens, " of "); ofForm != q {
			phrases = append(phrases, ofForm)
		}
	}

	for i, ev := range events {
		desc := strings.ToLower(ev.Description)
		for _, phrase := range phrases {
			if strings.Contains(desc, phrase) {
				scores[i] += PhraseBonus
				break
			}
		}
	}
}

// addRegistryBoost resolves the whole query through the registry; when it
// names a known identity, events in that identity's character-index entries
// outrank coincidental textual matches.
func (e *Engine) addRegistryBoost(idx *index.Indexes, q string, scores map[int]int) {
	canonical, ok := e.reg.Resolve(q)
	if !ok {
		return
	}

	boosted := make(map[int]struct{})
	for _, token := range index.QueryTokens(strings.ToLower(canonical)) {
		for _, pos := range idx.Character[token] {
			boosted[pos] = struct{}{}
		}
	}
	for pos := range boosted {
		scores[pos] += RegistryBoost
	}
}

// rankScores orders scored events by score descending, ties by original
// event order, drops zeros, and caps at limit.
func rankScores(events []timeline.Event, scores map[int]int, limit int) []RankedEvent {
	positions := make([]int, 0, len(scores))
	for pos, score := range scores {
		if score > 0 {
			positions = append(positions, pos)
		}
	}
	sort.Slice(positions, func(i, j int) bool {
		si, sj := scores[positions[i]], scores[positions[j]]
		if si != sj {
			return si > sj
		}
		return positions[i] < positions[j]
	})

	if limit > 0 && len(positions) > limit {
		positions = positions[:limit]
	}

	ranked := make([]RankedEvent, 0, len(positions))
	for _, pos := range positions {
		ranked = append(ranked, RankedEvent{Event: events[pos], Score: scores[pos]})
	}
	return ranked
}

// CharacterEvents returns the events indexed under a character name.
// The name goes through the registry first, so aliases and misspellings land
// on the same canonical identity's events.
func (e *Engine) CharacterEvents(name string) []timeline.Event {
	snap := e.source.Current()
	if snap == nil {
		return nil
	}

	lookup := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := e.reg.Resolve(name); ok {
		lookup = strings.ToLower(canonical)
	}

	positions := make(map[int]struct{})
	for _, token := range index.QueryTokens(lookup) {
		for _, pos := range snap.Indexes.Character[token] {
			positions[pos] = struct{}{}
		}
	}

	return eventsAt(snap.Events, positions)
}

// LocationEvents returns events whose indexed location contains the given
// string as a substring.
func (e *Engine) LocationEvents(location string) []timeline.Event {
	snap := e.source.Current()
	if snap == nil {
		return nil
	}

	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return nil
	}

	positions := make(map[int]struct{})
	for indexed, postings := range snap.Indexes.Location {
		if strings.Contains(indexed, loc) {
			for _, pos := range postings {
				positions[pos] = struct{}{}
			}
		}
	}

	return eventsAt(snap.Events, positions)
}

// eventsAt returns the events at the given positions in timeline order.
func eventsAt(events []timeline.Event, positions map[int]struct{}) []timeline.Event {
	ordered := make([]int, 0, len(positions))
	for pos := range positions {
		ordered = append(ordered, pos)
	}
	sort.Ints(ordered)

	out := make([]timeline.Event, 0, len(ordered))
	for _, pos := range ordered {
		out = append(out, events[pos])
	}
	return out
}
