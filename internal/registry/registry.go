// Package registry maps arbitrary user-typed strings to canonical identities.
// It owns the alias table, the resolution strategy chain, and the auto-learning
// of misspellings that resolved via fuzzy matching.
package registry

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Registry maps user-typed strings to one canonical identity each.
// A nil-store Registry is purely in-memory; with a store attached, every
// registration and learned alias is written through and survives restarts.
//
// Resolution failure is a normal miss, never an error: callers treat a false
// second return as "unknown entity".
type Registry struct {
	mu sync.Mutex

	// aliases maps lowercase alias -> canonical display string.
	aliases map[string]string

	// aliasOrder records first-insertion order of alias keys. Fuzzy matching
	// iterates it so distance ties deterministically keep the earliest alias.
	aliasOrder []string

	// canonicals is the iteration-ordered list of known canonical names.
	canonicals []string
	canonSet   map[string]struct{}

	// gen increments on every alias-table change, so caches keyed on it
	// invalidate when a new registration or learned alias could change
	// resolution.
	gen atomic.Uint64

	store Store
}

// New creates an empty in-memory registry.
func New() *Registry {
	return &Registry{
		aliases:  make(map[string]string),
		canonSet: make(map[string]struct{}),
	}
}

// NewWithStore creates a registry backed by a persistent alias store and
// replays everything the store holds, learned aliases included.
func NewWithStore(ctx context.Context, store Store) (*Registry, error) {
	r := New()
	r.store = store

	regs, err := store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, reg := range regs {
		r.register(reg.Canonical, reg.Aliases)
	}
	return r, nil
}

// Register adds (or overwrites) lowercase mappings for the canonical name
// itself and each alias. Idempotent; on alias conflict the last registration
// wins. The canonical name joins the ordered list of known names once.
func (r *Registry) Register(canonical string, aliases []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.register(canonical, aliases)

	if r.store != nil {
		if err := r.store.SaveRegistration(context.Background(), canonical, aliases); err != nil {
			slog.Warn("alias_store_save_failed",
				slog.String("canonical", canonical),
				slog.String("error", err.Error()))
		}
	}
}

// register is the lock-free core of Register, shared with store replay.
func (r *Registry) register(canonical string, aliases []string) {
	canonical = strings.TrimSpace(canonical)
	if canonical == "" {
		return
	}

	if _, seen := r.canonSet[canonical]; !seen {
		r.canonSet[canonical] = struct{}{}
		r.canonicals = append(r.canonicals, canonical)
	}

	r.addAlias(strings.ToLower(canonical), canonical)
	for _, alias := range aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias != "" {
			r.addAlias(alias, canonical)
		}
	}
}

func (r *Registry) addAlias(alias, canonical string) {
	if _, exists := r.aliases[alias]; !exists {
		r.aliasOrder = append(r.aliasOrder, alias)
	}
	r.aliases[alias] = canonical
	r.gen.Add(1)
}

// Resolve maps input to a canonical identity, trying in order: exact alias
// lookup, unique prefix match, unique substring match, then fuzzy match by
// edit distance. A successful fuzzy match auto-learns the input as a new
// alias, so the next Resolve of the same string hits the exact path.
//
// Returns ("", false) when nothing matches; that is a normal outcome.
func (r *Registry) Resolve(input string) (string, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Strategy 1: exact alias lookup.
	if canonical, ok := r.aliases[in]; ok {
		return canonical, true
	}

	// Strategy 2: unique prefix match on canonical names. Ambiguous
	// prefixes fall through.
	if canonical, ok := r.uniqueMatch(in, strings.HasPrefix); ok {
		return canonical, true
	}

	// Strategy 3: unique substring match on canonical names.
	if canonical, ok := r.uniqueMatch(in, strings.Contains); ok {
		return canonical, true
	}

	// Strategy 4: globally closest alias by edit distance.
	if canonical, ok := r.fuzzyMatch(in); ok {
		r.learn(in, canonical)
		return canonical, true
	}

	return "", false
}

// uniqueMatch returns a canonical name when exactly one matches the predicate
// against its lowercase form.
func (r *Registry) uniqueMatch(in string, match func(s, substr string) bool) (string, bool) {
	var found string
	count := 0
	for _, canonical := range r.canonicals {
		if match(strings.ToLower(canonical), in) {
			found = canonical
			count++
			if count > 1 {
				return "", false
			}
		}
	}
	return found, count == 1
}

// fuzzyMatch finds the globally closest alias within the edit-distance
// threshold. Ties keep the first alias in insertion order.
func (r *Registry) fuzzyMatch(in string) (string, bool) {
	threshold := FuzzyThreshold(in)

	best := threshold + 1
	var bestCanonical string
	for _, alias := range r.aliasOrder {
		if d := Levenshtein(in, alias); d < best {
			best = d
			bestCanonical = r.aliases[alias]
		}
	}

	if best > threshold {
		return "", false
	}
	return bestCanonical, true
}

// learn registers input as a new alias of canonical, making future resolves
// of the same input hit the exact path. Called with the lock held.
func (r *Registry) learn(alias, canonical string) {
	r.addAlias(alias, canonical)

	slog.Info("alias_learned",
		slog.String("alias", alias),
		slog.String("canonical", canonical))

	if r.store != nil {
		if err := r.store.SaveLearnedAlias(context.Background(), alias, canonical); err != nil {
			slog.Warn("alias_store_learn_failed",
				slog.String("alias", alias),
				slog.String("error", err.Error()))
		}
	}
}

// Search returns an autocomplete-style ranked listing of canonical names:
// prefix matches first, then substring matches, then fuzzy matches sorted by
// ascending distance. Deduplicated, capped at limit.
func (r *Registry) Search(query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || limit <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var results []string
	seen := make(map[string]struct{})
	add := func(canonical string) {
		if _, dup := seen[canonical]; dup {
			return
		}
		seen[canonical] = struct{}{}
		results = append(results, canonical)
	}

	for _, canonical := range r.canonicals {
		if strings.HasPrefix(strings.ToLower(canonical), q) {
			add(canonical)
		}
	}
	for _, canonical := range r.canonicals {
		if strings.Contains(strings.ToLower(canonical), q) {
			add(canonical)
		}
	}

	// Fuzzy tail: closest canonicals within threshold, by ascending distance.
	threshold := FuzzyThreshold(q)
	type scored struct {
		canonical string
		distance  int
	}
	var fuzzy []scored
	for _, canonical := range r.canonicals {
		if _, dup := seen[canonical]; dup {
			continue
		}
		if d := Levenshtein(q, strings.ToLower(canonical)); d <= threshold {
			fuzzy = append(fuzzy, scored{canonical: canonical, distance: d})
		}
	}
	sort.SliceStable(fuzzy, func(i, j int) bool {
		return fuzzy[i].distance < fuzzy[j].distance
	})
	for _, s := range fuzzy {
		add(s.canonical)
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Canonicals returns a copy of the iteration-ordered canonical name list.
func (r *Registry) Canonicals() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.canonicals))
	copy(out, r.canonicals)
	return out
}

// Generation returns a counter that increments on every alias-table change.
// Callers caching resolution-dependent results fold it into their keys.
func (r *Registry) Generation() uint64 {
	return r.gen.Load()
}

// AliasCount returns the number of known alias mappings.
func (r *Registry) AliasCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.aliases)
}
