package index

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/folken88/casandalee-discord-bot-sub000/internal/timeline"
)

// Indexes holds the three inverted indices derived from the event list.
// Each maps a term to the sorted, deduplicated list of event positions.
// Indexes are derived state: always reconstructible from the events alone.
type Indexes struct {
	// Keyword maps lowercase description tokens to event positions.
	Keyword map[string][]int

	// Character maps lowercase proper-noun candidates to event positions.
	Character map[string][]int

	// Location maps lowercase location strings (verbatim, not tokenized)
	// to event positions.
	Location map[string][]int
}

// NewIndexes returns empty indices.
func NewIndexes() *Indexes {
	return &Indexes{
		Keyword:   make(map[string][]int),
		Character: make(map[string][]int),
		Location:  make(map[string][]int),
	}
}

// Builder produces the inverted indices from an event list in one pass per
// index. Two builds over identical event lists yield identical indices.
type Builder struct {
	stopWords map[string]struct{}
}

// NewBuilder creates a Builder with the given stop-word list.
// A nil list selects DefaultStopWords.
func NewBuilder(stopWords []string) *Builder {
	if stopWords == nil {
		stopWords = DefaultStopWords
	}
	return &Builder{stopWords: BuildStopWordMap(stopWords)}
}

// Build constructs all three indices. The three passes are independent, so
// they run in parallel; each pass walks the events in order, keeping the
// posting lists deterministic.
func (b *Builder) Build(ctx context.Context, events []timeline.Event) (*Indexes, error) {
	idx := NewIndexes()

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		b.buildKeyword(events, idx.Keyword)
		return nil
	})
	g.Go(func() error {
		b.buildCharacter(events, idx.Character)
		return nil
	})
	g.Go(func() error {
		b.buildLocation(events, idx.Location)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (b *Builder) buildKeyword(events []timeline.Event, out map[string][]int) {
	for i, ev := range events {
		for _, token := range Tokenize(ev.Description, b.stopWords) {
			addPosting(out, token, i)
		}
	}
}

func (b *Builder) buildCharacter(events []timeline.Event, out map[string][]int) {
	for i, ev := range events {
		for _, noun := range ExtractProperNouns(ev.Description) {
			addPosting(out, noun, i)
		}
	}
}

func (b *Builder) buildLocation(events []timeline.Event, out map[string][]int) {
	for i, ev := range events {
		loc := strings.ToLower(strings.TrimSpace(ev.Location))
		if loc == "" {
			continue
		}
		addPosting(out, loc, i)
	}
}

// addPosting appends an event position to a term's posting list unless it is
// already the last entry. Positions arrive in ascending order, so the list
// stays sorted and deduplicated without a second pass.
func addPosting(index map[string][]int, term string, pos int) {
	postings := index[term]
	if n := len(postings); n > 0 && postings[n-1] == pos {
		return
	}
	index[term] = append(postings, pos)
}

// Terms returns the sorted term list of one index map. Used for stats and
// deterministic iteration in tests.
func Terms(index map[string][]int) []string {
	terms := make([]string, 0, len(index))
	for term := range index {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}
