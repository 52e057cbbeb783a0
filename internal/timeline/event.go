// Package timeline defines the campaign event model and the ingestion
// boundary that normalizes raw source rows into validated events.
package timeline

import (
	"strings"
	"unicode"
)

// Event is one entry in the campaign timeline. Events are immutable once
// stored; the cache layer only ever replaces the whole list during a rebuild.
type Event struct {
	// Date is the campaign-calendar date string (e.g. "4707.01.16").
	Date string `json:"date"`

	// Location is the place the event happened, as written in the source.
	Location string `json:"location"`

	// Category is a free-form grouping label (e.g. "battle", "politics").
	Category string `json:"category"`

	// Description is the narrative text of the event.
	Description string `json:"description"`

	// ParsedYear is derived once at ingestion from the leading numeric run
	// of Date. Zero when the date has no leading number.
	ParsedYear int `json:"parsed_year"`
}

// RawEvent is the wire form of an event row as supplied by the event source,
// before validation. All fields are optional at this stage; Normalize decides
// what survives.
type RawEvent struct {
	Date        string `json:"date" yaml:"date"`
	Location    string `json:"location" yaml:"location"`
	Category    string `json:"category" yaml:"category"`
	Description string `json:"description" yaml:"description"`
}

// ParseYear extracts the leading numeric component of a date string.
// "4707.01.16" yields 4707. Returns 0 when the date does not start with
// a number.
func ParseYear(date string) int {
	date = strings.TrimSpace(date)
	year := 0
	seen := false
	for _, r := range date {
		if !unicode.IsDigit(r) {
			break
		}
		year = year*10 + int(r-'0')
		seen = true
	}
	if !seen {
		return 0
	}
	return year
}

// Normalize validates a raw row and converts it into an Event.
// Rows with no date or no description are rejected (ok == false); the caller
// skips them and keeps going. Missing optional fields become empty strings.
func Normalize(raw RawEvent) (Event, bool) {
	date := strings.TrimSpace(raw.Date)
	desc := strings.TrimSpace(raw.Description)
	if date == "" || desc == "" {
		return Event{}, false
	}

	return Event{
		Date:        date,
		Location:    strings.TrimSpace(raw.Location),
		Category:    strings.TrimSpace(raw.Category),
		Description: desc,
		ParsedYear:  ParseYear(date),
	}, true
}

// NormalizeAll converts a batch of raw rows, dropping the ones Normalize
// rejects. The returned skip count lets callers log how much was discarded.
func NormalizeAll(raws []RawEvent) (events []Event, skipped int) {
	events = make([]Event, 0, len(raws))
	for _, raw := range raws {
		ev, ok := Normalize(raw)
		if !ok {
			skipped++
			continue
		}
		events = append(events, ev)
	}
	return events, skipped
}
