// Package index builds the inverted indices over the event timeline:
// keyword, character (proper noun), and location.
package index

import (
	"regexp"
	"strings"
)

// MinTokenLength is the shortest token worth indexing. Tokens at or below
// this length are discarded.
const MinTokenLength = 2

// wordRegex matches word-like runs in free text.
var wordRegex = regexp.MustCompile(`[a-zA-Z0-9']+`)

// properNounRegex matches capitalized word-like runs of length >= 3 in the
// original (non-lowercased) text.
var properNounRegex = regexp.MustCompile(`\b[A-Z][a-zA-Z]{2,}\b`)

// DefaultStopWords are common English words excluded from the keyword index.
var DefaultStopWords = []string{
	"the", "and", "for", "are", "was", "were", "with", "that", "this",
	"from", "they", "their", "them", "has", "have", "had", "his", "her",
	"she", "him", "its", "but", "not", "all", "can", "will", "would",
	"into", "out", "about", "who", "what", "when", "where", "been",
}

// BuildStopWordMap converts a slice of stop words to a set for lookup.
func BuildStopWordMap(stopWords []string) map[string]struct{} {
	m := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		m[strings.ToLower(word)] = struct{}{}
	}
	return m
}

// Tokenize splits text into lowercase word tokens, dropping stop words and
// anything of length <= MinTokenLength.
func Tokenize(text string, stopWords map[string]struct{}) []string {
	words := wordRegex.FindAllString(strings.ToLower(text), -1)

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) <= MinTokenLength {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// QueryTokens splits a query into lowercase tokens of length > MinTokenLength.
// Stop words are kept: query terms score against whatever is indexed.
func QueryTokens(query string) []string {
	words := wordRegex.FindAllString(strings.ToLower(query), -1)

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) > MinTokenLength {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// ExtractProperNouns scans the original-cased text for capitalized runs of
// length >= 3 and returns their lowercase forms in order of appearance.
//
// This is a best-effort heuristic, not named-entity recognition: it happily
// picks up sentence-initial words and misses multi-word or non-English names.
// Callers must treat the character index as an approximate signal.
func ExtractProperNouns(text string) []string {
	matches := properNounRegex.FindAllString(text, -1)

	nouns := make([]string, 0, len(matches))
	for _, m := range matches {
		nouns = append(nouns, strings.ToLower(m))
	}
	return nouns
}
