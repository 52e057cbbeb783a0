package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		name   string
		a, b   string
		expect int
	}{
		{name: "equal", a: "tokala", b: "tokala", expect: 0},
		{name: "single deletion", a: "tokla", b: "tokala", expect: 1},
		{name: "single substitution", a: "tokala", b: "takala", expect: 1},
		{name: "empty left", a: "", b: "abc", expect: 3},
		{name: "empty right", a: "abc", b: "", expect: 3},
		{name: "both empty", a: "", b: "", expect: 0},
		{name: "classic kitten sitting", a: "kitten", b: "sitting", expect: 3},
		{name: "unicode runes", a: "rén", b: "ren", expect: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Levenshtein(tt.a, tt.b))
			// Distance is symmetric.
			assert.Equal(t, tt.expect, Levenshtein(tt.b, tt.a))
		})
	}
}

func TestFuzzyThreshold(t *testing.T) {
	// max(2, floor(len * 0.4))
	assert.Equal(t, 2, FuzzyThreshold("a"))
	assert.Equal(t, 2, FuzzyThreshold("abcde"))   // floor(5*0.4)=2
	assert.Equal(t, 2, FuzzyThreshold("abcdef"))  // floor(6*0.4)=2
	assert.Equal(t, 4, FuzzyThreshold("abcdefghij")) // floor(10*0.4)=4
}
