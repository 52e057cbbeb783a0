package registry

// Levenshtein computes the edit distance between two strings: the minimum
// number of single-rune insertions, deletions, and substitutions needed to
// turn a into b. Comparison is case-sensitive; callers lowercase first.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// FuzzyThreshold returns the maximum accepted edit distance for an input:
// max(2, floor(len(input) * 0.4)). Short inputs still tolerate two edits;
// long inputs scale with length.
func FuzzyThreshold(input string) int {
	t := len(input) * 4 / 10
	if t < 2 {
		return 2
	}
	return t
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
