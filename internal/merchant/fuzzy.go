package merchant

import (
	"math"

	"github.com/agnivade/levenshtein"
)

// Scorer rates the similarity of two merchant keys on a 0-100 scale, where
// 100 means identical. Implementations must be monotonic in edit distance.
type Scorer func(a, b string) int

// LevenshteinScore is the default Scorer. It maps edit distance to
// 100 * (1 - distance/maxLen), rounded to the nearest integer.
func LevenshteinScore(a, b string) int {
	if a == b {
		return 100
	}
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	distance := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(distance)/float64(longest))))
}
