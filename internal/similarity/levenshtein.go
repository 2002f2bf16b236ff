//go:build !nolevenshtein

package similarity

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// LevenshteinBackend is the name of the edit-distance backend
const LevenshteinBackend = "levenshtein"

// LevenshteinMetric derives a ratio from the Levenshtein edit distance:
// 1 - distance/max(len(a), len(b)), lengths counted in runes.
type LevenshteinMetric struct{}

// Name returns the backend name
func (LevenshteinMetric) Name() string { return LevenshteinBackend }

// Ratio returns the normalized edit similarity of a and b
func (LevenshteinMetric) Ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

func init() {
	Register(LevenshteinBackend, func() Metric { return LevenshteinMetric{} })
}
