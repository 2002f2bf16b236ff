package similarity

import "github.com/pmezard/go-difflib/difflib"

// SequenceBackend is the name of the built-in sequence-matcher backend
const SequenceBackend = "sequence"

// SequenceMetric computes the Ratcliff/Obershelp ratio of two strings at
// character granularity.
type SequenceMetric struct{}

// Name returns the backend name
func (SequenceMetric) Name() string { return SequenceBackend }

// Ratio returns 2*M/T where M is the number of matched characters and T the
// total length of both strings
func (SequenceMetric) Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	matcher := difflib.NewMatcher(splitRunes([]rune(a)), splitRunes([]rune(b)))
	return matcher.Ratio()
}

func init() {
	Register(SequenceBackend, func() Metric { return SequenceMetric{} })
}
