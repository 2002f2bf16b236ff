package similarity

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// Scorer computes a 0-100 similarity between two free-text descriptions.
// Implementations must be deterministic and symmetric.
type Scorer interface {
	Score(a, b string) int
	Backend() string
}

// Metric is a string-distance backend returning a ratio in [0,1]
type Metric interface {
	Name() string
	Ratio(a, b string) float64
}

// FuzzyScorer scores descriptions as the maximum of a full-sequence ratio and a
// partial (best substring window) ratio computed with its Metric.
type FuzzyScorer struct {
	metric Metric
}

// NewFuzzyScorer creates a scorer backed by the given metric
func NewFuzzyScorer(metric Metric) *FuzzyScorer {
	return &FuzzyScorer{metric: metric}
}

// Backend returns the metric name
func (s *FuzzyScorer) Backend() string {
	return s.metric.Name()
}

// Score returns max(ratio, partialRatio) on normalized input, 0 if either side is empty
func (s *FuzzyScorer) Score(a, b string) int {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	a, b = canonicalOrder(a, b)

	full := toPercent(s.metric.Ratio(a, b))
	if full == 100 {
		return full
	}
	partial := s.partialRatio(a, b)
	if partial > full {
		return partial
	}
	return full
}

// partialRatio expects a to be no longer than b
func (s *FuzzyScorer) partialRatio(short, long string) int {
	shortRunes := []rune(short)
	longRunes := []rune(long)
	m, n := len(shortRunes), len(longRunes)
	if m == n {
		return toPercent(s.metric.Ratio(short, long))
	}
	if strings.Contains(long, short) {
		return 100
	}

	// Candidate windows are anchored on the blocks the sequence matcher aligns,
	// so the cost stays proportional to the number of blocks rather than n.
	matcher := difflib.NewMatcher(splitRunes(shortRunes), splitRunes(longRunes))
	best := 0
	seen := make(map[int]bool)
	for _, block := range matcher.GetMatchingBlocks() {
		start := block.B - block.A
		if start < 0 {
			start = 0
		}
		if start+m > n {
			start = n - m
		}
		if seen[start] {
			continue
		}
		seen[start] = true

		score := toPercent(s.metric.Ratio(short, string(longRunes[start:start+m])))
		if score > best {
			best = score
		}
		if best == 100 {
			break
		}
	}
	return best
}

// Normalize lowercases and trims a description before comparison
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// canonicalOrder orders a pair shorter-first, then lexicographically, so that
// every backend sees the same argument order regardless of call order.
func canonicalOrder(a, b string) (string, string) {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la > lb || (la == lb && a > b) {
		return b, a
	}
	return a, b
}

func toPercent(ratio float64) int {
	p := int(math.Round(ratio * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func splitRunes(runes []rune) []string {
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}
