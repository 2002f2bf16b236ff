package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// availableScorers returns one scorer per backend compiled into the binary
func availableScorers(t *testing.T) []*FuzzyScorer {
	t.Helper()
	var scorers []*FuzzyScorer
	for _, name := range Available() {
		sel := Select(name, nil)
		require.False(t, sel.Fallback, "registered backend %s should not fall back", name)
		scorers = append(scorers, sel.Scorer)
	}
	require.NotEmpty(t, scorers)
	return scorers
}

var samplePairs = [][2]string{
	{"printer jam on 3rd floor", "Printer jam on 3rd floor."},
	{"VPN disconnects every hour", "vpn keeps disconnecting"},
	{"Outlook cannot send email", "outlook cannot send emails to external addresses"},
	{"password reset", "Password reset for payroll app"},
	{"badge reader broken at north entrance", "north entrance badge reader not working"},
	{"laptop screen flickering", "monitor flickers"},
	{"abc", "cab"},
	{"a", "aaaa"},
	{"Café wifi slow", "cafe wifi slow"},
	{"新しいプリンター", "プリンター"},
}

func TestScore_Symmetric(t *testing.T) {
	for _, s := range availableScorers(t) {
		for _, p := range samplePairs {
			ab := s.Score(p[0], p[1])
			ba := s.Score(p[1], p[0])
			assert.Equal(t, ab, ba, "%s: score(%q, %q)", s.Backend(), p[0], p[1])
		}
	}
}

func TestScore_Range(t *testing.T) {
	for _, s := range availableScorers(t) {
		for _, p := range samplePairs {
			got := s.Score(p[0], p[1])
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		}
	}
}

func TestScore_EmptyInputs(t *testing.T) {
	for _, s := range availableScorers(t) {
		assert.Equal(t, 0, s.Score("", "printer jam"), s.Backend())
		assert.Equal(t, 0, s.Score("printer jam", ""), s.Backend())
		assert.Equal(t, 0, s.Score("   ", "printer jam"), s.Backend())
		assert.Equal(t, 0, s.Score("", ""), s.Backend())
		assert.Equal(t, 0, s.Score("\t\n", "  "), s.Backend())
	}
}

func TestScore_CaseAndWhitespaceInsensitive(t *testing.T) {
	for _, s := range availableScorers(t) {
		assert.Equal(t, 100, s.Score("  Printer JAM  ", "printer jam"), s.Backend())
	}
}

func TestScore_NearDuplicate(t *testing.T) {
	for _, s := range availableScorers(t) {
		got := s.Score("printer jam on 3rd floor", "Printer jam on 3rd floor.")
		assert.GreaterOrEqual(t, got, 95, s.Backend())
	}
}

func TestScore_SubstringResubmission(t *testing.T) {
	for _, s := range availableScorers(t) {
		got := s.Score("VPN down", "vpn down since this morning, cannot reach file share")
		assert.Equal(t, 100, got, s.Backend())
	}
}

func TestScore_Dissimilar(t *testing.T) {
	for _, s := range availableScorers(t) {
		got := s.Score("printer jam on 3rd floor", "password reset for payroll app")
		assert.Less(t, got, 60, s.Backend())
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "printer jam", Normalize("  Printer Jam\n"))
	assert.Equal(t, "", Normalize("   "))
}

func TestCanonicalOrder(t *testing.T) {
	a, b := canonicalOrder("longer text", "short")
	assert.Equal(t, "short", a)
	assert.Equal(t, "longer text", b)

	a, b = canonicalOrder("bbb", "aaa")
	assert.Equal(t, "aaa", a)
	assert.Equal(t, "bbb", b)
}

func TestSequenceMetric_Ratio(t *testing.T) {
	m := SequenceMetric{}
	assert.InDelta(t, 0.75, m.Ratio("abcd", "bcde"), 1e-9)
	assert.InDelta(t, 1.0, m.Ratio("same", "same"), 1e-9)
	assert.InDelta(t, 0.0, m.Ratio("abc", "xyz"), 1e-9)
	assert.InDelta(t, 1.0, m.Ratio("", ""), 1e-9)
}

func TestToPercent(t *testing.T) {
	assert.Equal(t, 0, toPercent(-0.2))
	assert.Equal(t, 96, toPercent(0.96))
	assert.Equal(t, 97, toPercent(0.966))
	assert.Equal(t, 100, toPercent(1.3))
}
