package detect

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/dupdetect/internal/model"
	"github.com/ppiankov/dupdetect/internal/similarity"
)

var base = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

func rec(origin, id, desc string, offset time.Duration) model.Record {
	return model.Record{
		Origin:      origin,
		Identifier:  id,
		Description: desc,
		Created:     base.Add(offset),
	}
}

func testScorer() similarity.Scorer {
	return similarity.Select(similarity.SequenceBackend, nil).Scorer
}

func newTestMatcher() *Matcher {
	return NewMatcher(testScorer(), 4, nil)
}

func cfg(hours, threshold int) model.AnalysisConfig {
	return model.AnalysisConfig{MaxElapsedHours: hours, SimilarityThreshold: threshold}
}

func TestMatch_NearDuplicateWithinTenMinutes(t *testing.T) {
	records := []model.Record{
		rec("Site-A", "INC001", "printer jam on 3rd floor", 0),
		rec("Site-A", "INC002", "Printer jam on 3rd floor.", 10*time.Minute),
	}

	pairs, err := newTestMatcher().Match(context.Background(), records, cfg(72, 85), nil)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	p := pairs[0]
	assert.Equal(t, "Site-A", p.Origin)
	assert.Equal(t, "INC001", p.Left.Identifier)
	assert.Equal(t, "INC002", p.Right.Identifier)
	assert.Equal(t, model.ElapsedUnderHour, p.ElapsedCategory)
	assert.Equal(t, 10*time.Minute, p.Elapsed)
	assert.GreaterOrEqual(t, p.Similarity, 95)
}

func TestMatch_WindowExcludesDistantPair(t *testing.T) {
	records := []model.Record{
		rec("Site-A", "INC001", "printer jam on 3rd floor", 0),
		rec("Site-A", "INC002", "Printer jam on 3rd floor.", 30*time.Hour),
	}
	m := newTestMatcher()

	pairs, err := m.Match(context.Background(), records, cfg(24, 85), nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)

	pairs, err = m.Match(context.Background(), records, cfg(72, 85), nil)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, model.ElapsedOneToThree, pairs[0].ElapsedCategory)
}

func TestMatch_OnlySimilarPairEmitted(t *testing.T) {
	records := []model.Record{
		rec("Site-A", "INC001", "printer jam on 3rd floor", 0),
		rec("Site-A", "INC002", "Printer jam on 3rd floor.", 20*time.Minute),
		rec("Site-A", "INC003", "password reset for payroll app", 40*time.Minute),
	}

	pairs, err := newTestMatcher().Match(context.Background(), records, cfg(72, 85), nil)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "INC001", pairs[0].Left.Identifier)
	assert.Equal(t, "INC002", pairs[0].Right.Identifier)
}

func TestMatch_LeftIsEarlierRegardlessOfInputOrder(t *testing.T) {
	records := []model.Record{
		rec("Site-A", "INC002", "disk full on fileserver", 2*time.Hour),
		rec("Site-A", "INC001", "Disk full on fileserver", 0),
	}

	pairs, err := newTestMatcher().Match(context.Background(), records, cfg(72, 85), nil)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "INC001", pairs[0].Left.Identifier)
	assert.Equal(t, model.ElapsedOneToFour, pairs[0].ElapsedCategory)
}

func TestMatch_NoCrossOriginComparison(t *testing.T) {
	records := []model.Record{
		rec("Site-A", "INC001", "printer jam on 3rd floor", 0),
		rec("Site-B", "INC002", "printer jam on 3rd floor", time.Minute),
	}

	pairs, err := newTestMatcher().Match(context.Background(), records, cfg(72, 85), nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestMatch_EmptyAndSingleton(t *testing.T) {
	m := newTestMatcher()

	pairs, err := m.Match(context.Background(), nil, cfg(72, 85), nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)

	pairs, err = m.Match(context.Background(), []model.Record{rec("Site-A", "INC001", "vpn down", 0)}, cfg(72, 85), nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestMatch_UndatedAndEmptyDescriptionsSkipped(t *testing.T) {
	undated := rec("Site-A", "INC002", "printer jam on 3rd floor", 0)
	undated.Created = time.Time{}

	records := []model.Record{
		rec("Site-A", "INC001", "printer jam on 3rd floor", 0),
		undated,
		rec("Site-A", "INC003", "", 5*time.Minute),
		rec("Site-A", "INC004", "   ", 6*time.Minute),
		rec("Site-A", "INC005", "Printer jam on 3rd floor", 10*time.Minute),
	}

	pairs, err := newTestMatcher().Match(context.Background(), records, cfg(72, 85), nil)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "INC001", pairs[0].Left.Identifier)
	assert.Equal(t, "INC005", pairs[0].Right.Identifier)
}

func TestMatch_GroupWithoutDatedRecords(t *testing.T) {
	a := rec("Site-A", "INC001", "vpn down", 0)
	b := rec("Site-A", "INC002", "vpn down", 0)
	a.Created, b.Created = time.Time{}, time.Time{}

	pairs, err := newTestMatcher().Match(context.Background(), []model.Record{a, b}, cfg(72, 85), nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestMatch_InvalidConfig(t *testing.T) {
	records := []model.Record{
		rec("Site-A", "INC001", "vpn down", 0),
		rec("Site-A", "INC002", "vpn down", time.Minute),
	}

	tests := []struct {
		name string
		cfg  model.AnalysisConfig
	}{
		{"zero window", cfg(0, 85)},
		{"negative window", cfg(-5, 85)},
		{"threshold below range", cfg(72, 49)},
		{"threshold above range", cfg(72, 101)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			pairs, err := newTestMatcher().Match(context.Background(), records, tt.cfg, func(Progress) { called = true })
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidConfig))
			assert.Nil(t, pairs)
			assert.False(t, called, "no group may be scanned with an invalid configuration")
		})
	}
}

func TestMatch_ThresholdBoundsAccepted(t *testing.T) {
	records := []model.Record{
		rec("Site-A", "INC001", "vpn down", 0),
		rec("Site-A", "INC002", "vpn down", time.Minute),
	}
	m := newTestMatcher()

	for _, threshold := range []int{50, 100} {
		pairs, err := m.Match(context.Background(), records, cfg(1, threshold), nil)
		require.NoError(t, err)
		assert.Len(t, pairs, 1, "threshold %d", threshold)
	}
}

func TestMatch_WindowBoundIsInclusive(t *testing.T) {
	records := []model.Record{
		rec("Site-A", "INC001", "vpn down", 0),
		rec("Site-A", "INC002", "vpn down", 24*time.Hour),
		rec("Site-A", "INC003", "vpn down", 24*time.Hour+time.Second),
	}

	pairs, err := newTestMatcher().Match(context.Background(), records, cfg(24, 85), nil)
	require.NoError(t, err)

	// 1-2 at exactly 24h, 2-3 one second apart; 1-3 is just outside
	require.Len(t, pairs, 2)
	for _, p := range pairs {
		assert.False(t, p.Left.Identifier == "INC001" && p.Right.Identifier == "INC003")
	}
}

func TestMatch_ProgressPerGroup(t *testing.T) {
	records := []model.Record{
		rec("Site-C", "INC001", "vpn down", 0),
		rec("Site-A", "INC002", "vpn down", 0),
		rec("Site-B", "INC003", "vpn down", 0),
		rec("Site-A", "INC004", "vpn down", time.Minute),
	}

	var updates []Progress
	_, err := newTestMatcher().Match(context.Background(), records, cfg(72, 85), func(p Progress) {
		updates = append(updates, p)
	})
	require.NoError(t, err)

	require.Len(t, updates, 3)
	for i, u := range updates {
		assert.Equal(t, StageMatch, u.Stage)
		assert.Equal(t, i+1, u.Current)
		assert.Equal(t, 3, u.Total)
	}
	assert.True(t, updates[2].Done())
}

func TestMatch_Cancelled(t *testing.T) {
	records := []model.Record{
		rec("Site-A", "INC001", "vpn down", 0),
		rec("Site-A", "INC002", "vpn down", time.Minute),
		rec("Site-B", "INC003", "vpn down", 0),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pairs, err := newTestMatcher().Match(ctx, records, cfg(72, 85), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, pairs)
}

func TestMatch_SortedBySimilarityThenDeterministic(t *testing.T) {
	records := []model.Record{
		rec("Site-B", "INC010", "email not syncing on phone", 0),
		rec("Site-B", "INC011", "email not syncing on phone", time.Minute),
		rec("Site-A", "INC001", "email not syncing on phone", 0),
		rec("Site-A", "INC002", "email not syncing on phone", time.Minute),
		rec("Site-A", "INC003", "email not syncing on my phone", 2*time.Minute),
	}

	pairs, err := newTestMatcher().Match(context.Background(), records, cfg(72, 85), nil)
	require.NoError(t, err)
	require.NotEmpty(t, pairs)

	for i := 1; i < len(pairs); i++ {
		assert.GreaterOrEqual(t, pairs[i-1].Similarity, pairs[i].Similarity)
	}

	// Ties on similarity fall back to origin order
	assert.Equal(t, "Site-A", pairs[0].Origin)
	assert.Equal(t, "INC001", pairs[0].Left.Identifier)

	again, err := newTestMatcher().Match(context.Background(), records, cfg(72, 85), nil)
	require.NoError(t, err)
	assert.Equal(t, pairs, again)
}

// randomRecords builds a reproducible dataset with heavy description reuse
func randomRecords(seed int64, n int) []model.Record {
	rng := rand.New(rand.NewSource(seed))
	texts := []string{
		"printer jam on 3rd floor",
		"Printer jam on 3rd floor.",
		"printer jammed 3rd floor",
		"vpn disconnects every hour",
		"VPN keeps disconnecting",
		"password reset",
		"password reset for payroll app",
		"outlook cannot send email",
		"",
	}
	origins := []string{"Site-A", "Site-B", "Site-C"}

	records := make([]model.Record, n)
	for i := range records {
		r := model.Record{
			Origin:      origins[rng.Intn(len(origins))],
			Identifier:  fmt.Sprintf("INC%04d", i),
			Description: texts[rng.Intn(len(texts))],
			Created:     base.Add(time.Duration(rng.Intn(10*24*60)) * time.Minute),
		}
		if rng.Intn(15) == 0 {
			r.Created = time.Time{}
		}
		records[i] = r
	}
	return records
}

func TestMatch_PropertiesOnRandomData(t *testing.T) {
	records := randomRecords(42, 150)
	m := newTestMatcher()
	scorer := testScorer()
	c := cfg(24, 80)

	pairs, err := m.Match(context.Background(), records, c, nil)
	require.NoError(t, err)

	seen := make(map[[2]string]bool)
	for _, p := range pairs {
		assert.Equal(t, p.Origin, p.Left.Origin)
		assert.Equal(t, p.Origin, p.Right.Origin)
		assert.True(t, p.Left.HasCreated() && p.Right.HasCreated())

		gap := p.Right.Created.Sub(p.Left.Created)
		assert.GreaterOrEqual(t, gap, time.Duration(0))
		assert.LessOrEqual(t, gap, c.Window())
		assert.GreaterOrEqual(t, p.Similarity, c.SimilarityThreshold)
		assert.Equal(t, model.CategorizeElapsed(gap), p.ElapsedCategory)

		key := [2]string{p.Left.Identifier, p.Right.Identifier}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		assert.False(t, seen[key], "pair %v emitted twice", key)
		seen[key] = true
	}

	// Brute force over every unordered pair agrees with the windowed scan
	expected := 0
	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			a, b := records[i], records[j]
			if a.Origin != b.Origin || !a.HasCreated() || !b.HasCreated() {
				continue
			}
			gap := b.Created.Sub(a.Created)
			if gap < 0 {
				gap = -gap
			}
			if gap <= c.Window() && scorer.Score(a.Description, b.Description) >= c.SimilarityThreshold {
				expected++
			}
		}
	}
	assert.Equal(t, expected, len(pairs))
}

func TestMatch_ThresholdMonotone(t *testing.T) {
	records := randomRecords(7, 120)
	m := newTestMatcher()

	prev := -1
	for threshold := 50; threshold <= 100; threshold += 5 {
		pairs, err := m.Match(context.Background(), records, cfg(48, threshold), nil)
		require.NoError(t, err)
		if prev >= 0 {
			assert.LessOrEqual(t, len(pairs), prev, "threshold %d", threshold)
		}
		prev = len(pairs)
	}
}

func TestMatch_WindowMonotone(t *testing.T) {
	records := randomRecords(11, 120)
	m := newTestMatcher()

	prev := -1
	for _, hours := range []int{1, 4, 12, 24, 72, 168, 400} {
		pairs, err := m.Match(context.Background(), records, cfg(hours, 85), nil)
		require.NoError(t, err)
		if prev >= 0 {
			assert.GreaterOrEqual(t, len(pairs), prev, "window %dh", hours)
		}
		prev = len(pairs)
	}
}

func TestPartitionByOrigin(t *testing.T) {
	records := []model.Record{
		rec("B", "1", "", 0),
		rec("A", "2", "", 0),
		rec("B", "3", "", 0),
		rec("", "4", "", 0),
	}

	groups := partitionByOrigin(records)
	require.Len(t, groups, 3)
	assert.Equal(t, "", groups[0].origin)
	assert.Equal(t, "A", groups[1].origin)
	assert.Equal(t, "B", groups[2].origin)

	total := 0
	for _, g := range groups {
		total += len(g.records)
	}
	assert.Equal(t, len(records), total)
	assert.Equal(t, "1", groups[2].records[0].Identifier)
	assert.Equal(t, "3", groups[2].records[1].Identifier)
}
