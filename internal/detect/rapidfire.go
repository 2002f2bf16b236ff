package detect

import (
	"context"
	"time"

	"github.com/ppiankov/dupdetect/internal/model"
	"github.com/ppiankov/dupdetect/internal/similarity"
)

// RapidFireWindows are the short windows reported by the rapid-fire detector
var RapidFireWindows = []time.Duration{
	15 * time.Minute,
	30 * time.Minute,
	60 * time.Minute,
}

// RapidFire runs the windowed scan once per rapid-fire window. A pair found in
// the 15 minute window is reported again under 30 and 60 minutes: each window
// is its own bucket. Output is ordered by window, then as the matcher orders pairs.
func RapidFire(ctx context.Context, records []model.Record, threshold int, scorer similarity.Scorer) ([]model.RapidFirePair, error) {
	groups := partitionByOrigin(records)
	timelines := make([][]model.Record, len(groups))
	for i, g := range groups {
		timelines[i] = timeline(g.records)
	}

	var out []model.RapidFirePair
	for _, window := range RapidFireWindows {
		var pairs []model.DuplicatePair
		for i, g := range groups {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			pairs = append(pairs, scanWindow(g.origin, timelines[i], window, threshold, scorer)...)
		}
		sortPairs(pairs)

		for _, p := range pairs {
			out = append(out, model.RapidFirePair{
				Window:     window,
				Origin:     p.Origin,
				Left:       p.Left,
				Right:      p.Right,
				Elapsed:    p.Elapsed,
				Similarity: p.Similarity,
			})
		}
	}
	return out, nil
}
