// Package detect finds probable duplicate tickets within origin groups.
package detect

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/ppiankov/dupdetect/internal/model"
	"github.com/ppiankov/dupdetect/internal/similarity"
	"github.com/ppiankov/dupdetect/internal/worker"
)

// Matcher runs the windowed pair scan over every origin group
type Matcher struct {
	scorer  similarity.Scorer
	workers int
	logger  *slog.Logger
}

// NewMatcher creates a matcher scanning up to workers origin groups in parallel.
// A non-positive worker count uses one worker per CPU.
func NewMatcher(scorer similarity.Scorer, workers int, logger *slog.Logger) *Matcher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{
		scorer:  scorer,
		workers: workers,
		logger:  logger,
	}
}

// Match returns every pair of records from the same origin created within the
// configured window whose descriptions score at or above the threshold.
// Each unordered pair appears at most once. Pairs are sorted by similarity
// descending, then origin, left created time, left and right identifier.
func (m *Matcher) Match(ctx context.Context, records []model.Record, cfg model.AnalysisConfig, progress ProgressFunc) ([]model.DuplicatePair, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	groups := partitionByOrigin(records)
	if len(groups) == 0 {
		return []model.DuplicatePair{}, nil
	}

	jobs := make([]worker.Job, len(groups))
	for i, g := range groups {
		jobs[i] = &groupJob{
			index:     i,
			group:     g,
			window:    cfg.Window(),
			threshold: cfg.SimilarityThreshold,
			scorer:    m.scorer,
		}
	}

	perGroup := make([][]model.DuplicatePair, len(groups))
	completed := 0

	pool := worker.NewPoolWithContext(ctx, m.workers)
	pool.Run(jobs, func(r worker.Result) {
		gr := r.(*groupResult)
		if gr.err != nil {
			return
		}
		perGroup[gr.index] = gr.pairs
		completed++
		progress.report(StageMatch, completed, len(groups))
	})

	if completed < len(groups) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("match cancelled after %d of %d groups: %w", completed, len(groups), err)
		}
	}

	total := 0
	for _, pairs := range perGroup {
		total += len(pairs)
	}
	out := make([]model.DuplicatePair, 0, total)
	for _, pairs := range perGroup {
		out = append(out, pairs...)
	}
	sortPairs(out)

	m.logger.DebugContext(ctx, "windowed match complete",
		"groups", len(groups),
		"records", len(records),
		"pairs", len(out),
		"window_hours", cfg.MaxElapsedHours,
		"threshold", cfg.SimilarityThreshold)

	return out, nil
}

// originGroup holds every record of one origin in input order
type originGroup struct {
	origin  string
	records []model.Record
}

// partitionByOrigin splits records into groups ordered by origin name.
// Every record lands in exactly one group.
func partitionByOrigin(records []model.Record) []originGroup {
	index := make(map[string]int)
	var groups []originGroup
	for _, r := range records {
		i, ok := index[r.Origin]
		if !ok {
			i = len(groups)
			index[r.Origin] = i
			groups = append(groups, originGroup{origin: r.Origin})
		}
		groups[i].records = append(groups[i].records, r)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].origin < groups[b].origin
	})
	return groups
}

// timeline returns the dated records of a group sorted by creation time.
// Records created at the same instant keep their input order.
func timeline(records []model.Record) []model.Record {
	dated := make([]model.Record, 0, len(records))
	for _, r := range records {
		if r.HasCreated() {
			dated = append(dated, r)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Created.Before(dated[j].Created)
	})
	return dated
}

// scanWindow compares each record with the later records created no more than
// window after it. sorted must be ascending by Created; the inner scan stops
// at the first record outside the window.
func scanWindow(origin string, sorted []model.Record, window time.Duration, threshold int, scorer similarity.Scorer) []model.DuplicatePair {
	var pairs []model.DuplicatePair
	for i := 0; i < len(sorted); i++ {
		outer := sorted[i]
		for j := i + 1; j < len(sorted); j++ {
			inner := sorted[j]
			elapsed := inner.Created.Sub(outer.Created)
			if elapsed > window {
				break
			}

			score := scorer.Score(outer.Description, inner.Description)
			if score < threshold {
				continue
			}
			pairs = append(pairs, model.DuplicatePair{
				Origin:          origin,
				Left:            outer,
				Right:           inner,
				Elapsed:         elapsed,
				ElapsedCategory: model.CategorizeElapsed(elapsed),
				Similarity:      score,
			})
		}
	}
	return pairs
}

func sortPairs(pairs []model.DuplicatePair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		if !a.Left.Created.Equal(b.Left.Created) {
			return a.Left.Created.Before(b.Left.Created)
		}
		if a.Left.Identifier != b.Left.Identifier {
			return a.Left.Identifier < b.Left.Identifier
		}
		return a.Right.Identifier < b.Right.Identifier
	})
}

// groupJob scans one origin group on a pool worker
type groupJob struct {
	index     int
	group     originGroup
	window    time.Duration
	threshold int
	scorer    similarity.Scorer
}

// Execute checks for cancellation once, then scans the whole group
func (j *groupJob) Execute(ctx context.Context) worker.Result {
	if err := ctx.Err(); err != nil {
		return &groupResult{index: j.index, err: err}
	}
	sorted := timeline(j.group.records)
	return &groupResult{
		index: j.index,
		pairs: scanWindow(j.group.origin, sorted, j.window, j.threshold, j.scorer),
	}
}

type groupResult struct {
	index int
	pairs []model.DuplicatePair
	err   error
}

func (r *groupResult) GetError() error {
	return r.err
}
