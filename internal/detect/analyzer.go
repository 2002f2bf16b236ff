package detect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/dupdetect/internal/cache"
	"github.com/ppiankov/dupdetect/internal/logger"
	"github.com/ppiankov/dupdetect/internal/model"
	"github.com/ppiankov/dupdetect/internal/similarity"
)

// Options selects what one analysis run does
type Options struct {
	Analysis  model.AnalysisConfig
	Detectors model.DetectorSet
}

// Analyzer runs the windowed matcher and the enabled auxiliary detectors over
// one in-memory record set
type Analyzer struct {
	matcher  *Matcher
	scorer   similarity.Scorer
	backend  string
	fallback bool
	logger   *slog.Logger
}

// NewAnalyzer creates an analyzer using the selected similarity backend.
// When c is non-nil pair scores are memoized in it.
func NewAnalyzer(sel similarity.Selection, c cache.Cache, workers int, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}

	var scorer similarity.Scorer = sel.Scorer
	if c != nil {
		scorer = similarity.NewCachedScorer(sel.Scorer, c)
	}

	return &Analyzer{
		matcher:  NewMatcher(scorer, workers, log),
		scorer:   scorer,
		backend:  sel.Scorer.Backend(),
		fallback: sel.Fallback,
		logger:   log,
	}
}

// Analyze validates the options, runs the matcher and then the enabled
// detectors concurrently. Nothing runs when the options are invalid.
func (a *Analyzer) Analyze(ctx context.Context, records []model.Record, opts Options, progress ProgressFunc) (*model.AnalysisResult, error) {
	if err := opts.Analysis.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &model.AnalysisResult{
		RunID:           uuid.NewString(),
		StartedAt:       start.UTC(),
		Config:          opts.Analysis,
		Detectors:       opts.Detectors,
		Backend:         a.backend,
		BackendFallback: a.fallback,
		InputRecords:    len(records),
		Origins:         countOrigins(records),
	}
	for _, r := range records {
		if !r.HasCreated() {
			result.UndatedRecords++
		}
	}
	ctx = logger.WithFields(ctx, logger.Fields{RunID: result.RunID, Component: "detect"})

	pairs, err := a.matcher.Match(ctx, records, opts.Analysis, progress)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	result.Pairs = pairs
	result.Stats = Summarize(pairs)

	if opts.Detectors.Any() {
		if err := a.runDetectors(ctx, records, opts, result, progress); err != nil {
			return nil, fmt.Errorf("detectors: %w", err)
		}
	}

	result.Duration = time.Since(start)

	attrs := []any{
		"records", result.InputRecords,
		"pairs", result.Stats.TotalPairs,
		"backend", result.Backend,
		"duration", result.Duration,
	}
	if cs, ok := a.scorer.(*similarity.CachedScorer); ok {
		hits, misses := cs.Stats()
		attrs = append(attrs, "cache_hits", hits, "cache_misses", misses)
	}
	a.logger.DebugContext(ctx, "analysis complete", attrs...)

	return result, nil
}

// runDetectors fans the enabled detectors out with errgroup. Each writes only
// its own result field; completions are reported from this goroutine.
func (a *Analyzer) runDetectors(ctx context.Context, records []model.Record, opts Options, result *model.AnalysisResult, progress ProgressFunc) error {
	g, gctx := errgroup.WithContext(ctx)
	finished := make(chan string, 4)

	launch := func(stage string, fn func() error) {
		g.Go(func() error {
			defer func() { finished <- stage }()
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn()
		})
	}

	launched := 0
	if opts.Detectors.SameDay {
		launched++
		launch(StageSameDay, func() error {
			result.SameDay = SameDay(records)
			return nil
		})
	}
	if opts.Detectors.RapidFire {
		launched++
		launch(StageRapidFire, func() error {
			pairs, err := RapidFire(gctx, records, opts.Analysis.SimilarityThreshold, a.scorer)
			if err != nil {
				return err
			}
			result.RapidFire = pairs
			return nil
		})
	}
	if opts.Detectors.ExactMatch {
		launched++
		launch(StageExactMatch, func() error {
			result.ExactMatches = ExactMatch(records)
			return nil
		})
	}
	if opts.Detectors.CategoryPatterns {
		launched++
		launch(StageCategoryPatterns, func() error {
			result.CategoryPatterns = CategoryPatterns(records)
			return nil
		})
	}

	for i := 0; i < launched; i++ {
		stage := <-finished
		progress.report(stage, 1, 1)
	}

	return g.Wait()
}

func countOrigins(records []model.Record) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.Origin] = struct{}{}
	}
	return len(seen)
}
