// Package pipeline ties loading, analysis and rendering together for one input file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ppiankov/dupdetect/internal/cache"
	"github.com/ppiankov/dupdetect/internal/detect"
	"github.com/ppiankov/dupdetect/internal/export"
	"github.com/ppiankov/dupdetect/internal/ingest"
	"github.com/ppiankov/dupdetect/internal/logger"
	"github.com/ppiankov/dupdetect/internal/model"
	"github.com/ppiankov/dupdetect/internal/similarity"
)

// Pipeline orchestrates the complete analysis of one export
type Pipeline struct {
	config   *model.Config
	analyzer *detect.Analyzer
	cache    cache.Cache         // nil when caching is disabled
	persist  *cache.LayeredCache // set when scores are kept between runs
	backend  similarity.Selection
	logger   *slog.Logger
}

// NewPipeline validates cfg and prepares the scorer, cache and analyzer.
// The similarity backend is chosen once here and reused for every file.
func NewPipeline(cfg *model.Config, log *slog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	sel := similarity.Select(cfg.Scoring.Backend, log)

	p := &Pipeline{
		config:  cfg,
		backend: sel,
		logger:  log,
	}

	switch {
	case !cfg.Scoring.CacheEnabled:
	case cfg.Scoring.CacheFile != "":
		lc, err := cache.OpenLayeredCache(cfg.Scoring.CacheFile, cfg.Scoring.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("open score cache: %w", err)
		}
		log.Debug("score cache loaded", "path", lc.Path(), "entries", lc.Len())
		p.cache, p.persist = lc, lc
	default:
		p.cache = cache.NewMemoryCache(cfg.Scoring.CacheTTL, cfg.Scoring.CacheTTL*2)
	}
	p.analyzer = detect.NewAnalyzer(sel, p.cache, cfg.Concurrency.Workers, log)

	return p, nil
}

// Close writes persisted scores back to disk. It is safe to call when
// persistence is disabled.
func (p *Pipeline) Close() error {
	if p.persist == nil {
		return nil
	}
	if err := p.persist.Persist(); err != nil {
		return fmt.Errorf("persist score cache: %w", err)
	}
	p.logger.Debug("score cache saved", "path", p.persist.Path(), "entries", p.persist.Len())
	return nil
}

// Backend returns the similarity backend in use and whether it is a fallback
func (p *Pipeline) Backend() (string, bool) {
	return p.backend.Scorer.Backend(), p.backend.Fallback
}

// Run loads path, analyzes the records and returns the complete report.
// progress may be nil.
func (p *Pipeline) Run(ctx context.Context, path string, progress detect.ProgressFunc) (*model.Report, error) {
	ctx = logger.WithFields(ctx, logger.Fields{Source: path, Component: "pipeline"})

	// 1. Load and validate the export
	ds, err := ingest.Load(path, ingest.OptionsFromConfig(p.config.Ingest))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if ds.Summary.Repaired {
		r := ds.Summary.Repair
		p.logger.WarnContext(ctx, "input was malformed, recovered in memory",
			"encoding", r.Encoding,
			"malformed_rows", r.MalformedRows,
			"blank_rows", r.BlankRows,
			"duplicate_rows", r.DuplicateRows)
	}
	p.logger.DebugContext(ctx, "loaded records",
		"records", ds.Summary.Total,
		"origins", ds.Summary.Origins,
		"undated", ds.Summary.Undated,
		"skipped", ds.Summary.Skipped)

	// 2. Analyze
	result, err := p.analyzer.Analyze(ctx, ds.Records, detect.Options{
		Analysis:  p.config.Analysis,
		Detectors: p.config.Detectors,
	}, progress)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", path, err)
	}

	ctx = logger.WithFields(ctx, logger.Fields{RunID: result.RunID})
	p.logger.InfoContext(ctx, "analysis complete",
		"pairs", len(result.Pairs),
		"backend", result.Backend,
		"duration", result.Duration.Round(time.Millisecond))

	return &model.Report{
		Source:      path,
		GeneratedAt: time.Now().UTC(),
		Ingest:      ds.Summary,
		Analysis:    result,
	}, nil
}

// AnalyzeFile runs the pipeline without progress reporting
func (p *Pipeline) AnalyzeFile(ctx context.Context, path string) (*model.Report, error) {
	return p.Run(ctx, path, nil)
}

// Outputs names the files to write for one report. Empty paths are skipped.
type Outputs struct {
	JSON     string
	Markdown string
	Export   string // .csv, .xlsx or .xls
}

// RenderReport writes the requested files and prints the summary to w
func (p *Pipeline) RenderReport(w io.Writer, report *model.Report, out Outputs, verbose bool) error {
	r := NewRenderer(w)

	if out.JSON != "" {
		if err := r.RenderJSON(report, out.JSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		r.wrote("JSON", out.JSON)
	}

	if out.Markdown != "" {
		if err := r.RenderMarkdown(report, out.Markdown); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		r.wrote("Markdown", out.Markdown)
	}

	if out.Export != "" {
		written, err := export.Write(out.Export, report.Analysis)
		switch {
		case errors.Is(err, export.ErrNothingToExport):
			p.logger.Info("nothing to export", "path", out.Export)
		case err != nil:
			return fmt.Errorf("export: %w", err)
		default:
			r.wrote("Export", written)
		}
	}

	r.RenderSummary(report, verbose)
	return nil
}
