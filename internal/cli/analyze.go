package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/dupdetect/internal/detect"
	"github.com/ppiankov/dupdetect/internal/pipeline"
)

var (
	outJSON    string
	outMD      string
	outExport  string
	timeout    time.Duration
	noProgress bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Find probable duplicate tickets in one CSV export",
	Long: `Analyze loads a ticket export and:
- Groups tickets by site and orders them by creation time
- Compares every pair created within the time window
- Reports pairs whose descriptions score at or above the threshold
- Optionally runs the same-day, rapid-fire, exact-match and
  category-pattern detectors

Example:
  dupdetect analyze tickets.csv
  dupdetect analyze tickets.csv --window 24 --threshold 90
  dupdetect analyze tickets.csv --all --export duplicates.xlsx --json report.json`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, analysisBindings)
	},
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	addAnalysisFlags(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().StringVar(&outExport, "export", "", "export path, .csv or .xlsx (optional)")

	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 0, "abort the analysis after this long (0 = no limit)")
	analyzeCmd.Flags().BoolVar(&noProgress, "no-progress", false, "do not draw the progress line")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadAnalysisConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	p, err := pipeline.NewPipeline(cfg, log)
	if err != nil {
		return err
	}
	defer closePipeline(p)

	if cfg.Output.Verbose {
		backend, fallback := p.Backend()
		fmt.Fprintf(cmd.ErrOrStderr(), "Analyzing: %s\n", path)
		fmt.Fprintf(cmd.ErrOrStderr(), "Window: %dh, threshold: %d%%, backend: %s", cfg.Analysis.MaxElapsedHours, cfg.Analysis.SimilarityThreshold, backend)
		if fallback {
			fmt.Fprint(cmd.ErrOrStderr(), " (fallback)")
		}
		fmt.Fprintln(cmd.ErrOrStderr())
	}

	var progress detect.ProgressFunc
	var line *progressLine
	if !noProgress {
		line = newProgressLine(cmd.ErrOrStderr(), cfg.Output.ProgressRate)
		progress = line.Update
	}

	report, err := p.Run(ctx, path, progress)
	if line != nil {
		line.Finish()
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	out := pipeline.Outputs{JSON: outJSON, Markdown: outMD, Export: outExport}
	if err := p.RenderReport(cmd.OutOrStdout(), report, out, cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

// closePipeline saves the score cache, logging rather than failing the command
func closePipeline(p *pipeline.Pipeline) {
	if err := p.Close(); err != nil {
		log.Warn("score cache not saved", "error", err)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
