package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/dupdetect/internal/export"
	"github.com/ppiankov/dupdetect/internal/model"
	"github.com/ppiankov/dupdetect/internal/pipeline"
	"github.com/ppiankov/dupdetect/internal/worker"
)

var (
	listFile     string
	outputDir    string
	formats      []string
	batchTimeout time.Duration
)

var batchFormats = map[string]string{
	"json": ".json",
	"md":   ".md",
	"xlsx": ".xlsx",
	"csv":  ".csv",
}

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [file...]",
	Short: "Analyze several CSV exports in parallel",
	Long: `Batch analyzes multiple exports concurrently:
- Read input paths from arguments and/or a list file (one per line)
- Analyze files in parallel with a configurable worker count
- Each file uses concurrent per-site matching
- Generate individual reports for each file

Example:
  dupdetect batch site-a.csv site-b.csv
  dupdetect batch --from exports.txt --concurrency 4 --output-dir ./reports
  dupdetect batch --from exports.txt --formats json,xlsx --all`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && listFile == "" {
			return errors.New("no input files: pass paths or --from")
		}
		return bindFlags(cmd, append(analysisBindings, flagBinding{"concurrency.batch_files", "concurrency"}))
	},
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addAnalysisFlags(batchCmd)

	batchCmd.Flags().StringVar(&listFile, "from", "", "file listing input paths, one per line")
	batchCmd.Flags().Int("concurrency", model.DefaultConfig().Concurrency.BatchFiles, "number of files analyzed in parallel")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./dupdetect-reports", "output directory for reports")
	batchCmd.Flags().StringSliceVar(&formats, "formats", []string{"json", "md"}, "report formats (json, md, xlsx, csv)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	for _, f := range formats {
		if _, ok := batchFormats[f]; !ok {
			return fmt.Errorf("unknown format %q (want json, md, xlsx or csv)", f)
		}
	}

	paths, err := batchInputs(args, listFile)
	if err != nil {
		return err
	}

	cfg, err := loadAnalysisConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Dupdetect Batch Processing\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Input files:  %d\n", len(paths))
	fmt.Fprintf(stderr, "  Workers:      %d\n", cfg.Concurrency.BatchFiles)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(stderr, "  Formats:      %s\n", strings.Join(formats, ", "))
	fmt.Fprintf(stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg, log)
	if err != nil {
		return err
	}
	defer closePipeline(p)

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.BatchFiles)
	renderer := pipeline.NewRenderer(cmd.OutOrStdout())
	names := make(map[string]int)

	successCount := 0

	processor.ProcessFiles(ctx, paths, func(result *worker.FileResult) {
		if result.Error != nil {
			fmt.Fprintf(stderr, "%s %s: %v\n", color.RedString("✗"), result.Path, result.Error)
			return
		}

		stem := uniqueStem(names, sanitizeFilename(result.Path))
		if err := writeBatchOutputs(renderer, result.Report, outputDir, stem, formats); err != nil {
			fmt.Fprintf(stderr, "%s %s: %v\n", color.RedString("✗"), result.Path, err)
			return
		}

		successCount++
		summarizeBatchResult(stderr, result.Report)
		if cfg.Output.Verbose {
			renderer.RenderSummary(result.Report, true)
		}
	})

	// Summary
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Batch Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d files\n", len(paths))
	fmt.Fprintf(stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(stderr, "  Failures:  %d\n", len(paths)-successCount)
	fmt.Fprintf(stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(stderr, "\n")

	if successCount < len(paths) {
		return fmt.Errorf("%d of %d files failed", len(paths)-successCount, len(paths))
	}
	return nil
}

// batchInputs merges positional paths and the list file, dropping repeats
func batchInputs(args []string, list string) ([]string, error) {
	paths := append([]string(nil), args...)
	if list != "" {
		listed, err := worker.ReadPathsFromFile(list)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", list, err)
		}
		paths = append(paths, listed...)
	}

	seen := make(map[string]bool, len(paths))
	unique := paths[:0]
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}
	if len(unique) == 0 {
		return nil, errors.New("no input files")
	}
	return unique, nil
}

func writeBatchOutputs(r *pipeline.Renderer, report *model.Report, dir, stem string, formats []string) error {
	for _, f := range formats {
		path := filepath.Join(dir, stem+batchFormats[f])

		var err error
		switch f {
		case "json":
			err = r.RenderJSON(report, path)
		case "md":
			err = r.RenderMarkdown(report, path)
		case "xlsx", "csv":
			_, err = export.Write(path, report.Analysis)
			if errors.Is(err, export.ErrNothingToExport) {
				err = nil
			}
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", f, err)
		}
	}
	return nil
}

func summarizeBatchResult(w io.Writer, report *model.Report) {
	a := report.Analysis
	status := color.GreenString("✓")
	if report.HasDuplicates() {
		status = color.YellowString("✓")
	}
	fmt.Fprintf(w, "%s %s (%d tickets, %d pairs", status, report.Source, report.Ingest.Total, len(a.Pairs))
	if report.Ingest.Repaired {
		fmt.Fprint(w, ", recovered")
	}
	fmt.Fprintln(w, ")")
}

// sanitizeFilename turns an input path into a safe report file stem
func sanitizeFilename(path string) string {
	s := filepath.Base(path)
	s = strings.TrimSuffix(s, filepath.Ext(s))

	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(s)

	if s == "" || s == "." {
		s = "report"
	}

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}

// uniqueStem suffixes repeated stems so that files with the same base name
// in different directories do not overwrite each other
func uniqueStem(used map[string]int, stem string) string {
	n := used[stem]
	used[stem] = n + 1
	if n == 0 {
		return stem
	}
	return fmt.Sprintf("%s-%d", stem, n+1)
}
