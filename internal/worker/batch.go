package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/dupdetect/internal/model"
)

// Analyzer defines the interface for analyzing one ticket export
type Analyzer interface {
	AnalyzeFile(ctx context.Context, path string) (*model.Report, error)
}

// FileJob represents the analysis of a single input file
type FileJob struct {
	Index    int
	Path     string
	Analyzer Analyzer
}

// Execute executes the file job
func (j *FileJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &FileResult{Index: j.Index, Path: j.Path, Error: err}
	}

	report, err := j.Analyzer.AnalyzeFile(ctx, j.Path)
	if err != nil {
		return &FileResult{
			Index: j.Index,
			Path:  j.Path,
			Error: err,
		}
	}
	return &FileResult{
		Index:  j.Index,
		Path:   j.Path,
		Report: report,
	}
}

// FileResult represents the result of a file job
type FileResult struct {
	Index  int
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the file result
func (r *FileResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple files concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessFiles analyzes files concurrently. Results come back in input order;
// onDone, if set, sees each result as soon as it completes.
// Files not started before ctx was cancelled carry ctx's error.
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string, onDone func(*FileResult)) []*FileResult {
	if len(paths) == 0 {
		return []*FileResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)

	jobs := make([]Job, len(paths))
	for i, path := range paths {
		jobs[i] = &FileJob{
			Index:    i,
			Path:     path,
			Analyzer: b.analyzer,
		}
	}

	fileResults := make([]*FileResult, len(paths))
	pool.Run(jobs, func(r Result) {
		fr := r.(*FileResult)
		fileResults[fr.Index] = fr
		if onDone != nil {
			onDone(fr)
		}
	})

	for i, fr := range fileResults {
		if fr != nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		fileResults[i] = &FileResult{Index: i, Path: paths[i], Error: err}
	}

	return fileResults
}

// ReadPathsFromFile reads input paths from a file (one per line)
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
