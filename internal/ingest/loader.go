package ingest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/dupdetect/internal/model"
)

// Options controls how an export is read
type Options struct {
	AutoRepair      bool            // Recover from encoding and row errors instead of failing
	ExcludeResolved bool            // Drop records with a resolution marker
	DateLayouts     []string        // Go time layouts for Created, tried in order
	Columns         model.ColumnMap // Header names; empty fields use the defaults
}

// OptionsFromConfig builds loader options from the ingest configuration
func OptionsFromConfig(cfg model.IngestConfig) Options {
	return Options{
		AutoRepair:      cfg.AutoRepair,
		ExcludeResolved: cfg.ExcludeResolved,
		DateLayouts:     cfg.DateLayouts,
		Columns:         cfg.Columns,
	}
}

// Dataset is a validated record set ready for analysis
type Dataset struct {
	Source  string
	Records []model.Record
	Summary model.IngestSummary
}

// Load reads a CSV export. Every returned record has an origin and an
// identifier; Created is either parsed or zero.
func Load(path string, opts Options) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	ds, err := Parse(data, opts)
	if err != nil {
		return nil, err
	}
	ds.Source = path
	if ds.Summary.Repair != nil {
		ds.Summary.Repair.Source = path
	}
	return ds, nil
}

// Parse reads CSV export content
func Parse(data []byte, opts Options) (*Dataset, error) {
	if len(bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))) == 0 {
		return nil, ErrEmptyFile
	}

	var summary model.IngestSummary
	t, strictErr := parseStrict(data)
	if strictErr != nil {
		if !opts.AutoRepair {
			return nil, fmt.Errorf("parse CSV (auto-repair disabled): %w", strictErr)
		}
		recovered, report, err := recoverTable(data)
		if err != nil {
			return nil, fmt.Errorf("parse CSV: %v; recovery failed: %w", strictErr, err)
		}
		report.TargetEncoding = EncodingUTF8
		t = recovered
		summary.Repaired = true
		summary.Repair = report
	}

	records, err := buildRecords(t, opts, &summary)
	if err != nil {
		return nil, err
	}
	return &Dataset{Records: records, Summary: summary}, nil
}

type columnPositions struct {
	origin, identifier, description, created   int
	resolved, category, subcategory, priority int
}

func resolveColumns(t *table, names model.ColumnMap) (columnPositions, error) {
	defaults := model.DefaultColumns()
	pick := func(name, fallback string) string {
		if name != "" {
			return name
		}
		return fallback
	}
	names = model.ColumnMap{
		Origin:      pick(names.Origin, defaults.Origin),
		Identifier:  pick(names.Identifier, defaults.Identifier),
		Description: pick(names.Description, defaults.Description),
		Created:     pick(names.Created, defaults.Created),
		Resolved:    pick(names.Resolved, defaults.Resolved),
		Category:    pick(names.Category, defaults.Category),
		Subcategory: pick(names.Subcategory, defaults.Subcategory),
		Priority:    pick(names.Priority, defaults.Priority),
	}

	pos := columnPositions{
		origin:      t.columnIndex(names.Origin),
		identifier:  t.columnIndex(names.Identifier),
		description: t.columnIndex(names.Description),
		created:     t.columnIndex(names.Created),
		resolved:    t.columnIndex(names.Resolved),
		category:    t.columnIndex(names.Category),
		subcategory: t.columnIndex(names.Subcategory),
		priority:    t.columnIndex(names.Priority),
	}

	var missing []string
	for _, req := range []struct {
		name string
		idx  int
	}{
		{names.Origin, pos.origin},
		{names.Identifier, pos.identifier},
		{names.Description, pos.description},
		{names.Created, pos.created},
	} {
		if req.idx < 0 {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return pos, &ColumnsError{Missing: missing}
	}
	return pos, nil
}

func buildRecords(t *table, opts Options, summary *model.IngestSummary) ([]model.Record, error) {
	pos, err := resolveColumns(t, opts.Columns)
	if err != nil {
		return nil, err
	}

	layouts := opts.DateLayouts
	if len(layouts) == 0 {
		layouts = []string{model.DefaultDateLayout}
	}

	cell := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	origins := make(map[string]struct{})
	records := make([]model.Record, 0, len(t.rows))
	for _, row := range t.rows {
		r := model.Record{
			Origin:      cell(row, pos.origin),
			Identifier:  cell(row, pos.identifier),
			Description: cell(row, pos.description),
			Created:     parseTime(cell(row, pos.created), layouts),
			Resolved:    cell(row, pos.resolved),
			Category:    cell(row, pos.category),
			Subcategory: cell(row, pos.subcategory),
			Priority:    cell(row, pos.priority),
		}
		if r.Origin == "" || r.Identifier == "" {
			summary.Skipped++
			continue
		}
		if r.IsResolved() {
			summary.Resolved++
			if opts.ExcludeResolved {
				summary.ExcludedResolved++
				continue
			}
		}

		if !r.HasCreated() {
			summary.Undated++
		} else {
			if summary.Earliest.IsZero() || r.Created.Before(summary.Earliest) {
				summary.Earliest = r.Created
			}
			if r.Created.After(summary.Latest) {
				summary.Latest = r.Created
			}
		}
		origins[r.Origin] = struct{}{}
		records = append(records, r)
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	summary.Total = len(records)
	summary.Origins = len(origins)
	return records, nil
}

// parseTime tries each layout in order; unparsable values become the zero time
func parseTime(value string, layouts []string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}
