package model

import "time"

// Report is everything produced for one input file: what was loaded and what was found
type Report struct {
	Source      string          `json:"source"`       // Input path as given
	GeneratedAt time.Time       `json:"generated_at"` // When the run finished
	Ingest      IngestSummary   `json:"ingest"`
	Analysis    *AnalysisResult `json:"analysis"`
}

// IngestSummary describes the loaded record set
type IngestSummary struct {
	Total            int       `json:"total"`             // Records handed to the analyzer
	Origins          int       `json:"origins"`           // Distinct origins
	Resolved         int       `json:"resolved"`          // Records carrying a resolution marker
	ExcludedResolved int       `json:"excluded_resolved"` // Resolved records dropped on request
	Undated          int       `json:"undated"`           // Created missing or unparsable
	Skipped          int       `json:"skipped"`           // Rows without origin or identifier
	Earliest         time.Time `json:"earliest,omitempty"`
	Latest           time.Time `json:"latest,omitempty"`

	Repaired bool          `json:"repaired"`         // Strict parse failed and recovery was used
	Repair   *RepairReport `json:"repair,omitempty"` // What recovery changed
}

// RepairReport describes what CSV recovery changed
type RepairReport struct {
	Source         string `json:"source"`
	Output         string `json:"output,omitempty"` // Written file, empty for in-memory recovery
	Backup         string `json:"backup,omitempty"`
	Encoding       string `json:"encoding"`        // Detected input encoding
	TargetEncoding string `json:"target_encoding"` // Encoding of the written file

	RowsRead      int `json:"rows_read"`
	RowsWritten   int `json:"rows_written"`
	MalformedRows int `json:"malformed_rows"` // Wrong field count or unparsable quoting
	BlankRows     int `json:"blank_rows"`
	DuplicateRows int `json:"duplicate_rows"`
	TrimmedCells  int `json:"trimmed_cells"`
}

// Changed reports whether recovery altered any row or cell
func (r *RepairReport) Changed() bool {
	if r == nil {
		return false
	}
	return r.MalformedRows > 0 || r.BlankRows > 0 || r.DuplicateRows > 0 || r.TrimmedCells > 0
}

// HasDuplicates reports whether the analysis found anything at all
func (r *Report) HasDuplicates() bool {
	a := r.Analysis
	if a == nil {
		return false
	}
	return len(a.Pairs) > 0 || len(a.SameDay) > 0 || len(a.RapidFire) > 0 ||
		len(a.ExactMatches) > 0 || len(a.CategoryPatterns) > 0
}
