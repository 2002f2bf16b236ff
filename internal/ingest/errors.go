// Package ingest turns ticket exports into validated records.
package ingest

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyFile is returned for a file with no content
	ErrEmptyFile = errors.New("input file is empty")

	// ErrNoRecords is returned when no row carries both an origin and an identifier
	ErrNoRecords = errors.New("no usable records in input")
)

// ColumnsError reports required columns missing from the header
type ColumnsError struct {
	Missing []string
}

func (e *ColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}
