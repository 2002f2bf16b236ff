package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/dupdetect/internal/model"
)

// table is a decoded CSV: a header row and data rows of the same width
type table struct {
	header []string
	rows   [][]string
}

// parseStrict reads UTF-8 CSV and fails on the first malformed row
func parseStrict(data []byte) (*table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, errors.New("input is not valid UTF-8")
	}

	r := csv.NewReader(bytes.NewReader(data))
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	r.FieldsPerRecord = len(header)

	t := &table{header: header}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

// recoverTable decodes data in its detected encoding and reads it leniently:
// rows that cannot be parsed or have the wrong width are skipped, cells are
// trimmed, and blank and repeated rows are dropped.
func recoverTable(data []byte) (*table, *model.RepairReport, error) {
	report := &model.RepairReport{Encoding: detectEncoding(data)}

	text, err := decode(data, report.Encoding)
	if err != nil {
		return nil, nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrEmptyFile
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	t := &table{header: header}
	seen := make(map[string]bool)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				report.RowsRead++
				report.MalformedRows++
				continue
			}
			return nil, nil, err
		}
		report.RowsRead++

		if len(rec) != len(header) {
			if isBlank(rec) {
				report.BlankRows++
			} else {
				report.MalformedRows++
			}
			continue
		}

		for i, cell := range rec {
			if trimmed := strings.TrimSpace(cell); trimmed != cell {
				rec[i] = trimmed
				report.TrimmedCells++
			}
		}
		if isBlank(rec) {
			report.BlankRows++
			continue
		}

		key := strings.Join(rec, "\x00")
		if seen[key] {
			report.DuplicateRows++
			continue
		}
		seen[key] = true
		t.rows = append(t.rows, rec)
	}

	report.RowsWritten = len(t.rows)
	return t, report, nil
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// write encodes the table as CSV in the named encoding
func (t *table) write(w io.Writer, encodingName string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(t.header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.rows); err != nil {
		return err
	}

	out, err := encode(buf.Bytes(), encodingName)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// columnIndex maps header names to positions. Exact matches win; otherwise
// names are compared case-insensitively after trimming.
func (t *table) columnIndex(name string) int {
	if name == "" {
		return -1
	}
	for i, h := range t.header {
		if h == name {
			return i
		}
	}
	for i, h := range t.header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}
