package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ppiankov/dupdetect/internal/model"
)

// ErrNothingToExport is returned when the requested output would be empty
var ErrNothingToExport = errors.New("no duplicates to export")

// Write exports result according to the path's extension: .csv writes the
// primary pairs, .xlsx and .xls write a workbook with one sheet per enabled
// detector, anything else gets .csv appended. It returns the path written.
func Write(path string, result *model.AnalysisResult) (string, error) {
	if result == nil {
		return "", ErrNothingToExport
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return path, writePairsCSV(path, result)
	case ".xlsx", ".xls":
		if err := WriteXLSX(path, Sheets(result)); err != nil {
			return "", err
		}
		return path, nil
	default:
		path += ".csv"
		return path, writePairsCSV(path, result)
	}
}

func writePairsCSV(path string, result *model.AnalysisResult) error {
	if len(result.Pairs) == 0 {
		return ErrNothingToExport
	}
	if err := WriteCSV(path, PairRows(result.Pairs)); err != nil {
		return fmt.Errorf("export CSV: %w", err)
	}
	return nil
}
