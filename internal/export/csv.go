package export

import (
	"encoding/csv"
	"fmt"
	"os"
)

// WriteCSV writes one sheet as a UTF-8 CSV file
func WriteCSV(path string, sheet Sheet) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	w := csv.NewWriter(file)
	if err := w.Write(sheet.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(sheet.Header))
	for _, row := range sheet.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = fmt.Sprint(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return file.Close()
}
