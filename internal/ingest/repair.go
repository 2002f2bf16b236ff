package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/dupdetect/internal/model"
)

// RepairOptions controls how a repaired file is written
type RepairOptions struct {
	Backup    bool   // Copy the original to <path>.bak first
	Overwrite bool   // Replace the original instead of writing <base>_repaired<ext>
	Encoding  string // Target encoding, utf-8 when empty
}

// RepairedPath returns where Repair writes its output for path
func RepairedPath(path string, overwrite bool) string {
	if overwrite {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_repaired" + ext
}

// Repair recovers a damaged export and writes the cleaned CSV to disk
func Repair(path string, opts RepairOptions) (*model.RepairReport, error) {
	target, _, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	t, report, err := recoverTable(data)
	if err != nil {
		return nil, fmt.Errorf("recover %s: %w", path, err)
	}
	report.Source = path
	report.TargetEncoding = target

	if opts.Backup {
		backup := path + ".bak"
		if err := os.WriteFile(backup, data, 0o644); err != nil {
			return nil, fmt.Errorf("write backup: %w", err)
		}
		report.Backup = backup
	}

	var buf bytes.Buffer
	if err := t.write(&buf, target); err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}

	output := RepairedPath(path, opts.Overwrite)
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	report.Output = output

	return report, nil
}
