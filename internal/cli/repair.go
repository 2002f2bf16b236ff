package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/dupdetect/internal/ingest"
)

var (
	repairBackup    bool
	repairOverwrite bool
	repairEncoding  string
)

// repairCmd represents the repair command
var repairCmd = &cobra.Command{
	Use:   "repair <file>",
	Short: "Write a cleaned copy of a malformed CSV export",
	Long: `Repair reads an export that fails strict parsing and writes a clean copy:
- Detects the input encoding (UTF-8 with or without BOM, else Windows-1252)
- Skips rows with the wrong number of fields or broken quoting
- Trims whitespace and removes blank and duplicate rows

The analysis commands recover in memory on their own; use repair to keep
a cleaned file for other tools.

Example:
  dupdetect repair tickets.csv
  dupdetect repair tickets.csv --overwrite --backup
  dupdetect repair tickets.csv --encoding windows-1252`,
	Args: cobra.ExactArgs(1),
	RunE: runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)

	repairCmd.Flags().BoolVar(&repairBackup, "backup", false, "keep the original as <file>.bak")
	repairCmd.Flags().BoolVar(&repairOverwrite, "overwrite", false, "replace the input instead of writing <name>_repaired.csv")
	repairCmd.Flags().StringVar(&repairEncoding, "encoding", "utf-8", "output encoding (utf-8, windows-1252)")
}

func runRepair(cmd *cobra.Command, args []string) error {
	report, err := ingest.Repair(args[0], ingest.RepairOptions{
		Backup:    repairBackup,
		Overwrite: repairOverwrite,
		Encoding:  repairEncoding,
	})
	if err != nil {
		return fmt.Errorf("repair failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if report.Changed() {
		fmt.Fprintf(out, "%s Repaired %s\n", color.GreenString("✓"), report.Source)
	} else {
		fmt.Fprintf(out, "%s %s needed no changes\n", color.GreenString("✓"), report.Source)
	}
	fmt.Fprintf(out, "  Output:          %s (%s)\n", report.Output, report.TargetEncoding)
	if report.Backup != "" {
		fmt.Fprintf(out, "  Backup:          %s\n", report.Backup)
	}
	fmt.Fprintf(out, "  Input encoding:  %s\n", report.Encoding)
	fmt.Fprintf(out, "  Rows:            %d read, %d written\n", report.RowsRead, report.RowsWritten)
	if report.Changed() {
		fmt.Fprintf(out, "  Removed:         %d malformed, %d blank, %d duplicate\n",
			report.MalformedRows, report.BlankRows, report.DuplicateRows)
		fmt.Fprintf(out, "  Trimmed cells:   %d\n", report.TrimmedCells)
	}
	return nil
}
