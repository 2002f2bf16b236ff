package export

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/dupdetect/internal/model"
)

var base = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func record(origin, id, desc string, offset time.Duration) model.Record {
	return model.Record{Origin: origin, Identifier: id, Description: desc, Created: base.Add(offset)}
}

func sampleResult() *model.AnalysisResult {
	left := record("Site-A", "INC001", "printer jam", 0)
	right := record("Site-A", "INC002", "Printer jam.", 90*time.Minute)

	return &model.AnalysisResult{
		RunID:        "run-1",
		Config:       model.AnalysisConfig{MaxElapsedHours: 72, SimilarityThreshold: 85},
		Detectors:    model.DetectorSet{SameDay: true, ExactMatch: true, RapidFire: true},
		Backend:      "sequence",
		InputRecords: 2,
		Pairs: []model.DuplicatePair{{
			Origin:          "Site-A",
			Left:            left,
			Right:           right,
			Elapsed:         90 * time.Minute,
			ElapsedCategory: model.ElapsedOneToFour,
			Similarity:      96,
		}},
		Stats: model.Statistics{
			TotalPairs: 1, AffectedOrigins: 1, UniqueRecords: 2,
			AverageSimilarity: 96, MaxSimilarity: 96, MinSimilarity: 96,
			ByElapsed: map[model.ElapsedCategory]int{model.ElapsedOneToFour: 1},
		},
		SameDay: []model.SameDayGroup{{
			Origin:      "Site-A",
			Date:        time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			Identifiers: []string{"INC001", "INC002"},
			Categories:  []model.Count{{Value: "Hardware", Count: 2}},
			Earliest:    left.Created,
			Latest:      right.Created,
			Span:        90 * time.Minute,
		}},
	}
}

func TestPairRows(t *testing.T) {
	s := PairRows(sampleResult().Pairs)

	assert.Equal(t, SheetPairs, s.Name)
	require.Len(t, s.Rows, 1)
	row := s.Rows[0]
	require.Len(t, row, len(s.Header))
	assert.Equal(t, "Site-A", row[0])
	assert.Equal(t, "INC001", row[1])
	assert.Equal(t, "2024-03-04 09:00:00", row[3])
	assert.Equal(t, "2024-03-04 10:30:00", row[6])
	assert.Equal(t, "1:30:00", row[7])
	assert.Equal(t, 1.5, row[8])
	assert.Equal(t, "1-4h", row[9])
	assert.Equal(t, 96, row[10])
}

func TestSameDayRows(t *testing.T) {
	s := SameDayRows(sampleResult().SameDay)

	require.Len(t, s.Rows, 1)
	assert.Equal(t, []any{
		"Site-A", "2024-03-04", 2, "INC001, INC002",
		"Hardware(2)", "", "1:30:00", "09:00:00", "10:30:00",
	}, s.Rows[0])
}

func TestExactMatchRows_TruncatesDescription(t *testing.T) {
	long := ""
	for len(long) < 150 {
		long += "disk full "
	}
	s := ExactMatchRows([]model.ExactMatchGroup{{
		Origin:      "Site-A",
		Description: long,
		Identifiers: []string{"INC1", "INC2"},
		Categories:  []string{"Storage", "Hardware"},
		Earliest:    base,
		Latest:      base.Add(26 * time.Hour),
	}})

	require.Len(t, s.Rows, 1)
	assert.Len(t, s.Rows[0][1], maxDescriptionLen)
	assert.Equal(t, "2024-03-04 09:00 to 2024-03-05 11:00", s.Rows[0][4])
	assert.Equal(t, "Storage, Hardware", s.Rows[0][5])
}

func TestDateRange(t *testing.T) {
	assert.Equal(t, "", dateRange(time.Time{}, time.Time{}))
	assert.Equal(t, "2024-03-04 09:00", dateRange(base, base))
}

func TestSummaryRows(t *testing.T) {
	result := sampleResult()
	result.BackendFallback = true

	values := map[string]any{}
	for _, row := range SummaryRows(result).Rows {
		values[row[0].(string)] = row[1]
	}

	assert.Equal(t, "sequence (fallback)", values["Similarity backend"])
	assert.Equal(t, 1, values["Total duplicate pairs"])
	assert.Equal(t, "96.0%", values["Average similarity score"])
	assert.Equal(t, 1, values["Duplicates within 1-4h"])
	assert.Equal(t, 1, values["Same-day groups"])
	assert.Equal(t, 0, values["Rapid-fire pairs"])
	assert.NotContains(t, values, "Category-pattern groups")
}

func TestSummaryRows_NoPairs(t *testing.T) {
	values := map[string]any{}
	for _, row := range SummaryRows(&model.AnalysisResult{Backend: "levenshtein"}).Rows {
		values[row[0].(string)] = row[1]
	}

	assert.Equal(t, 0, values["Total duplicate pairs"])
	assert.NotContains(t, values, "Average similarity score")
}

func TestSheets_SkipsEmpty(t *testing.T) {
	sheets := Sheets(sampleResult())

	var names []string
	for _, s := range sheets {
		names = append(names, s.Name)
	}
	// Rapid-fire and exact-match are enabled but empty
	assert.Equal(t, []string{SheetPairs, SheetSameDay, SheetSummary}, names)
}

func TestWrite_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	written, err := Write(path, sampleResult())
	require.NoError(t, err)
	assert.Equal(t, path, written)

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "Site", rows[0][0])
	assert.Equal(t, "Similarity_Score", rows[0][10])
	assert.Equal(t, "96", rows[1][10])
}

func TestWrite_AppendsCSVExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report")

	written, err := Write(path, sampleResult())
	require.NoError(t, err)
	assert.Equal(t, path+".csv", written)
	assert.FileExists(t, written)
}

func TestWrite_CSVNothingToExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	_, err := Write(path, &model.AnalysisResult{})
	assert.True(t, errors.Is(err, ErrNothingToExport))
	assert.NoFileExists(t, path)

	_, err = Write(path, nil)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestWrite_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	written, err := Write(path, sampleResult())
	require.NoError(t, err)
	assert.Equal(t, path, written)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetPairs, SheetSameDay, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetPairs)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ticket_1_Number", rows[0][1])
	assert.Equal(t, "INC002", rows[1][4])
	assert.Equal(t, "96", rows[1][10])

	width, err := f.GetColWidth(SheetPairs, "A")
	require.NoError(t, err)
	assert.Equal(t, float64(len("Site-A")+2), width)

	style, err := f.GetCellStyle(SheetPairs, "A1")
	require.NoError(t, err)
	assert.NotZero(t, style)
}

func TestWrite_XLSXSummaryOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	_, err := Write(path, &model.AnalysisResult{Backend: "sequence"})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{SheetSummary}, f.GetSheetList())
}

func TestWriteXLSX_NoSheets(t *testing.T) {
	err := WriteXLSX(filepath.Join(t.TempDir(), "x.xlsx"), nil)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestColumnWidth(t *testing.T) {
	assert.Equal(t, 6, columnWidth(4))
	assert.Equal(t, maxColumnWidth, columnWidth(200))
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
