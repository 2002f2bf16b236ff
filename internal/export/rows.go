// Package export writes analysis results as CSV or spreadsheet files.
package export

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ppiankov/dupdetect/internal/model"
)

// Sheet names
const (
	SheetPairs            = "Duplicate_Tickets"
	SheetSameDay          = "Same_Day_Duplicates"
	SheetRapidFire        = "Rapid_Fire_Duplicates"
	SheetExactMatches     = "Exact_Matches"
	SheetCategoryPatterns = "Category_Patterns"
	SheetSummary          = "Summary"
)

const (
	timeLayout        = "2006-01-02 15:04:05"
	dateLayout        = "2006-01-02"
	clockLayout       = "15:04:05"
	maxDescriptionLen = 100
)

// Sheet is a header plus rows, shared by the CSV and XLSX writers
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Empty reports whether the sheet has no data rows
func (s Sheet) Empty() bool {
	return len(s.Rows) == 0
}

// PairRows renders the windowed matcher output
func PairRows(pairs []model.DuplicatePair) Sheet {
	s := Sheet{
		Name: SheetPairs,
		Header: []string{
			"Site",
			"Ticket_1_Number", "Ticket_1_Description", "Ticket_1_Created",
			"Ticket_2_Number", "Ticket_2_Description", "Ticket_2_Created",
			"Time_Difference", "Time_Difference_Hours", "Time_Category", "Similarity_Score",
		},
	}
	for _, p := range pairs {
		s.Rows = append(s.Rows, []any{
			p.Origin,
			p.Left.Identifier, p.Left.Description, formatTime(p.Left.Created, timeLayout),
			p.Right.Identifier, p.Right.Description, formatTime(p.Right.Created, timeLayout),
			p.FormatElapsed(), roundHours(p.ElapsedHours()), string(p.ElapsedCategory), p.Similarity,
		})
	}
	return s
}

// SameDayRows renders same-day groups
func SameDayRows(groups []model.SameDayGroup) Sheet {
	s := Sheet{
		Name: SheetSameDay,
		Header: []string{
			"Site", "Date", "Ticket_Count", "Ticket_Numbers",
			"Category_Mix", "Priority_Mix", "Time_Span", "Earliest_Time", "Latest_Time",
		},
	}
	for _, g := range groups {
		s.Rows = append(s.Rows, []any{
			g.Origin, formatTime(g.Date, dateLayout), g.Size(), strings.Join(g.Identifiers, ", "),
			formatCounts(g.Categories), formatCounts(g.Priorities),
			model.FormatDuration(g.Span), formatTime(g.Earliest, clockLayout), formatTime(g.Latest, clockLayout),
		})
	}
	return s
}

// RapidFireRows renders rapid-fire pairs
func RapidFireRows(pairs []model.RapidFirePair) Sheet {
	s := Sheet{
		Name: SheetRapidFire,
		Header: []string{
			"Site", "Time_Window_Minutes",
			"Ticket_1", "Ticket_1_Description", "Ticket_1_Created",
			"Ticket_2", "Ticket_2_Description", "Ticket_2_Created",
			"Time_Difference", "Similarity_Score",
		},
	}
	for _, p := range pairs {
		s.Rows = append(s.Rows, []any{
			p.Origin, p.WindowMinutes(),
			p.Left.Identifier, p.Left.Description, formatTime(p.Left.Created, timeLayout),
			p.Right.Identifier, p.Right.Description, formatTime(p.Right.Created, timeLayout),
			model.FormatDuration(p.Elapsed), p.Similarity,
		})
	}
	return s
}

// ExactMatchRows renders exact-text groups. Descriptions are truncated.
func ExactMatchRows(groups []model.ExactMatchGroup) Sheet {
	s := Sheet{
		Name:   SheetExactMatches,
		Header: []string{"Site", "Description", "Ticket_Count", "Ticket_Numbers", "Date_Range", "Category"},
	}
	for _, g := range groups {
		s.Rows = append(s.Rows, []any{
			g.Origin, truncate(g.Description, maxDescriptionLen), g.Size(), strings.Join(g.Identifiers, ", "),
			dateRange(g.Earliest, g.Latest), strings.Join(g.Categories, ", "),
		})
	}
	return s
}

// CategoryPatternRows renders category-pattern groups
func CategoryPatternRows(groups []model.CategoryPatternGroup) Sheet {
	s := Sheet{
		Name: SheetCategoryPatterns,
		Header: []string{
			"Site", "Date", "Category", "Subcategory", "Ticket_Count", "Ticket_Numbers", "Priority_Distribution",
		},
	}
	for _, g := range groups {
		s.Rows = append(s.Rows, []any{
			g.Origin, formatTime(g.Date, dateLayout), g.Category, g.Subcategory, g.Size(),
			strings.Join(g.Identifiers, ", "), formatCounts(g.Priorities),
		})
	}
	return s
}

// SummaryRows renders run metadata and statistics as metric/value rows
func SummaryRows(result *model.AnalysisResult) Sheet {
	s := Sheet{Name: SheetSummary, Header: []string{"Metric", "Value"}}
	add := func(metric string, value any) {
		s.Rows = append(s.Rows, []any{metric, value})
	}

	stats := result.Stats
	add("Run ID", result.RunID)
	add("Similarity backend", backendLabel(result))
	add("Max elapsed hours", result.Config.MaxElapsedHours)
	add("Similarity threshold", result.Config.SimilarityThreshold)
	add("Tickets analyzed", result.InputRecords)
	add("Tickets without created time", result.UndatedRecords)
	add("Total duplicate pairs", stats.TotalPairs)
	add("Unique sites affected", stats.AffectedOrigins)
	add("Unique tickets involved", stats.UniqueRecords)

	if stats.TotalPairs > 0 {
		add("Average similarity score", fmt.Sprintf("%.1f%%", stats.AverageSimilarity))
		add("Highest similarity score", fmt.Sprintf("%d%%", stats.MaxSimilarity))
		add("Lowest similarity score", fmt.Sprintf("%d%%", stats.MinSimilarity))
		for _, cat := range model.ElapsedCategories {
			if n := stats.ByElapsed[cat]; n > 0 {
				add("Duplicates within "+string(cat), n)
			}
		}
	}

	d := result.Detectors
	if d.SameDay {
		add("Same-day groups", len(result.SameDay))
	}
	if d.RapidFire {
		add("Rapid-fire pairs", len(result.RapidFire))
	}
	if d.ExactMatch {
		add("Exact-match groups", len(result.ExactMatches))
	}
	if d.CategoryPatterns {
		add("Category-pattern groups", len(result.CategoryPatterns))
	}
	return s
}

// Sheets returns every non-empty result sheet followed by the summary
func Sheets(result *model.AnalysisResult) []Sheet {
	candidates := []Sheet{PairRows(result.Pairs)}
	if result.Detectors.SameDay {
		candidates = append(candidates, SameDayRows(result.SameDay))
	}
	if result.Detectors.RapidFire {
		candidates = append(candidates, RapidFireRows(result.RapidFire))
	}
	if result.Detectors.ExactMatch {
		candidates = append(candidates, ExactMatchRows(result.ExactMatches))
	}
	if result.Detectors.CategoryPatterns {
		candidates = append(candidates, CategoryPatternRows(result.CategoryPatterns))
	}

	var sheets []Sheet
	for _, s := range candidates {
		if !s.Empty() {
			sheets = append(sheets, s)
		}
	}
	return append(sheets, SummaryRows(result))
}

func backendLabel(result *model.AnalysisResult) string {
	if result.BackendFallback {
		return result.Backend + " (fallback)"
	}
	return result.Backend
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

func formatCounts(counts []model.Count) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s(%d)", c.Value, c.Count)
	}
	return strings.Join(parts, ", ")
}

func dateRange(earliest, latest time.Time) string {
	const layout = "2006-01-02 15:04"
	from, to := formatTime(earliest, layout), formatTime(latest, layout)
	if from == to {
		return from
	}
	return from + " to " + to
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
