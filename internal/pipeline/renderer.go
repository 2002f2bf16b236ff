package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ppiankov/dupdetect/internal/model"
)

const (
	topPairs      = 5
	timeLayout    = "2006-01-02 15:04:05"
	previewLength = 60
)

// Renderer writes reports as JSON, Markdown or a terminal summary
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer printing terminal output to out
func NewRenderer(out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out}
}

// RenderJSON writes the full report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	if err := os.WriteFile(path, []byte(Markdown(report)), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Markdown renders the report as a Markdown document
func Markdown(report *model.Report) string {
	var b strings.Builder
	a := report.Analysis

	b.WriteString("# Duplicate Ticket Report\n\n")
	fmt.Fprintf(&b, "- **Source:** `%s`\n", report.Source)
	fmt.Fprintf(&b, "- **Generated:** %s\n", report.GeneratedAt.Format(time.RFC3339))
	if a != nil {
		fmt.Fprintf(&b, "- **Run ID:** %s\n", a.RunID)
		fmt.Fprintf(&b, "- **Backend:** %s\n", backendLabel(a))
		fmt.Fprintf(&b, "- **Window:** %d hours, **threshold:** %d%%\n", a.Config.MaxElapsedHours, a.Config.SimilarityThreshold)
	}
	b.WriteString("\n")

	in := report.Ingest
	b.WriteString("## Input\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Tickets | %d |\n", in.Total)
	fmt.Fprintf(&b, "| Sites | %d |\n", in.Origins)
	fmt.Fprintf(&b, "| Without created time | %d |\n", in.Undated)
	fmt.Fprintf(&b, "| Skipped rows | %d |\n", in.Skipped)
	if in.ExcludedResolved > 0 {
		fmt.Fprintf(&b, "| Excluded resolved | %d |\n", in.ExcludedResolved)
	}
	if !in.Earliest.IsZero() {
		fmt.Fprintf(&b, "| Date range | %s to %s |\n", in.Earliest.Format(timeLayout), in.Latest.Format(timeLayout))
	}
	if in.Repaired {
		fmt.Fprintf(&b, "| Recovered from | %s, %d malformed rows |\n", in.Repair.Encoding, in.Repair.MalformedRows)
	}
	b.WriteString("\n")

	if a == nil {
		return b.String()
	}

	s := a.Stats
	b.WriteString("## Duplicate Pairs\n\n")
	if s.TotalPairs == 0 {
		b.WriteString("No probable duplicates found.\n\n")
	} else {
		fmt.Fprintf(&b, "%d pairs across %d sites, %d tickets involved. Similarity avg %.1f%%, max %d%%, min %d%%.\n\n",
			s.TotalPairs, s.AffectedOrigins, s.UniqueRecords, s.AverageSimilarity, s.MaxSimilarity, s.MinSimilarity)

		b.WriteString("| Time gap | Pairs |\n|---|---|\n")
		for _, cat := range model.ElapsedCategories {
			if n := s.ByElapsed[cat]; n > 0 {
				fmt.Fprintf(&b, "| %s | %d |\n", cat, n)
			}
		}
		b.WriteString("\n")

		b.WriteString("| Site | Ticket 1 | Ticket 2 | Gap | Score | Description |\n|---|---|---|---|---|---|\n")
		for _, p := range a.Pairs {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %d%% | %s |\n",
				cell(p.Origin), cell(p.Left.Identifier), cell(p.Right.Identifier),
				p.FormatElapsed(), p.Similarity, cell(preview(p.Left.Description)))
		}
		b.WriteString("\n")
	}

	if a.Detectors.SameDay && len(a.SameDay) > 0 {
		b.WriteString("## Same-Day Groups\n\n")
		b.WriteString("| Site | Date | Tickets | Span |\n|---|---|---|---|\n")
		for _, g := range a.SameDay {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				cell(g.Origin), g.Date.Format("2006-01-02"), cell(strings.Join(g.Identifiers, ", ")), model.FormatDuration(g.Span))
		}
		b.WriteString("\n")
	}

	if a.Detectors.RapidFire && len(a.RapidFire) > 0 {
		b.WriteString("## Rapid-Fire Pairs\n\n")
		b.WriteString("| Window | Site | Ticket 1 | Ticket 2 | Gap | Score |\n|---|---|---|---|---|---|\n")
		for _, p := range a.RapidFire {
			fmt.Fprintf(&b, "| %dm | %s | %s | %s | %s | %d%% |\n",
				p.WindowMinutes(), cell(p.Origin), cell(p.Left.Identifier), cell(p.Right.Identifier),
				model.FormatDuration(p.Elapsed), p.Similarity)
		}
		b.WriteString("\n")
	}

	if a.Detectors.ExactMatch && len(a.ExactMatches) > 0 {
		b.WriteString("## Exact Matches\n\n")
		b.WriteString("| Site | Count | Tickets | Description |\n|---|---|---|---|\n")
		for _, g := range a.ExactMatches {
			fmt.Fprintf(&b, "| %s | %d | %s | %s |\n",
				cell(g.Origin), g.Size(), cell(strings.Join(g.Identifiers, ", ")), cell(preview(g.Description)))
		}
		b.WriteString("\n")
	}

	if a.Detectors.CategoryPatterns && len(a.CategoryPatterns) > 0 {
		b.WriteString("## Category Patterns\n\n")
		b.WriteString("| Site | Date | Category | Subcategory | Count |\n|---|---|---|---|---|\n")
		for _, g := range a.CategoryPatterns {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %d |\n",
				cell(g.Origin), g.Date.Format("2006-01-02"), cell(g.Category), cell(g.Subcategory), g.Size())
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderSummary prints a short colored summary. Verbose adds the top pairs.
func (r *Renderer) RenderSummary(report *model.Report, verbose bool) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	a := report.Analysis
	fmt.Fprintf(r.out, "\n%s %s\n", cyan("Duplicate analysis:"), report.Source)
	fmt.Fprintf(r.out, "  Tickets:  %d across %d sites", report.Ingest.Total, report.Ingest.Origins)
	if report.Ingest.Undated > 0 {
		fmt.Fprintf(r.out, " %s", gray(fmt.Sprintf("(%d without created time)", report.Ingest.Undated)))
	}
	fmt.Fprintln(r.out)
	if report.Ingest.Repaired {
		fmt.Fprintf(r.out, "  %s\n", yellow("Input was malformed and recovered in memory"))
	}
	if a == nil {
		return
	}

	if a.BackendFallback {
		fmt.Fprintf(r.out, "  Backend:  %s\n", yellow(backendLabel(a)))
	} else if verbose {
		fmt.Fprintf(r.out, "  Backend:  %s\n", a.Backend)
	}

	if a.Stats.TotalPairs == 0 {
		fmt.Fprintf(r.out, "  Pairs:    %s\n", green("none found"))
	} else {
		fmt.Fprintf(r.out, "  Pairs:    %s (avg %.1f%%, %d tickets involved)\n",
			yellow(a.Stats.TotalPairs), a.Stats.AverageSimilarity, a.Stats.UniqueRecords)
	}

	if a.Detectors.SameDay {
		fmt.Fprintf(r.out, "  Same-day groups:  %d\n", len(a.SameDay))
	}
	if a.Detectors.RapidFire {
		fmt.Fprintf(r.out, "  Rapid-fire pairs: %d\n", len(a.RapidFire))
	}
	if a.Detectors.ExactMatch {
		fmt.Fprintf(r.out, "  Exact matches:    %d\n", len(a.ExactMatches))
	}
	if a.Detectors.CategoryPatterns {
		fmt.Fprintf(r.out, "  Category groups:  %d\n", len(a.CategoryPatterns))
	}

	if verbose && len(a.Pairs) > 0 {
		fmt.Fprintf(r.out, "\n  %s\n", bold("Top pairs"))
		for i, p := range a.Pairs {
			if i == topPairs {
				break
			}
			fmt.Fprintf(r.out, "  %3d%%  %s  %s / %s  %s\n",
				p.Similarity, p.Origin, p.Left.Identifier, p.Right.Identifier, gray(p.FormatElapsed()))
			fmt.Fprintf(r.out, "        %s\n", gray(preview(p.Left.Description)))
		}
	}
	fmt.Fprintf(r.out, "  %s\n\n", gray(fmt.Sprintf("run %s in %s", a.RunID, a.Duration.Round(time.Millisecond))))
}

func (r *Renderer) wrote(kind, path string) {
	fmt.Fprintf(r.out, "%s Wrote %s: %s\n", color.GreenString("✓"), kind, path)
}

func backendLabel(a *model.AnalysisResult) string {
	if a.BackendFallback {
		return a.Backend + " (fallback)"
	}
	return a.Backend
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewLength {
		return s
	}
	return string(runes[:previewLength-3]) + "..."
}

// cell escapes a value for a Markdown table
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
