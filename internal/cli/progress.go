package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/dupdetect/internal/detect"
	"github.com/ppiankov/dupdetect/internal/worker"
)

var stageLabels = map[string]string{
	detect.StageMatch:            "Matching sites",
	detect.StageSameDay:          "Same-day groups",
	detect.StageRapidFire:        "Rapid-fire pairs",
	detect.StageExactMatch:       "Exact matches",
	detect.StageCategoryPatterns: "Category patterns",
}

// progressLine redraws a single status line, throttled per stage
type progressLine struct {
	w       io.Writer
	limiter *worker.Limiter
	width   int
}

func newProgressLine(w io.Writer, redrawsPerSecond float64) *progressLine {
	return &progressLine{
		w:       w,
		limiter: worker.NewLimiter(redrawsPerSecond, 1),
	}
}

// Update draws p unless the stage redrew too recently. Final updates always draw.
func (l *progressLine) Update(p detect.Progress) {
	if !p.Done() && !l.limiter.Allow(p.Stage) {
		return
	}

	label, ok := stageLabels[p.Stage]
	if !ok {
		label = p.Stage
	}
	line := fmt.Sprintf("  %-18s %d/%d", label, p.Current, p.Total)
	fmt.Fprintf(l.w, "\r%-*s", l.width, line)
	l.width = max(l.width, len(line))
}

// Finish clears the line
func (l *progressLine) Finish() {
	if l.width == 0 {
		return
	}
	fmt.Fprint(l.w, "\r"+strings.Repeat(" ", l.width)+"\r")
	l.width = 0
}
