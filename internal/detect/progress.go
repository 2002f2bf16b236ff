package detect

// Progress stages
const (
	StageMatch            = "match"
	StageSameDay          = "same_day"
	StageRapidFire        = "rapid_fire"
	StageExactMatch       = "exact_match"
	StageCategoryPatterns = "category_patterns"
)

// Progress is a one-way notification that a unit of work finished.
// For StageMatch a unit is one origin group; detectors report a single unit each.
type Progress struct {
	Stage   string
	Current int
	Total   int
}

// Done reports whether the stage has finished
func (p Progress) Done() bool {
	return p.Current >= p.Total
}

// ProgressFunc receives progress updates. It is always called from a single
// goroutine per run and should return quickly.
type ProgressFunc func(Progress)

func (f ProgressFunc) report(stage string, current, total int) {
	if f != nil {
		f(Progress{Stage: stage, Current: current, Total: total})
	}
}
