package model

import "time"

// DuplicatePair is a probable duplicate found by the windowed matcher.
// Left is never created after Right.
type DuplicatePair struct {
	Origin          string          `json:"origin"`
	Left            Record          `json:"left"`
	Right           Record          `json:"right"`
	Elapsed         time.Duration   `json:"elapsed_ns"`
	ElapsedCategory ElapsedCategory `json:"elapsed_category"`
	Similarity      int             `json:"similarity"` // 0-100
}

// ElapsedHours returns the gap between the two records in fractional hours
func (p DuplicatePair) ElapsedHours() float64 {
	return p.Elapsed.Hours()
}

// FormatElapsed renders the gap as H:MM:SS
func (p DuplicatePair) FormatElapsed() string {
	return FormatDuration(p.Elapsed)
}

// Count is one entry of a counted-occurrences distribution
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SameDayGroup is a set of records from one origin created on the same calendar day
type SameDayGroup struct {
	Origin      string        `json:"origin"`
	Date        time.Time     `json:"date"`
	Identifiers []string      `json:"identifiers"` // Ordered by creation time
	Categories  []Count       `json:"categories,omitempty"`
	Priorities  []Count       `json:"priorities,omitempty"`
	Earliest    time.Time     `json:"earliest"`
	Latest      time.Time     `json:"latest"`
	Span        time.Duration `json:"span_ns"`
}

// Size returns the number of records in the group
func (g SameDayGroup) Size() int { return len(g.Identifiers) }

// RapidFirePair is a similar pair created within one of the short rapid-fire windows
type RapidFirePair struct {
	Window     time.Duration `json:"window_ns"`
	Origin     string        `json:"origin"`
	Left       Record        `json:"left"`
	Right      Record        `json:"right"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Similarity int           `json:"similarity"`
}

// WindowMinutes returns the rapid-fire window in whole minutes
func (p RapidFirePair) WindowMinutes() int {
	return int(p.Window / time.Minute)
}

// ExactMatchGroup is a set of records from one origin with identical descriptions
type ExactMatchGroup struct {
	Origin      string    `json:"origin"`
	Description string    `json:"description"`
	Identifiers []string  `json:"identifiers"`
	Categories  []string  `json:"categories,omitempty"` // Distinct, in order of first appearance
	Earliest    time.Time `json:"earliest,omitempty"`   // Zero when no member carries a timestamp
	Latest      time.Time `json:"latest,omitempty"`
}

// Size returns the number of records in the group
func (g ExactMatchGroup) Size() int { return len(g.Identifiers) }

// CategoryPatternGroup is a set of records sharing origin, day, category and subcategory
type CategoryPatternGroup struct {
	Origin      string    `json:"origin"`
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	Identifiers []string  `json:"identifiers"`
	Priorities  []Count   `json:"priorities,omitempty"`
}

// Size returns the number of records in the group
func (g CategoryPatternGroup) Size() int { return len(g.Identifiers) }

// Statistics summarizes the matcher output of one run
type Statistics struct {
	TotalPairs        int                     `json:"total_pairs"`
	AffectedOrigins   int                     `json:"affected_origins"`
	UniqueRecords     int                     `json:"unique_records_involved"`
	AverageSimilarity float64                 `json:"average_similarity"`
	MaxSimilarity     int                     `json:"max_similarity"`
	MinSimilarity     int                     `json:"min_similarity"`
	ByElapsed         map[ElapsedCategory]int `json:"by_elapsed,omitempty"`
}

// AnalysisResult is the complete output of one analysis run
type AnalysisResult struct {
	RunID           string         `json:"run_id"`
	StartedAt       time.Time      `json:"started_at"`
	Duration        time.Duration  `json:"duration_ns"`
	Config          AnalysisConfig `json:"config"`
	Detectors       DetectorSet    `json:"detectors"`
	Backend         string         `json:"backend"`          // Similarity backend actually used
	BackendFallback bool           `json:"backend_fallback"` // Requested backend was unavailable
	InputRecords    int            `json:"input_records"`
	UndatedRecords  int            `json:"undated_records"` // Excluded from time-based passes
	Origins         int            `json:"origins"`

	Pairs []DuplicatePair `json:"pairs"`
	Stats Statistics      `json:"stats"`

	SameDay          []SameDayGroup         `json:"same_day,omitempty"`
	RapidFire        []RapidFirePair        `json:"rapid_fire,omitempty"`
	ExactMatches     []ExactMatchGroup      `json:"exact_matches,omitempty"`
	CategoryPatterns []CategoryPatternGroup `json:"category_patterns,omitempty"`
}
