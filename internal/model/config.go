package model

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

// ErrInvalidConfig is returned when a run is configured outside its contract
var ErrInvalidConfig = errors.New("invalid analysis configuration")

const (
	MinSimilarityThreshold = 50
	MaxSimilarityThreshold = 100
)

// AnalysisConfig holds the parameters of a single analysis run
type AnalysisConfig struct {
	MaxElapsedHours     int `json:"max_elapsed_hours" yaml:"max_elapsed_hours" mapstructure:"max_elapsed_hours"`
	SimilarityThreshold int `json:"similarity_threshold" yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// Window returns the maximum elapsed time as a duration
func (c AnalysisConfig) Window() time.Duration {
	return time.Duration(c.MaxElapsedHours) * time.Hour
}

// Validate rejects configurations the engine must not run with
func (c AnalysisConfig) Validate() error {
	if c.MaxElapsedHours <= 0 {
		return fmt.Errorf("%w: max elapsed hours must be positive (got %d)", ErrInvalidConfig, c.MaxElapsedHours)
	}
	if c.SimilarityThreshold < MinSimilarityThreshold || c.SimilarityThreshold > MaxSimilarityThreshold {
		return fmt.Errorf("%w: similarity threshold must be between %d and %d (got %d)",
			ErrInvalidConfig, MinSimilarityThreshold, MaxSimilarityThreshold, c.SimilarityThreshold)
	}
	return nil
}

// DetectorSet selects which auxiliary detectors run alongside the matcher
type DetectorSet struct {
	SameDay          bool `json:"same_day" yaml:"same_day" mapstructure:"same_day"`
	RapidFire        bool `json:"rapid_fire" yaml:"rapid_fire" mapstructure:"rapid_fire"`
	ExactMatch       bool `json:"exact_match" yaml:"exact_match" mapstructure:"exact_match"`
	CategoryPatterns bool `json:"category_patterns" yaml:"category_patterns" mapstructure:"category_patterns"`
}

// Any reports whether at least one auxiliary detector is enabled
func (d DetectorSet) Any() bool {
	return d.SameDay || d.RapidFire || d.ExactMatch || d.CategoryPatterns
}

// AllDetectors returns a set with every detector enabled
func AllDetectors() DetectorSet {
	return DetectorSet{SameDay: true, RapidFire: true, ExactMatch: true, CategoryPatterns: true}
}

// Config is the complete application configuration
type Config struct {
	Analysis    AnalysisConfig    `yaml:"analysis" mapstructure:"analysis"`
	Detectors   DetectorSet       `yaml:"detectors" mapstructure:"detectors"`
	Scoring     ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Ingest      IngestConfig      `yaml:"ingest" mapstructure:"ingest"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// ScoringConfig selects the similarity backend
type ScoringConfig struct {
	Backend      string        `yaml:"backend" mapstructure:"backend"`             // levenshtein or sequence
	CacheEnabled bool          `yaml:"cache_enabled" mapstructure:"cache_enabled"` // Memoize pair scores within a run
	CacheTTL     time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CacheFile    string        `yaml:"cache_file" mapstructure:"cache_file"` // Persist scores between runs; empty keeps them in memory only
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	Workers    int `yaml:"workers" mapstructure:"workers"`         // Origin groups scanned in parallel
	BatchFiles int `yaml:"batch_files" mapstructure:"batch_files"` // Input files analyzed in parallel by batch
}

// IngestConfig controls how input exports are read
type IngestConfig struct {
	AutoRepair      bool      `yaml:"auto_repair" mapstructure:"auto_repair"`
	ExcludeResolved bool      `yaml:"exclude_resolved" mapstructure:"exclude_resolved"`
	DateLayouts     []string  `yaml:"date_layouts" mapstructure:"date_layouts"` // Go time layouts, tried in order
	Columns         ColumnMap `yaml:"columns" mapstructure:"columns"`
}

// ColumnMap names the header of each input column
type ColumnMap struct {
	Origin      string `yaml:"origin" mapstructure:"origin"`
	Identifier  string `yaml:"identifier" mapstructure:"identifier"`
	Description string `yaml:"description" mapstructure:"description"`
	Created     string `yaml:"created" mapstructure:"created"`
	Resolved    string `yaml:"resolved" mapstructure:"resolved"`
	Category    string `yaml:"category" mapstructure:"category"`
	Subcategory string `yaml:"subcategory" mapstructure:"subcategory"`
	Priority    string `yaml:"priority" mapstructure:"priority"`
}

// OutputConfig controls logging and terminal rendering
type OutputConfig struct {
	Verbose      bool    `yaml:"verbose" mapstructure:"verbose"`
	LogLevel     string  `yaml:"log_level" mapstructure:"log_level"`         // debug, info, warn, error
	LogFormat    string  `yaml:"log_format" mapstructure:"log_format"`       // text or json
	ProgressRate float64 `yaml:"progress_rate" mapstructure:"progress_rate"` // Progress redraws per second
}

// DefaultDateLayout matches the DD-Mon-YYYY HH:MM:SS export format
const DefaultDateLayout = "02-Jan-2006 15:04:05"

// DefaultColumns returns the ServiceNow export header names
func DefaultColumns() ColumnMap {
	return ColumnMap{
		Origin:      "Site",
		Identifier:  "Number",
		Description: "Short description",
		Created:     "Created",
		Resolved:    "Resolved",
		Category:    "Category",
		Subcategory: "Subcategory",
		Priority:    "Priority",
	}
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MaxElapsedHours:     72,
			SimilarityThreshold: 85,
		},
		Scoring: ScoringConfig{
			Backend:      "levenshtein",
			CacheEnabled: true,
			CacheTTL:     30 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers:    runtime.NumCPU(),
			BatchFiles: 2,
		},
		Ingest: IngestConfig{
			AutoRepair:  true,
			DateLayouts: []string{DefaultDateLayout, "2006-01-02 15:04:05", time.RFC3339},
			Columns:     DefaultColumns(),
		},
		Output: OutputConfig{
			LogLevel:     "info",
			LogFormat:    "text",
			ProgressRate: 10,
		},
	}
}

// Validate checks the sections that must be correct before a run starts
func (c *Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return err
	}
	if c.Concurrency.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative (got %d)", ErrInvalidConfig, c.Concurrency.Workers)
	}
	if len(c.Ingest.DateLayouts) == 0 {
		return fmt.Errorf("%w: at least one date layout is required", ErrInvalidConfig)
	}
	return nil
}
