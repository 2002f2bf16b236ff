package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/dupdetect/internal/model"
	"github.com/ppiankov/dupdetect/internal/similarity"
)

// flagBinding maps a command flag onto a config key
type flagBinding struct {
	key  string
	flag string
}

// Shared by analyze and batch
var analysisBindings = []flagBinding{
	{"analysis.max_elapsed_hours", "window"},
	{"analysis.similarity_threshold", "threshold"},
	{"scoring.backend", "backend"},
	{"scoring.cache_file", "cache-file"},
	{"concurrency.workers", "workers"},
	{"ingest.exclude_resolved", "exclude-resolved"},
	{"detectors.same_day", "same-day"},
	{"detectors.rapid_fire", "rapid-fire"},
	{"detectors.exact_match", "exact"},
	{"detectors.category_patterns", "category-patterns"},
}

func addAnalysisFlags(cmd *cobra.Command) {
	d := model.DefaultConfig()
	f := cmd.Flags()

	// Matching
	f.Int("window", d.Analysis.MaxElapsedHours, "max hours between tickets compared")
	f.Int("threshold", d.Analysis.SimilarityThreshold, "minimum similarity score (50-100)")
	f.String("backend", d.Scoring.Backend, "similarity backend ("+strings.Join(availableBackends(), ", ")+")")
	f.Int("workers", d.Concurrency.Workers, "site groups scanned in parallel")
	f.Bool("no-cache", false, "disable similarity score memoization")
	f.String("cache-file", "", "persist similarity scores to this file between runs")

	// Input
	f.Bool("exclude-resolved", false, "ignore tickets that have a resolution time")
	f.Bool("no-repair", false, "fail on malformed input instead of recovering in memory")

	// Detectors
	f.Bool("same-day", false, "report sites with several tickets on one day")
	f.Bool("rapid-fire", false, "report similar tickets within 15/30/60 minutes")
	f.Bool("exact", false, "report tickets with identical descriptions")
	f.Bool("category-patterns", false, "report category spikes per site and day")
	f.Bool("all", false, "enable every detector")
}

// bindFlags binds the running command's flags. Called from PreRunE so that
// commands sharing flag names do not overwrite each other's bindings.
func bindFlags(cmd *cobra.Command, bindings []flagBinding) error {
	for _, b := range bindings {
		flag := cmd.Flags().Lookup(b.flag)
		if flag == nil {
			return fmt.Errorf("unknown flag --%s", b.flag)
		}
		if err := viper.BindPFlag(b.key, flag); err != nil {
			return fmt.Errorf("bind --%s: %w", b.flag, err)
		}
	}
	return nil
}

// loadAnalysisConfig resolves the config and applies flags that have no config key
func loadAnalysisConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if off, _ := f.GetBool("no-cache"); off {
		cfg.Scoring.CacheEnabled = false
	}
	if off, _ := f.GetBool("no-repair"); off {
		cfg.Ingest.AutoRepair = false
	}
	if all, _ := f.GetBool("all"); all {
		cfg.Detectors = model.AllDetectors()
	}
	return cfg, nil
}

func availableBackends() []string {
	return similarity.Available()
}
