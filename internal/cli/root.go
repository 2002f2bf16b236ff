package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/dupdetect/internal/logger"
	"github.com/ppiankov/dupdetect/internal/model"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "dev"

const envPrefix = "DUPDETECT"

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string

	log *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dupdetect",
	Short: "Dupdetect - duplicate ticket detection for service desk exports",
	Long: `Dupdetect finds probable duplicate tickets in CSV exports from a service desk.

Tickets from the same site created within a time window are compared by
fuzzy similarity of their short descriptions. Optional detectors report
same-day bursts, rapid-fire submissions, exact text repeats and
category spikes.

Results are advisory: a pair is a candidate for review, not a verdict.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.Setup(viper.GetString("output.log_level"), viper.GetString("output.log_format"), os.Stderr)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and the similarity backends compiled into this build.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dupdetect %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "similarity backends: %s\n", strings.Join(availableBackends(), ", "))
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.dupdetect/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("output.log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and DUPDETECT_* variables
func initConfig() {
	// A missing .env is normal
	_ = godotenv.Load()

	registerDefaults(viper.GetViper(), model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".dupdetect"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// analysis.max_elapsed_hours <- DUPDETECT_ANALYSIS_MAX_ELAPSED_HOURS
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
	}
}

// loadConfig resolves the effective configuration: flags, env, file, defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// registerDefaults makes every config key known to viper so that env
// variables are picked up by Unmarshal even without a config file.
func registerDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("analysis.max_elapsed_hours", cfg.Analysis.MaxElapsedHours)
	v.SetDefault("analysis.similarity_threshold", cfg.Analysis.SimilarityThreshold)

	v.SetDefault("detectors.same_day", cfg.Detectors.SameDay)
	v.SetDefault("detectors.rapid_fire", cfg.Detectors.RapidFire)
	v.SetDefault("detectors.exact_match", cfg.Detectors.ExactMatch)
	v.SetDefault("detectors.category_patterns", cfg.Detectors.CategoryPatterns)

	v.SetDefault("scoring.backend", cfg.Scoring.Backend)
	v.SetDefault("scoring.cache_enabled", cfg.Scoring.CacheEnabled)
	v.SetDefault("scoring.cache_ttl", cfg.Scoring.CacheTTL)
	v.SetDefault("scoring.cache_file", cfg.Scoring.CacheFile)

	v.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	v.SetDefault("concurrency.batch_files", cfg.Concurrency.BatchFiles)

	v.SetDefault("ingest.auto_repair", cfg.Ingest.AutoRepair)
	v.SetDefault("ingest.exclude_resolved", cfg.Ingest.ExcludeResolved)
	v.SetDefault("ingest.date_layouts", cfg.Ingest.DateLayouts)
	c := cfg.Ingest.Columns
	v.SetDefault("ingest.columns.origin", c.Origin)
	v.SetDefault("ingest.columns.identifier", c.Identifier)
	v.SetDefault("ingest.columns.description", c.Description)
	v.SetDefault("ingest.columns.created", c.Created)
	v.SetDefault("ingest.columns.resolved", c.Resolved)
	v.SetDefault("ingest.columns.category", c.Category)
	v.SetDefault("ingest.columns.subcategory", c.Subcategory)
	v.SetDefault("ingest.columns.priority", c.Priority)

	v.SetDefault("output.verbose", cfg.Output.Verbose)
	v.SetDefault("output.log_level", cfg.Output.LogLevel)
	v.SetDefault("output.log_format", cfg.Output.LogFormat)
	v.SetDefault("output.progress_rate", cfg.Output.ProgressRate)
}
