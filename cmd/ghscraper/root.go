package main

import (
	"context"
	"fmt"
	"runtime"

	"ghscraper/pkg/config"
	"ghscraper/pkg/logger"
	"ghscraper/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ghscraper",
	Short: "Collect and analyse the GitHub users of a location",
	Long: `GitHub Scraper searches GitHub for the users of a location, collects their
profiles and public repositories, and writes a CSV snapshot, a JSON summary
and a Markdown report.

Features:
  - Fixed or sliding window rate limiting with automatic retry
  - Checkpoints so an interrupted run can be resumed
  - Tokens stored in the system keychain or an encrypted file
  - Optional SQLite mirror and S3 upload of the results`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetQuietMode(quiet)
		ui.SetNoColor(noColor)

		// Don't show logo for certain commands
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" {
			ui.PrintLogo()
		}
	},
}

// Execute runs the root command and returns the process exit code
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		return 1
	}
	return 0
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.ghscraper.yaml or ~/.config/ghscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	// Version template
	rootCmd.SetVersionTemplate(`GitHub Scraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags returns the global flags in the form config.MergeCommandLineFlags expects
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	} else if quiet {
		flags["log-level"] = "error"
	}
	if noColor {
		flags["no-color"] = true
	}
	return flags
}

// loadConfig loads the configuration with the given command flags on top
// of the global ones and initializes the global logger from it
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	merged := globalFlags()
	for k, v := range flags {
		merged[k] = v
	}

	cfg, err := config.Load(configFile, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
