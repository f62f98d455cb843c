package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ghscraper/pkg/auth"
	"ghscraper/pkg/config"
	"ghscraper/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// defaultConfigPath is where 'config init' writes when --config is not set
const defaultConfigPath = ".ghscraper.yaml"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage GitHub Scraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (GHSCRAPER_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.ghscraper.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources.

Tokens and secret keys are masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value ranges
  - Output and log directory accessibility`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# GitHub Scraper Configuration File
#
# Every option can also be set with an environment variable prefixed with
# GHSCRAPER_, for example GHSCRAPER_GITHUB_TOKEN or GHSCRAPER_LOCATION.

# GitHub API access
github:
  # Personal access token. Prefer 'ghscraper auth login' over putting it here.
  token: ""

  # Stored account to use when no token is set
  account: ""

  base_url: "https://api.github.com"
  user_agent: "ghscraper/1.0"
  timeout: 30s

# User search
search:
  location: "Sydney"

  # Only users with more followers than this are collected
  min_followers: 100

  # Page size for search and repository listing (max 100)
  per_page: 100

  # GitHub returns at most 1000 search results
  max_users: 1000

  # Repository pages fetched per user
  max_repo_pages: 5

# Client side rate limiting
rate_limit:
  # fixed or sliding
  strategy: "fixed"
  requests: 30
  period: 60s

# Retry configuration
retry:
  max_attempts: 3
  initial_delay: 1s
  multiplier: 2.0

  # Wait before retrying a 202 Accepted response
  accepted_delay: 2s

# Output files
output:
  directory: "."
  users_file: "users.csv"
  repositories_file: "repositories.csv"
  analysis_file: "analysis_results.json"
  readme_file: "README.md"

  # Also mirror the snapshot into this SQLite database
  sqlite_path: ""

# S3 upload of the results (disabled when bucket is empty)
upload:
  bucket: ""
  region: "us-east-1"
  prefix: ""

  # Leave empty to use the default AWS credential chain
  access_key_id: ""
  secret_access_key: ""

# Resumable runs
checkpoint:
  enabled: true

  # Default: $XDG_DATA_HOME/ghscraper/checkpoints
  directory: ""

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file, {timestamp} is replaced with the start time.
  # Leave empty to log to stderr only
  file: "github_scraper_{timestamp}.log"

  no_color: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintWarning("To overwrite, first remove the existing file", configPath)
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Edit the configuration file and set your location")
	fmt.Fprintln(out, "2. Run 'ghscraper auth login' to store a GitHub token")
	fmt.Fprintln(out, "3. Run 'ghscraper config validate' to check the configuration")
	fmt.Fprintln(out, "4. Start collecting with 'ghscraper scrape'")
	return nil
}

// maskedConfig returns a copy of cfg that is safe to print
func maskedConfig(cfg *config.Config) *config.Config {
	masked := *cfg
	if masked.GitHub.Token != "" {
		masked.GitHub.Token = auth.MaskToken(masked.GitHub.Token)
	}
	if masked.Upload.AccessKeyID != "" {
		masked.Upload.AccessKeyID = auth.MaskToken(masked.Upload.AccessKeyID)
	}
	if masked.Upload.SecretAccessKey != "" {
		masked.Upload.SecretAccessKey = "********"
	}
	return &masked
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(maskedConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(out)
	fmt.Fprint(out, string(data))

	fmt.Fprintln(out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintln(out, "2. Environment variables (GHSCRAPER_*)")
	fmt.Fprintln(out, "3. .env and ~/.ghscraper.env")
	if configFile != "" {
		fmt.Fprintf(out, "4. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(out, "4. Configuration file: (searched in default locations)")
	}
	fmt.Fprintln(out, "5. Default values")
	return nil
}

// findConfigFile returns the first existing file of config.SearchPaths
func findConfigFile() string {
	for _, path := range config.SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// checkConfig returns problems Validate does not cover as errors and
// warnings
func checkConfig(cfg *config.Config) (problems, warnings []string) {
	if cfg.GitHub.Token == "" && cfg.GitHub.Account == "" {
		warnings = append(warnings, "no GitHub token configured, 'ghscraper auth login' or GHSCRAPER_GITHUB_TOKEN will be used")
	}
	if cfg.RateLimit.Requests > 30 && cfg.RateLimit.Period <= time.Minute {
		warnings = append(warnings, "more than 30 requests per minute will hit the search API limit")
	}

	if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("cannot create output directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}
	return problems, warnings
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return errors.New("no configuration file found, specify one with --config")
		}
	}

	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	problems, warnings := checkConfig(cfg)
	out := cmd.OutOrStdout()

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, warn := range warnings {
			fmt.Fprintf(out, "  - %s\n", warn)
		}
	}
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
		return errors.New("configuration has errors")
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Query: %s\n", cfg.Search.Query())
	fmt.Fprintf(out, "  Output directory: %s\n", cfg.Output.Directory)
	fmt.Fprintf(out, "  Rate limit: %d requests per %s (%s)\n", cfg.RateLimit.Requests, cfg.RateLimit.Period, cfg.RateLimit.Strategy)
	fmt.Fprintf(out, "  Max attempts: %d\n", cfg.Retry.MaxAttempts)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
