package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the GitHub scraper
type Config struct {
	// GitHub API access
	GitHub GitHubConfig `yaml:"github" json:"github"`

	// What to search for
	Search SearchConfig `yaml:"search" json:"search"`

	// Client side request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Per-request retry policy
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Optional S3 upload of the artefacts
	Upload UploadConfig `yaml:"upload" json:"upload"`

	// Resume support
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// GitHubConfig holds GitHub API configuration
type GitHubConfig struct {
	Token     string        `yaml:"token" json:"token"`
	Account   string        `yaml:"account" json:"account"`
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// SearchConfig describes the user search and the pagination caps
type SearchConfig struct {
	Location     string `yaml:"location" json:"location"`
	MinFollowers int    `yaml:"min_followers" json:"min_followers"`
	PerPage      int    `yaml:"per_page" json:"per_page"`
	MaxUsers     int    `yaml:"max_users" json:"max_users"`
	MaxRepoPages int    `yaml:"max_repo_pages" json:"max_repo_pages"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Strategy string        `yaml:"strategy" json:"strategy"`
	Requests int           `yaml:"requests" json:"requests"`
	Period   time.Duration `yaml:"period" json:"period"`
}

// RetryConfig holds the per-request retry settings
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts" json:"max_attempts"`
	InitialDelay  time.Duration `yaml:"initial_delay" json:"initial_delay"`
	Multiplier    float64       `yaml:"multiplier" json:"multiplier"`
	AcceptedDelay time.Duration `yaml:"accepted_delay" json:"accepted_delay"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	Directory        string `yaml:"directory" json:"directory"`
	UsersFile        string `yaml:"users_file" json:"users_file"`
	RepositoriesFile string `yaml:"repositories_file" json:"repositories_file"`
	AnalysisFile     string `yaml:"analysis_file" json:"analysis_file"`
	ReadmeFile       string `yaml:"readme_file" json:"readme_file"`
	SQLitePath       string `yaml:"sqlite_path" json:"sqlite_path"`
}

// UploadConfig holds S3 upload configuration. An empty bucket disables upload.
type UploadConfig struct {
	Bucket          string `yaml:"bucket" json:"bucket"`
	Region          string `yaml:"region" json:"region"`
	Prefix          string `yaml:"prefix" json:"prefix"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key"`
}

// CheckpointConfig holds resume configuration
type CheckpointConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Directory string `yaml:"directory" json:"directory"`
}

// LoggingConfig holds logging configuration.
// File may contain a {timestamp} placeholder.
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			BaseURL:   "https://api.github.com",
			UserAgent: "ghscraper/1.0",
			Timeout:   30 * time.Second,
		},
		Search: SearchConfig{
			Location:     "Sydney",
			MinFollowers: 100,
			PerPage:      100,
			MaxUsers:     1000,
			MaxRepoPages: 5,
		},
		RateLimit: RateLimitConfig{
			Strategy: "fixed",
			Requests: 30,
			Period:   60 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  1 * time.Second,
			Multiplier:    2.0,
			AcceptedDelay: 2 * time.Second,
		},
		Output: OutputConfig{
			Directory:        ".",
			UsersFile:        "users.csv",
			RepositoriesFile: "repositories.csv",
			AnalysisFile:     "analysis_results.json",
			ReadmeFile:       "README.md",
		},
		Upload: UploadConfig{
			Region: "us-east-1",
		},
		Checkpoint: CheckpointConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "github_scraper_{timestamp}.log",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// GitHub access. GITHUB_TOKEN is honoured as a fallback.
	if token := os.Getenv("GHSCRAPER_GITHUB_TOKEN"); token != "" {
		c.GitHub.Token = token
	} else if token := os.Getenv("GITHUB_TOKEN"); token != "" && c.GitHub.Token == "" {
		c.GitHub.Token = token
	}
	if baseURL := os.Getenv("GHSCRAPER_BASE_URL"); baseURL != "" {
		c.GitHub.BaseURL = baseURL
	}
	if userAgent := os.Getenv("GHSCRAPER_USER_AGENT"); userAgent != "" {
		c.GitHub.UserAgent = userAgent
	}

	// Search
	if location := os.Getenv("GHSCRAPER_LOCATION"); location != "" {
		c.Search.Location = location
	}
	if minFollowers := os.Getenv("GHSCRAPER_MIN_FOLLOWERS"); minFollowers != "" {
		var val int
		if _, err := fmt.Sscanf(minFollowers, "%d", &val); err == nil && val >= 0 {
			c.Search.MinFollowers = val
		}
	}

	// Rate limiting
	if requests := os.Getenv("GHSCRAPER_RATE_LIMIT_REQUESTS"); requests != "" {
		var val int
		fmt.Sscanf(requests, "%d", &val)
		if val > 0 {
			c.RateLimit.Requests = val
		}
	}
	if period := os.Getenv("GHSCRAPER_RATE_LIMIT_PERIOD"); period != "" {
		if d, err := time.ParseDuration(period); err == nil && d > 0 {
			c.RateLimit.Period = d
		}
	}

	// Output
	if outputDir := os.Getenv("GHSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}
	if sqlitePath := os.Getenv("GHSCRAPER_SQLITE_PATH"); sqlitePath != "" {
		c.Output.SQLitePath = sqlitePath
	}

	// Upload
	if bucket := os.Getenv("GHSCRAPER_S3_BUCKET"); bucket != "" {
		c.Upload.Bucket = bucket
	}
	if region := os.Getenv("GHSCRAPER_S3_REGION"); region != "" {
		c.Upload.Region = region
	}
	if prefix := os.Getenv("GHSCRAPER_S3_PREFIX"); prefix != "" {
		c.Upload.Prefix = prefix
	}

	// Checkpoint
	if enabled := os.Getenv("GHSCRAPER_CHECKPOINT_ENABLED"); enabled != "" {
		c.Checkpoint.Enabled = strings.ToLower(enabled) == "true"
	}

	// Logging
	if logLevel := os.Getenv("GHSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := os.LookupEnv("GHSCRAPER_LOG_FILE"); ok {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	for _, loc := range SearchPaths() {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// SearchPaths lists the config file locations in order of precedence
func SearchPaths() []string {
	home := os.Getenv("HOME")
	return []string{
		".ghscraper.yaml",
		".ghscraper.yml",
		filepath.Join(home, ".config", "ghscraper", "config.yaml"),
		filepath.Join(home, ".config", "ghscraper", "config.yml"),
		filepath.Join(home, ".ghscraper.yaml"),
		filepath.Join(home, ".ghscraper.yml"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// GitHub
	if c.GitHub.BaseURL == "" {
		errs = append(errs, errors.New("GitHub base URL is required"))
	}
	if c.GitHub.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	// Search
	if strings.TrimSpace(c.Search.Location) == "" {
		errs = append(errs, errors.New("search location is required"))
	}
	if c.Search.MinFollowers < 0 {
		errs = append(errs, errors.New("min followers cannot be negative"))
	}
	if c.Search.PerPage <= 0 || c.Search.PerPage > 100 {
		errs = append(errs, errors.New("per page must be between 1 and 100"))
	}
	if c.Search.MaxUsers <= 0 || c.Search.MaxUsers > 1000 {
		errs = append(errs, errors.New("max users must be between 1 and 1000"))
	}
	if c.Search.MaxRepoPages <= 0 {
		errs = append(errs, errors.New("max repo pages must be positive"))
	}

	// Rate limiting
	if c.RateLimit.Requests <= 0 {
		errs = append(errs, errors.New("rate limit requests must be positive"))
	}
	if c.RateLimit.Period <= 0 {
		errs = append(errs, errors.New("rate limit period must be positive"))
	}
	if s := c.RateLimit.Strategy; s != "fixed" && s != "sliding" {
		errs = append(errs, errors.New("rate limit strategy must be fixed or sliding"))
	}

	// Retry
	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max attempts must be positive"))
	}
	if c.Retry.InitialDelay < 0 {
		errs = append(errs, errors.New("initial retry delay cannot be negative"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}

	// Output
	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.UsersFile == "" || c.Output.RepositoriesFile == "" ||
		c.Output.AnalysisFile == "" || c.Output.ReadmeFile == "" {
		errs = append(errs, errors.New("output file names are required"))
	}

	// Upload
	if c.Upload.Bucket != "" && c.Upload.Region == "" {
		errs = append(errs, errors.New("upload region is required when a bucket is set"))
	}
	if (c.Upload.AccessKeyID == "") != (c.Upload.SecretAccessKey == "") {
		errs = append(errs, errors.New("upload access key and secret must be set together"))
	}

	// Logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Query returns the GitHub user search query for the configured location
func (s SearchConfig) Query() string {
	return fmt.Sprintf("location:%s followers:>%d", s.Location, s.MinFollowers)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["token"].(string); ok && token != "" {
		c.GitHub.Token = token
	}
	if account, ok := flags["account"].(string); ok && account != "" {
		c.GitHub.Account = account
	}
	if location, ok := flags["location"].(string); ok && location != "" {
		c.Search.Location = location
	}
	if minFollowers, ok := flags["min-followers"].(int); ok && minFollowers >= 0 {
		c.Search.MinFollowers = minFollowers
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if sqlitePath, ok := flags["sqlite"].(string); ok && sqlitePath != "" {
		c.Output.SQLitePath = sqlitePath
	}
	if bucket, ok := flags["upload"].(string); ok && bucket != "" {
		c.Upload.Bucket = bucket
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok {
		c.Logging.File = logFile
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.Logging.NoColor = true
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".ghscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
