package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.github.com", cfg.GitHub.BaseURL)
	assert.Equal(t, "Sydney", cfg.Search.Location)
	assert.Equal(t, 100, cfg.Search.MinFollowers)
	assert.Equal(t, 100, cfg.Search.PerPage)
	assert.Equal(t, 1000, cfg.Search.MaxUsers)
	assert.Equal(t, 5, cfg.Search.MaxRepoPages)

	assert.Equal(t, 30, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Period)

	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialDelay)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, 2*time.Second, cfg.Retry.AcceptedDelay)

	assert.Equal(t, "users.csv", cfg.Output.UsersFile)
	assert.Equal(t, "repositories.csv", cfg.Output.RepositoriesFile)
	assert.Equal(t, "analysis_results.json", cfg.Output.AnalysisFile)
	assert.Equal(t, "README.md", cfg.Output.ReadmeFile)

	assert.NoError(t, cfg.Validate())
}

func TestSearchQuery(t *testing.T) {
	s := SearchConfig{Location: "Sydney", MinFollowers: 100}
	assert.Equal(t, "location:Sydney followers:>100", s.Query())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GHSCRAPER_GITHUB_TOKEN", "env-token")
	t.Setenv("GHSCRAPER_LOCATION", "Berlin")
	t.Setenv("GHSCRAPER_MIN_FOLLOWERS", "250")
	t.Setenv("GHSCRAPER_RATE_LIMIT_REQUESTS", "10")
	t.Setenv("GHSCRAPER_RATE_LIMIT_PERIOD", "30s")
	t.Setenv("GHSCRAPER_OUTPUT_DIR", "/tmp/gh-out")
	t.Setenv("GHSCRAPER_S3_BUCKET", "artefacts")
	t.Setenv("GHSCRAPER_CHECKPOINT_ENABLED", "false")
	t.Setenv("GHSCRAPER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-token", cfg.GitHub.Token)
	assert.Equal(t, "Berlin", cfg.Search.Location)
	assert.Equal(t, 250, cfg.Search.MinFollowers)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Period)
	assert.Equal(t, "/tmp/gh-out", cfg.Output.Directory)
	assert.Equal(t, "artefacts", cfg.Upload.Bucket)
	assert.False(t, cfg.Checkpoint.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvGitHubTokenFallback(t *testing.T) {
	t.Setenv("GHSCRAPER_GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "fallback-token")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, "fallback-token", cfg.GitHub.Token)

	// A token from the config file wins over the generic variable.
	cfg = DefaultConfig()
	cfg.GitHub.Token = "file-token"
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, "file-token", cfg.GitHub.Token)
}

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := `
github:
  token: file-token
  user_agent: test-agent
  timeout: 10s
search:
  location: Melbourne
  min_followers: 50
  max_repo_pages: 2
rate_limit:
  requests: 20
  period: 1m
retry:
  max_attempts: 5
  initial_delay: 500ms
output:
  directory: /data/out
  sqlite_path: /data/out/gh.db
logging:
  level: warn
  file: ""
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromFile(configPath))

		assert.Equal(t, "file-token", cfg.GitHub.Token)
		assert.Equal(t, "test-agent", cfg.GitHub.UserAgent)
		assert.Equal(t, 10*time.Second, cfg.GitHub.Timeout)
		assert.Equal(t, "Melbourne", cfg.Search.Location)
		assert.Equal(t, 50, cfg.Search.MinFollowers)
		assert.Equal(t, 2, cfg.Search.MaxRepoPages)
		assert.Equal(t, 100, cfg.Search.PerPage, "unset keys keep their defaults")
		assert.Equal(t, 20, cfg.RateLimit.Requests)
		assert.Equal(t, time.Minute, cfg.RateLimit.Period)
		assert.Equal(t, 5, cfg.Retry.MaxAttempts)
		assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialDelay)
		assert.Equal(t, "/data/out", cfg.Output.Directory)
		assert.Equal(t, "/data/out/gh.db", cfg.Output.SQLitePath)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Empty(t, cfg.Logging.File)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("search: [unclosed"), 0644))

		cfg := DefaultConfig()
		err := cfg.LoadFromFile(configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			modify: func(c *Config) {},
		},
		{
			name:    "empty location",
			modify:  func(c *Config) { c.Search.Location = "  " },
			wantErr: "search location is required",
		},
		{
			name:    "per page above api maximum",
			modify:  func(c *Config) { c.Search.PerPage = 101 },
			wantErr: "per page must be between 1 and 100",
		},
		{
			name:    "max users above search cap",
			modify:  func(c *Config) { c.Search.MaxUsers = 2000 },
			wantErr: "max users must be between 1 and 1000",
		},
		{
			name:    "zero rate limit",
			modify:  func(c *Config) { c.RateLimit.Requests = 0 },
			wantErr: "rate limit requests must be positive",
		},
		{
			name:    "zero attempts",
			modify:  func(c *Config) { c.Retry.MaxAttempts = 0 },
			wantErr: "max attempts must be positive",
		},
		{
			name:    "half configured upload credentials",
			modify:  func(c *Config) { c.Upload.AccessKeyID = "AKIA" },
			wantErr: "upload access key and secret must be set together",
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.Location = ""
	cfg.RateLimit.Period = 0
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	lines := strings.Split(err.Error(), "\n")
	assert.Len(t, lines, 3)
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Search.Location = "Tokyo"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded Config
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, "Tokyo", loaded.Search.Location)
	assert.Equal(t, time.Minute, loaded.RateLimit.Period)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"token":         "flag-token",
		"location":      "Lagos",
		"min-followers": 10,
		"output":        "/out",
		"sqlite":        "/out/gh.db",
		"upload":        "bucket",
		"log-level":     "error",
		"no-color":      true,
		"unknown":       "ignored",
	})

	assert.Equal(t, "flag-token", cfg.GitHub.Token)
	assert.Equal(t, "Lagos", cfg.Search.Location)
	assert.Equal(t, 10, cfg.Search.MinFollowers)
	assert.Equal(t, "/out", cfg.Output.Directory)
	assert.Equal(t, "/out/gh.db", cfg.Output.SQLitePath)
	assert.Equal(t, "bucket", cfg.Upload.Bucket)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.True(t, cfg.Logging.NoColor)
}

func TestLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("search:\n  location: Paris\n  min_followers: 20\n"), 0644))

	t.Setenv("GHSCRAPER_MIN_FOLLOWERS", "40")

	cfg, err := Load(configPath, map[string]interface{}{"location": "Lyon"})
	require.NoError(t, err)

	assert.Equal(t, "Lyon", cfg.Search.Location, "flags override file")
	assert.Equal(t, 40, cfg.Search.MinFollowers, "env overrides file")

	_, err = Load(configPath, map[string]interface{}{"log-level": "shout"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
