package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ghscraper/pkg/analysis"
	"ghscraper/pkg/auth"
	"ghscraper/pkg/collector"
	"ghscraper/pkg/config"
	"ghscraper/pkg/github"
	"ghscraper/pkg/logger"
	"ghscraper/pkg/models"
	"ghscraper/pkg/publish"
	"ghscraper/pkg/sqlitestore"
	"ghscraper/pkg/ui"

	"github.com/spf13/cobra"
)

// topLanguages is how many languages the summary table lists
const topLanguages = 10

var (
	// Scrape command flags
	minFollowers int
	outputDir    string
	tokenFlag    string
	accountName  string
	sqlitePath   string
	uploadBucket string
	resumeRun    bool
	forceRestart bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [location]",
	Short: "Collect the GitHub users of a location and analyse them",
	Long: `Search GitHub for users in a location with more than a minimum number of
followers, fetch their profiles and public repositories, and write:

  users.csv              one row per user
  repositories.csv       one row per repository
  analysis_results.json  aggregate statistics
  README.md              a short Markdown report

A GitHub token is taken from, in order:
  - the --token flag
  - GHSCRAPER_GITHUB_TOKEN or GITHUB_TOKEN
  - the account chosen with --account, or the active stored account
Without a token requests are anonymous and heavily rate limited.`,
	Example: `  # Scrape Sydney users with more than 100 followers
  ghscraper scrape Sydney

  # Different location and threshold, results in ./out
  ghscraper scrape "San Francisco" --min-followers 500 --output ./out

  # Also mirror the snapshot into SQLite and upload to S3
  ghscraper scrape Sydney --sqlite ghscraper.db --upload my-bucket

  # Resume an interrupted run
  ghscraper scrape Sydney --resume

  # Force restart, ignoring existing checkpoint
  ghscraper scrape Sydney --force-restart`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().IntVarP(&minFollowers, "min-followers", "f", 100, "only users with more followers than this")
	scrapeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: current directory)")
	scrapeCmd.Flags().StringVarP(&tokenFlag, "token", "t", "", "GitHub token")
	scrapeCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	scrapeCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "also write the snapshot to this SQLite database")
	scrapeCmd.Flags().StringVar(&uploadBucket, "upload", "", "upload the results to this S3 bucket")
	scrapeCmd.Flags().BoolVar(&resumeRun, "resume", false, "resume from last checkpoint")
	scrapeCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "force restart, ignoring existing checkpoint")
	scrapeCmd.MarkFlagsMutuallyExclusive("resume", "force-restart")
}

// scrapeFlags builds the config override map from the scrape flags
func scrapeFlags(cmd *cobra.Command, args []string) map[string]interface{} {
	flags := make(map[string]interface{})
	if len(args) > 0 {
		flags["location"] = strings.TrimSpace(args[0])
	}
	if cmd.Flags().Changed("min-followers") {
		flags["min-followers"] = minFollowers
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if tokenFlag != "" {
		flags["token"] = tokenFlag
	}
	if accountName != "" {
		flags["account"] = accountName
	}
	if sqlitePath != "" {
		flags["sqlite"] = sqlitePath
	}
	if uploadBucket != "" {
		flags["upload"] = uploadBucket
	}
	return flags
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(scrapeFlags(cmd, args))
	if err != nil {
		return err
	}
	defer logger.Close()

	logger.WithField("version", version).Info("GitHub Scraper starting")

	if err := resolveToken(cfg, newCredentialManager); err != nil {
		return err
	}

	ui.PrintInfo("Location", cfg.Search.Location)
	ui.PrintInfo("Query", cfg.Search.Query())
	ui.PrintInfo("Output", cfg.Output.Directory)

	client, err := github.NewClient(cfg, logger.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	c, err := collector.New(cfg, client, logger.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to initialize collector: %w", err)
	}
	progress := ui.NewStageProgress()
	c.SetProgress(progress)

	ui.PrintHighlight("[COLLECTING]")
	result, err := c.Run(ctx, collector.Options{Resume: resumeRun, ForceRestart: forceRestart})
	if err != nil {
		switch {
		case errors.Is(err, collector.ErrCheckpointExists):
			ui.PrintWarning("An earlier run of this query was interrupted")
		case errors.Is(err, context.Canceled):
			ui.PrintWarning("Interrupted, progress saved", "re-run with --resume to continue")
		}
		logger.WithError(err).WithField("run_id", c.RunID()).Error("Collection failed")
		return err
	}
	progress.Finish()

	if cfg.Output.SQLitePath != "" {
		if err := saveSQLite(ctx, cfg.Output.SQLitePath, result.Snapshot); err != nil {
			return err
		}
		ui.PrintInfo("SQLite", cfg.Output.SQLitePath)
	}

	if cfg.Upload.Bucket != "" {
		if err := uploadResults(ctx, cfg, result); err != nil {
			return err
		}
	}

	printResult(result)
	ui.PrintSuccess("[COLLECTION COMPLETED SUCCESSFULLY]")
	return nil
}

// resolveToken fills in the GitHub token from the credential manager when
// neither the flags nor the environment provided one
func resolveToken(cfg *config.Config, newManager func() (*auth.Manager, error)) error {
	if cfg.GitHub.Token != "" {
		logger.Info("Using token from configuration")
		return nil
	}

	manager, err := newManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account
	if cfg.GitHub.Account != "" {
		account, err = manager.Retrieve(cfg.GitHub.Account)
		if err != nil {
			return fmt.Errorf("account %q not found, see 'ghscraper auth list': %w", cfg.GitHub.Account, err)
		}
	} else {
		account, err = manager.RetrieveDefault()
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			logger.Warn("No GitHub token found, using anonymous requests")
			ui.PrintWarning("No GitHub token found", "run 'ghscraper auth login' to store one")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read stored credentials: %w", err)
		}
	}

	cfg.GitHub.Token = account.Token
	logger.WithField("account", account.Name).Info("Using stored credentials")
	ui.PrintInfo("Using account", account.Name)
	return nil
}

func saveSQLite(ctx context.Context, path string, snapshot *models.Snapshot) error {
	store, err := sqlitestore.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot to %s: %w", path, err)
	}
	logger.WithField("path", path).Info("Snapshot saved to SQLite")
	return nil
}

func uploadResults(ctx context.Context, cfg *config.Config, result *collector.Result) error {
	uploader, err := publish.New(ctx, cfg.Upload, logger.GetLogger())
	if err != nil {
		return err
	}

	files := result.Artefacts
	if cfg.Output.SQLitePath != "" {
		files = append(files, cfg.Output.SQLitePath)
	}

	uris, err := uploader.UploadFiles(ctx, result.RunID, files)
	for _, uri := range uris {
		ui.PrintInfo("Uploaded", uri)
	}
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	return nil
}

func printResult(result *collector.Result) {
	s := result.Summary
	ui.PrintTable([]string{"Metric", "Value"}, [][]string{
		{"Users", strconv.Itoa(s.TotalUsers)},
		{"Repositories", strconv.Itoa(s.TotalRepos)},
		{"Hireable users", strconv.Itoa(s.HireableUsers)},
		{"Avg stars per repo", strconv.FormatFloat(s.AvgStarsPerRepo, 'f', 2, 64)},
		{"Most active user", s.MostActiveUser},
		{"Most starred repo", s.MostStarredRepo},
		{"Skipped users", strconv.Itoa(len(result.Skipped))},
	})
	printLanguages(s)

	for _, path := range result.Artefacts {
		ui.PrintInfo("Wrote", path)
	}
}

func printLanguages(s *analysis.Summary) {
	top := analysis.TopLanguages(s, topLanguages)
	if len(top) == 0 {
		return
	}
	rows := make([][]string, 0, len(top))
	for _, lc := range top {
		rows = append(rows, []string{ui.Truncate(lc.Language, 24), strconv.Itoa(lc.Count)})
	}
	ui.PrintTable([]string{"Language", "Repositories"}, rows)
}
