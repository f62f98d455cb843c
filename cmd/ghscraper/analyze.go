package main

import (
	"fmt"
	"strconv"
	"strings"

	"ghscraper/pkg/collector"
	"ghscraper/pkg/logger"
	"ghscraper/pkg/models"
	"ghscraper/pkg/sqlitestore"
	"ghscraper/pkg/storage"
	"ghscraper/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	analyzeSQLite   string
	analyzeLocation string
)

// analyzeCmd re-runs the analysis over an existing snapshot
var analyzeCmd = &cobra.Command{
	Use:   "analyze [dir]",
	Short: "Re-analyse an existing snapshot",
	Long: `Read users.csv and repositories.csv from a directory (or a SQLite database
written by 'scrape --sqlite'), check the snapshot, and rewrite the tables,
analysis_results.json and README.md. No requests are made to GitHub.`,
	Example: `  # Re-analyse the snapshot in the current directory
  ghscraper analyze

  # Re-analyse ./out and title the report for Melbourne
  ghscraper analyze ./out --location Melbourne

  # Rebuild the CSVs and report from a SQLite mirror
  ghscraper analyze ./out --sqlite ghscraper.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeSQLite, "sqlite", "", "read the snapshot from this SQLite database instead of the CSV files")
	analyzeCmd.Flags().StringVarP(&analyzeLocation, "location", "l", "", "location named in the report")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if len(args) > 0 {
		flags["output"] = args[0]
	}
	if analyzeLocation != "" {
		flags["location"] = strings.TrimSpace(analyzeLocation)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	defer logger.Close()

	store, err := storage.NewManager(cfg.Output)
	if err != nil {
		return err
	}

	var snapshot *models.Snapshot
	if analyzeSQLite != "" {
		db, err := sqlitestore.Open(analyzeSQLite)
		if err != nil {
			return err
		}
		defer db.Close()

		snapshot, err = db.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load snapshot from %s: %w", analyzeSQLite, err)
		}
		ui.PrintInfo("Source", analyzeSQLite)
	} else {
		snapshot, err = store.ReadSnapshot()
		if err != nil {
			return fmt.Errorf("failed to read snapshot: %w", err)
		}
		ui.PrintInfo("Source", store.GetOutputDir())
	}

	logger.WithFields(map[string]interface{}{
		"users":        len(snapshot.Users),
		"repositories": len(snapshot.Repositories),
	}).Info("Snapshot loaded")

	summary, err := collector.WriteOutputs(store, collector.ReportInfoFor(cfg), snapshot)
	if err != nil {
		return err
	}

	ui.PrintTable([]string{"Metric", "Value"}, [][]string{
		{"Users", strconv.Itoa(summary.TotalUsers)},
		{"Repositories", strconv.Itoa(summary.TotalRepos)},
		{"Hireable users", strconv.Itoa(summary.HireableUsers)},
		{"Avg stars per repo", strconv.FormatFloat(summary.AvgStarsPerRepo, 'f', 2, 64)},
	})
	printLanguages(summary)
	for _, path := range store.Artefacts() {
		ui.PrintInfo("Wrote", path)
	}
	ui.PrintSuccess("Analysis complete")
	return nil
}
