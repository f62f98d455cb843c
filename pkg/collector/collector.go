package collector

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"ghscraper/pkg/analysis"
	"ghscraper/pkg/checkpoint"
	"ghscraper/pkg/config"
	"ghscraper/pkg/logger"
	"ghscraper/pkg/models"
	"ghscraper/pkg/storage"

	"github.com/google/uuid"
)

// checkpointEvery is how many users are processed between checkpoint saves
const checkpointEvery = 10

// ErrCheckpointExists is returned when an earlier run left a checkpoint and
// neither resume nor restart was requested
var ErrCheckpointExists = errors.New("checkpoint exists - use --resume to continue or --force-restart to start fresh")

// Options control how a run treats an existing checkpoint
type Options struct {
	Resume       bool
	ForceRestart bool
}

// Result is the outcome of a completed run
type Result struct {
	RunID     string
	Snapshot  *models.Snapshot
	Summary   *analysis.Summary
	Artefacts []string
	Skipped   []string
}

// Collector orchestrates one collection run
type Collector struct {
	client        GitHubClient
	config        *config.Config
	logger        logger.Logger
	checkpointMgr *checkpoint.Manager
	progress      Progress
	runID         string
}

// New creates a Collector. Checkpoints are kept when enabled in cfg.
func New(cfg *config.Config, client GitHubClient, log logger.Logger) (*Collector, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Collector{
		client: client,
		config: cfg,
		logger: log,
		runID:  uuid.NewString(),
	}

	if cfg.Checkpoint.Enabled {
		mgr, err := checkpoint.NewManager(cfg.Checkpoint.Directory, cfg.Search.Query(), log)
		if err != nil {
			return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
		}
		c.checkpointMgr = mgr
	}

	return c, nil
}

// SetProgress sets a receiver for stage progress
func (c *Collector) SetProgress(p Progress) {
	c.progress = p
}

func (c *Collector) report(stage string, done, total int) {
	logger.LogCollectProgress(c.logger, stage, done, total)
	if c.progress != nil {
		c.progress.Update(stage, done, total)
	}
}

// RunID identifies the run. A resumed run keeps the ID of the run it continues.
func (c *Collector) RunID() string {
	return c.runID
}

// Run collects a snapshot and writes every output file
func (c *Collector) Run(ctx context.Context, opts Options) (*Result, error) {
	cp, err := c.collect(ctx, opts)
	if err != nil {
		return nil, err
	}

	snapshot := &models.Snapshot{Users: cp.Users, Repositories: cp.Repositories}

	store, err := storage.NewManager(c.config.Output)
	if err != nil {
		return nil, err
	}

	summary, err := WriteOutputs(store, ReportInfoFor(c.config), snapshot)
	if err != nil {
		return nil, err
	}

	if c.checkpointMgr != nil {
		if err := c.checkpointMgr.Delete(); err != nil {
			c.logger.WithError(err).Warn("Failed to delete checkpoint")
		}
	}

	c.logger.InfoWithFields("Data collection and analysis completed successfully", map[string]interface{}{
		"run_id":       c.runID,
		"users":        summary.TotalUsers,
		"repositories": summary.TotalRepos,
		"skipped":      len(cp.Skipped),
	})

	return &Result{
		RunID:     c.runID,
		Snapshot:  snapshot,
		Summary:   summary,
		Artefacts: store.Artefacts(),
		Skipped:   cp.Skipped,
	}, nil
}

// Collect fetches a snapshot without writing any output
func (c *Collector) Collect(ctx context.Context, opts Options) (*models.Snapshot, error) {
	cp, err := c.collect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{Users: cp.Users, Repositories: cp.Repositories}, nil
}

func (c *Collector) collect(ctx context.Context, opts Options) (*checkpoint.Checkpoint, error) {
	query := c.config.Search.Query()

	cp, err := c.prepareCheckpoint(query, opts)
	if err != nil {
		return nil, err
	}

	c.logger.InfoWithFields("Starting collection", map[string]interface{}{
		"run_id": c.runID,
		"query":  query,
		"stage":  cp.Stage,
	})

	if cp.Stage == checkpoint.StageSearch {
		logins, err := c.searchUsers(ctx, query)
		if err != nil {
			return nil, err
		}
		cp.Logins = logins
		cp.Stage = checkpoint.StageDetails
		c.saveCheckpoint(cp)
		c.logger.InfoWithFields("User search finished", map[string]interface{}{
			"found": len(logins),
		})
	}

	if cp.Stage == checkpoint.StageDetails {
		if err := c.fetchDetails(ctx, cp); err != nil {
			c.saveCheckpoint(cp)
			return nil, err
		}
		cp.Stage = checkpoint.StageRepos
		c.saveCheckpoint(cp)
	}

	if cp.Stage == checkpoint.StageRepos {
		if err := c.fetchRepositories(ctx, cp); err != nil {
			c.saveCheckpoint(cp)
			return nil, err
		}
		cp.Stage = checkpoint.StageWrite
		c.saveCheckpoint(cp)
	}

	return cp, nil
}

// prepareCheckpoint returns the checkpoint to continue from, or a fresh one
func (c *Collector) prepareCheckpoint(query string, opts Options) (*checkpoint.Checkpoint, error) {
	fresh := &checkpoint.Checkpoint{
		RunID:   c.runID,
		Query:   query,
		Stage:   checkpoint.StageSearch,
		Version: checkpoint.Version,
	}

	mgr := c.checkpointMgr
	if mgr == nil {
		return fresh, nil
	}

	if mgr.Exists() {
		switch {
		case opts.ForceRestart:
			if err := mgr.Delete(); err != nil {
				c.logger.WithError(err).Warn("Failed to delete existing checkpoint")
			}
			c.logger.Info("Force restart, ignoring existing checkpoint")

		case opts.Resume:
			cp, err := mgr.Load()
			if err != nil {
				return nil, fmt.Errorf("failed to load checkpoint: %w", err)
			}
			if cp != nil {
				if !cp.MatchesQuery(query) {
					return nil, fmt.Errorf("checkpoint was written for query %q, not %q; use --force-restart", cp.Query, query)
				}
				c.runID = cp.RunID
				c.logger.InfoWithFields("Resuming from checkpoint", map[string]interface{}{
					"run_id":       cp.RunID,
					"stage":        cp.Stage,
					"users":        len(cp.Users),
					"repositories": len(cp.Repositories),
				})
				return cp, nil
			}

		default:
			return nil, ErrCheckpointExists
		}
	}

	cp, err := mgr.Create(c.runID, query)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to create checkpoint")
		return fresh, nil
	}
	return cp, nil
}

func (c *Collector) saveCheckpoint(cp *checkpoint.Checkpoint) {
	if c.checkpointMgr == nil {
		return
	}
	if err := c.checkpointMgr.Save(cp); err != nil {
		c.logger.WithError(err).Warn("Failed to update checkpoint")
	}
}

// searchUsers pages through the user search. The result is capped at the
// smaller of total_count and MaxUsers.
func (c *Collector) searchUsers(ctx context.Context, query string) ([]string, error) {
	perPage := c.config.Search.PerPage
	seen := make(map[string]bool)
	var logins []string
	total, fetched := 0, 0

	for page := 1; ; page++ {
		c.logger.InfoWithFields("Fetching users page", map[string]interface{}{
			"page": page,
		})

		resp, err := c.client.SearchUsers(ctx, query, page, perPage)
		if err != nil {
			return nil, fmt.Errorf("user search failed: %w", err)
		}
		if len(resp.Items) == 0 {
			break
		}

		if page == 1 {
			total = min(resp.TotalCount, c.config.Search.MaxUsers)
		}

		fetched += len(resp.Items)
		for _, item := range resp.Items {
			if seen[item.Login] {
				continue
			}
			seen[item.Login] = true
			logins = append(logins, item.Login)
		}
		c.report("search", len(logins), total)

		// Duplicates across pages still count against the search window.
		if len(resp.Items) < perPage || fetched >= total {
			break
		}
	}

	if total > 0 && len(logins) > total {
		logins = logins[:total]
	}
	return logins, nil
}

// fetchDetails fetches the profile of every searched login, skipping failures
func (c *Collector) fetchDetails(ctx context.Context, cp *checkpoint.Checkpoint) error {
	for i := cp.DetailsDone; i < len(cp.Logins); i++ {
		login := cp.Logins[i]

		user, err := c.client.GetUser(ctx, login)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			c.logger.WithError(err).WithField("login", login).Error("Error fetching user details, skipping user")
			cp.Skipped = append(cp.Skipped, login)
		} else {
			cp.Users = append(cp.Users, models.UserFromAPI(user))
		}

		cp.DetailsDone = i + 1
		if cp.DetailsDone%checkpointEvery == 0 {
			c.report("details", cp.DetailsDone, len(cp.Logins))
			c.saveCheckpoint(cp)
		}
	}

	c.report("details", cp.DetailsDone, len(cp.Logins))
	return nil
}

// fetchRepositories lists the repositories of every kept user. A failure
// keeps the pages fetched before it.
func (c *Collector) fetchRepositories(ctx context.Context, cp *checkpoint.Checkpoint) error {
	for i := cp.ReposDone; i < len(cp.Users); i++ {
		login := cp.Users[i].Login

		repos, err := c.listRepositories(ctx, login)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"login": login,
				"kept":  len(repos),
			}).Error("Error fetching repositories for user")
		}
		cp.Repositories = append(cp.Repositories, repos...)

		cp.ReposDone = i + 1
		if cp.ReposDone%checkpointEvery == 0 {
			c.report("repositories", cp.ReposDone, len(cp.Users))
			c.saveCheckpoint(cp)
		}
	}

	c.report("repositories", cp.ReposDone, len(cp.Users))
	return nil
}

func (c *Collector) listRepositories(ctx context.Context, login string) ([]models.Repository, error) {
	perPage := c.config.Search.PerPage
	var out []models.Repository

	for page := 1; page <= c.config.Search.MaxRepoPages; page++ {
		repos, err := c.client.ListUserRepos(ctx, login, page, perPage)
		if err != nil {
			return out, err
		}
		for i := range repos {
			out = append(out, models.RepositoryFromAPI(login, &repos[i]))
		}
		if len(repos) < perPage {
			break
		}
	}

	c.logger.DebugWithFields("Fetched repositories", map[string]interface{}{
		"login": login,
		"count": len(out),
	})
	return out, nil
}

// ReportInfoFor describes the configured run for the Markdown report
func ReportInfoFor(cfg *config.Config) analysis.ReportInfo {
	return analysis.ReportInfo{
		Location:         cfg.Search.Location,
		MinFollowers:     cfg.Search.MinFollowers,
		UsersFile:        filepath.Base(cfg.Output.UsersFile),
		RepositoriesFile: filepath.Base(cfg.Output.RepositoriesFile),
		AnalysisFile:     filepath.Base(cfg.Output.AnalysisFile),
	}
}

// WriteOutputs checks the snapshot, then writes both tables, the summary
// and the report
func WriteOutputs(store *storage.Manager, info analysis.ReportInfo, snapshot *models.Snapshot) (*analysis.Summary, error) {
	if err := analysis.CheckIntegrity(snapshot); err != nil {
		return nil, fmt.Errorf("snapshot failed integrity check: %w", err)
	}

	if err := store.WriteUsers(snapshot.Users); err != nil {
		return nil, fmt.Errorf("failed to write users: %w", err)
	}
	if err := store.WriteRepositories(snapshot.Repositories); err != nil {
		return nil, fmt.Errorf("failed to write repositories: %w", err)
	}

	summary := analysis.Analyze(snapshot)
	if err := store.WriteAnalysis(summary); err != nil {
		return nil, fmt.Errorf("failed to write analysis: %w", err)
	}

	readme, err := analysis.RenderReadme(info, summary)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	if err := store.WriteReadme(readme); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	return summary, nil
}
