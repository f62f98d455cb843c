package collector

import (
	"context"

	"ghscraper/pkg/github"
)

// GitHubClient defines the GitHub API operations a collection run needs
type GitHubClient interface {
	SearchUsers(ctx context.Context, query string, page, perPage int) (*github.SearchUsersResponse, error)
	GetUser(ctx context.Context, login string) (*github.User, error)
	ListUserRepos(ctx context.Context, login string, page, perPage int) ([]github.Repository, error)
}

// Progress receives stage progress during a run
type Progress interface {
	Update(stage string, done, total int)
}
