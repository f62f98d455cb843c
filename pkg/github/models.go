package github

import "time"

// SearchUsersResponse is the body of GET /search/users
type SearchUsersResponse struct {
	TotalCount        int          `json:"total_count"`
	IncompleteResults bool         `json:"incomplete_results"`
	Items             []SearchUser `json:"items"`
}

// SearchUser is one hit of a user search
type SearchUser struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

// User is the body of GET /users/{login}. Nullable profile fields are pointers.
type User struct {
	Login       string  `json:"login"`
	ID          int64   `json:"id"`
	Name        *string `json:"name"`
	Company     *string `json:"company"`
	Location    *string `json:"location"`
	Email       *string `json:"email"`
	Hireable    *bool   `json:"hireable"`
	Bio         *string `json:"bio"`
	PublicRepos int     `json:"public_repos"`
	Followers   int     `json:"followers"`
	Following   int     `json:"following"`
	CreatedAt   string  `json:"created_at"`
}

// Repository is one element of GET /users/{login}/repos
type Repository struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	FullName        string   `json:"full_name"`
	CreatedAt       string   `json:"created_at"`
	StargazersCount int      `json:"stargazers_count"`
	WatchersCount   int      `json:"watchers_count"`
	ForksCount      int      `json:"forks_count"`
	Language        *string  `json:"language"`
	HasProjects     bool     `json:"has_projects"`
	HasWiki         bool     `json:"has_wiki"`
	License         *License `json:"license"`
}

// License is the license summary embedded in a repository
type License struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// RateLimitStatus is the last X-RateLimit-* state reported by the API
type RateLimitStatus struct {
	Limit     int
	Remaining int
	Reset     time.Time
}
