// Package models holds the two flat record types a collection run produces
// and their CSV row mapping.
package models

import (
	"fmt"
	"strconv"
	"strings"

	"ghscraper/pkg/github"
)

// User is one row of users.csv
type User struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Email       string `json:"email"`
	Hireable    bool   `json:"hireable"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	CreatedAt   string `json:"created_at"`
}

// Repository is one row of repositories.csv. Login references User.Login.
type Repository struct {
	Login           string `json:"login"`
	FullName        string `json:"full_name"`
	CreatedAt       string `json:"created_at"`
	StargazersCount int    `json:"stargazers_count"`
	WatchersCount   int    `json:"watchers_count"`
	ForksCount      int    `json:"forks_count"`
	Language        string `json:"language"`
	HasProjects     bool   `json:"has_projects"`
	HasWiki         bool   `json:"has_wiki"`
	LicenseName     string `json:"license_name"`
}

// Snapshot is the result of one collection run
type Snapshot struct {
	Users        []User
	Repositories []Repository
}

// UserHeader is the column order of users.csv
var UserHeader = []string{
	"login", "name", "company", "location", "email", "hireable",
	"bio", "public_repos", "followers", "following", "created_at",
}

// RepositoryHeader is the column order of repositories.csv
var RepositoryHeader = []string{
	"login", "full_name", "created_at", "stargazers_count", "watchers_count",
	"forks_count", "language", "has_projects", "has_wiki", "license_name",
}

var (
	companyPrefixes = []string{"@", "HTTP://", "HTTPS://", "WWW."}
	companySuffixes = []string{".COM", ".ORG", ".NET", ".CO", ".IO"}
)

// CleanCompany normalises a free-form company field: upper case, without a
// leading @, URL scheme or www., and without a trailing domain suffix.
// Each prefix and suffix is checked once, in order.
func CleanCompany(company string) string {
	c := strings.ToUpper(strings.TrimSpace(company))
	if c == "" {
		return ""
	}
	for _, p := range companyPrefixes {
		c = strings.TrimPrefix(c, p)
	}
	for _, s := range companySuffixes {
		c = strings.TrimSuffix(c, s)
	}
	return strings.TrimSpace(c)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// UserFromAPI maps a GitHub profile to a User row
func UserFromAPI(u *github.User) User {
	return User{
		Login:       u.Login,
		Name:        deref(u.Name),
		Company:     CleanCompany(deref(u.Company)),
		Location:    deref(u.Location),
		Email:       deref(u.Email),
		Hireable:    u.Hireable != nil && *u.Hireable,
		Bio:         deref(u.Bio),
		PublicRepos: u.PublicRepos,
		Followers:   u.Followers,
		Following:   u.Following,
		CreatedAt:   u.CreatedAt,
	}
}

// RepositoryFromAPI maps a GitHub repository owned by login to a Repository row
func RepositoryFromAPI(login string, r *github.Repository) Repository {
	repo := Repository{
		Login:           login,
		FullName:        r.FullName,
		CreatedAt:       r.CreatedAt,
		StargazersCount: r.StargazersCount,
		WatchersCount:   r.WatchersCount,
		ForksCount:      r.ForksCount,
		Language:        deref(r.Language),
		HasProjects:     r.HasProjects,
		HasWiki:         r.HasWiki,
	}
	if r.License != nil {
		repo.LicenseName = r.License.Key
	}
	return repo
}

// Record returns the user as a CSV row in UserHeader order
func (u User) Record() []string {
	return []string{
		u.Login,
		u.Name,
		u.Company,
		u.Location,
		u.Email,
		strconv.FormatBool(u.Hireable),
		u.Bio,
		strconv.Itoa(u.PublicRepos),
		strconv.Itoa(u.Followers),
		strconv.Itoa(u.Following),
		u.CreatedAt,
	}
}

// Record returns the repository as a CSV row in RepositoryHeader order
func (r Repository) Record() []string {
	return []string{
		r.Login,
		r.FullName,
		r.CreatedAt,
		strconv.Itoa(r.StargazersCount),
		strconv.Itoa(r.WatchersCount),
		strconv.Itoa(r.ForksCount),
		r.Language,
		strconv.FormatBool(r.HasProjects),
		strconv.FormatBool(r.HasWiki),
		r.LicenseName,
	}
}

// rowReader reads typed columns from a CSV row and keeps the first error
type rowReader struct {
	row []string
	err error
}

func (rr *rowReader) str(i int) string {
	return rr.row[i]
}

func (rr *rowReader) int(i int, name string) int {
	if rr.err != nil || rr.row[i] == "" {
		return 0
	}
	v, err := strconv.Atoi(rr.row[i])
	if err != nil {
		rr.err = fmt.Errorf("column %s: %w", name, err)
	}
	return v
}

func (rr *rowReader) bool(i int, name string) bool {
	if rr.err != nil || rr.row[i] == "" {
		return false
	}
	v, err := strconv.ParseBool(rr.row[i])
	if err != nil {
		rr.err = fmt.Errorf("column %s: %w", name, err)
	}
	return v
}

// ParseUser reads a users.csv row written by User.Record
func ParseUser(row []string) (User, error) {
	if len(row) != len(UserHeader) {
		return User{}, fmt.Errorf("user row has %d columns, want %d", len(row), len(UserHeader))
	}
	rr := &rowReader{row: row}
	u := User{
		Login:       rr.str(0),
		Name:        rr.str(1),
		Company:     rr.str(2),
		Location:    rr.str(3),
		Email:       rr.str(4),
		Hireable:    rr.bool(5, "hireable"),
		Bio:         rr.str(6),
		PublicRepos: rr.int(7, "public_repos"),
		Followers:   rr.int(8, "followers"),
		Following:   rr.int(9, "following"),
		CreatedAt:   rr.str(10),
	}
	return u, rr.err
}

// ParseRepository reads a repositories.csv row written by Repository.Record
func ParseRepository(row []string) (Repository, error) {
	if len(row) != len(RepositoryHeader) {
		return Repository{}, fmt.Errorf("repository row has %d columns, want %d", len(row), len(RepositoryHeader))
	}
	rr := &rowReader{row: row}
	r := Repository{
		Login:           rr.str(0),
		FullName:        rr.str(1),
		CreatedAt:       rr.str(2),
		StargazersCount: rr.int(3, "stargazers_count"),
		WatchersCount:   rr.int(4, "watchers_count"),
		ForksCount:      rr.int(5, "forks_count"),
		Language:        rr.str(6),
		HasProjects:     rr.bool(7, "has_projects"),
		HasWiki:         rr.bool(8, "has_wiki"),
		LicenseName:     rr.str(9),
	}
	return r, rr.err
}
