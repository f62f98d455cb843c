package github

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the public GitHub REST API
	DefaultBaseURL = "https://api.github.com"

	// SearchUsersEndpoint searches users
	SearchUsersEndpoint = "/search/users"

	// MaxPerPage is the largest page size the API accepts
	MaxPerPage = 100
)

func clampPerPage(perPage int) int {
	if perPage <= 0 || perPage > MaxPerPage {
		return MaxPerPage
	}
	return perPage
}

// SearchUsersURL constructs the URL for one page of a user search
func SearchUsersURL(baseURL, query string, page, perPage int) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("per_page", strconv.Itoa(clampPerPage(perPage)))
	params.Set("page", strconv.Itoa(page))

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), SearchUsersEndpoint, params.Encode())
}

// UserURL constructs the URL for a user's profile
func UserURL(baseURL, login string) string {
	return fmt.Sprintf("%s/users/%s", strings.TrimRight(baseURL, "/"), url.PathEscape(login))
}

// AuthenticatedUserURL constructs the URL for the token owner's profile
func AuthenticatedUserURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/user"
}

// UserReposURL constructs the URL for one page of a user's repositories,
// most recently pushed first
func UserReposURL(baseURL, login string, page, perPage int) string {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(clampPerPage(perPage)))
	params.Set("page", strconv.Itoa(page))
	params.Set("sort", "pushed")
	params.Set("direction", "desc")

	return fmt.Sprintf("%s/repos?%s", UserURL(baseURL, login), params.Encode())
}
