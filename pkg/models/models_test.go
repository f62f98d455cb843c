package models

import (
	"testing"

	"ghscraper/pkg/github"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestCleanCompany(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"@atlassian", "ATLASSIAN"},
		{"  Canva  ", "CANVA"},
		{"https://www.example.com", "EXAMPLE"},
		{"http://foo.io", "FOO"},
		{"www.acme.org", "ACME"},
		{"@ www.spaced.net ", "WWW.SPACED"},
		{"Startup.co", "STARTUP"},
		{"company.com.au", "COMPANY.COM.AU"},
		{"@@double", "@DOUBLE"},
		{"example.io.com", "EXAMPLE"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanCompany(tt.in))
		})
	}
}

func TestUserFromAPI(t *testing.T) {
	u := UserFromAPI(&github.User{
		Login:       "alice",
		Name:        strPtr("Alice"),
		Company:     strPtr("@github"),
		Location:    strPtr("Sydney, Australia"),
		Hireable:    boolPtr(true),
		PublicRepos: 12,
		Followers:   340,
		Following:   7,
		CreatedAt:   "2012-03-04T05:06:07Z",
	})

	assert.Equal(t, User{
		Login:       "alice",
		Name:        "Alice",
		Company:     "GITHUB",
		Location:    "Sydney, Australia",
		Hireable:    true,
		PublicRepos: 12,
		Followers:   340,
		Following:   7,
		CreatedAt:   "2012-03-04T05:06:07Z",
	}, u)

	nulls := UserFromAPI(&github.User{Login: "bob"})
	assert.False(t, nulls.Hireable)
	assert.Empty(t, nulls.Company)
	assert.Empty(t, nulls.Email)
}

func TestRepositoryFromAPI(t *testing.T) {
	r := RepositoryFromAPI("alice", &github.Repository{
		FullName:        "alice/tool",
		StargazersCount: 10,
		WatchersCount:   10,
		ForksCount:      3,
		Language:        strPtr("Go"),
		HasWiki:         true,
		License:         &github.License{Key: "mit", Name: "MIT License"},
	})
	assert.Equal(t, "alice", r.Login)
	assert.Equal(t, "Go", r.Language)
	assert.Equal(t, "mit", r.LicenseName)
	assert.Equal(t, 3, r.ForksCount)

	bare := RepositoryFromAPI("alice", &github.Repository{FullName: "alice/empty"})
	assert.Empty(t, bare.Language)
	assert.Empty(t, bare.LicenseName)
}

func TestRecordsMatchHeaders(t *testing.T) {
	assert.Len(t, User{}.Record(), len(UserHeader))
	assert.Len(t, Repository{}.Record(), len(RepositoryHeader))
}

func TestParseUser(t *testing.T) {
	u, err := ParseUser([]string{"alice", "Alice", "GITHUB", "Sydney", "", "True", "bio, with comma", "12", "340", "7", "2012-03-04T05:06:07Z"})
	require.NoError(t, err)
	assert.True(t, u.Hireable, "capitalised booleans from older exports are accepted")
	assert.Equal(t, 340, u.Followers)
	assert.Equal(t, "bio, with comma", u.Bio)

	_, err = ParseUser([]string{"alice"})
	assert.Error(t, err)

	_, err = ParseUser([]string{"alice", "", "", "", "", "maybe", "", "1", "2", "3", ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hireable")
}

func TestParseRepository(t *testing.T) {
	want := Repository{
		Login:           "alice",
		FullName:        "alice/tool",
		CreatedAt:       "2020-01-01T00:00:00Z",
		StargazersCount: 42,
		WatchersCount:   42,
		ForksCount:      5,
		Language:        "",
		HasProjects:     true,
		LicenseName:     "apache-2.0",
	}

	got, err := ParseRepository(want.Record())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	row := want.Record()
	row[3] = "many"
	_, err = ParseRepository(row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stargazers_count")
}
