package analysis

import (
	"encoding/json"
	"fmt"
	"testing"

	"ghscraper/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Users: []models.User{
			{Login: "alice", Hireable: true},
			{Login: "bob"},
			{Login: "carol", Hireable: true},
		},
		Repositories: []models.Repository{
			{Login: "alice", FullName: "alice/a1", StargazersCount: 5, Language: "Go"},
			{Login: "bob", FullName: "bob/b1", StargazersCount: 9, Language: "Python"},
			{Login: "alice", FullName: "alice/a2", StargazersCount: 9, Language: ""},
			{Login: "bob", FullName: "bob/b2", StargazersCount: 1, Language: "Go"},
			{Login: "carol", FullName: "carol/c1", StargazersCount: 0, Language: "Rust"},
		},
	}
}

func TestAnalyze(t *testing.T) {
	s := Analyze(sampleSnapshot())

	assert.Equal(t, 3, s.TotalUsers)
	assert.Equal(t, 5, s.TotalRepos)
	assert.Equal(t, 2, s.HireableUsers)
	assert.Equal(t, map[string]int{"Go": 2, "Python": 1, "Unknown": 1, "Rust": 1}, s.Languages)
	assert.InDelta(t, 4.8, s.AvgStarsPerRepo, 1e-9)
	assert.Equal(t, "alice", s.MostActiveUser, "alice appears first among the tied users")
	assert.Equal(t, "bob/b1", s.MostStarredRepo, "a later repository with equal stars does not win")
}

func TestMostActiveUserTieGoesToFirstSeen(t *testing.T) {
	s := Analyze(&models.Snapshot{
		Users: []models.User{{Login: "alice"}, {Login: "bob"}},
		Repositories: []models.Repository{
			{Login: "alice", FullName: "alice/a1"},
			{Login: "bob", FullName: "bob/b1"},
			{Login: "bob", FullName: "bob/b2"},
			{Login: "alice", FullName: "alice/a2"},
		},
	})
	assert.Equal(t, "alice", s.MostActiveUser)

	s = Analyze(&models.Snapshot{
		Repositories: []models.Repository{
			{Login: "alice", FullName: "alice/a1"},
			{Login: "bob", FullName: "bob/b1"},
			{Login: "bob", FullName: "bob/b2"},
		},
	})
	assert.Equal(t, "bob", s.MostActiveUser)
}

func TestAnalyzeEmpty(t *testing.T) {
	s := Analyze(&models.Snapshot{})

	assert.Equal(t, 0, s.TotalUsers)
	assert.Equal(t, 0, s.TotalRepos)
	assert.Empty(t, s.Languages)
	assert.Zero(t, s.AvgStarsPerRepo)
	assert.Empty(t, s.MostActiveUser)
	assert.Empty(t, s.MostStarredRepo)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_users":0,"total_repos":0,"hireable_users":0,"languages":{},"avg_stars_per_repo":0,"most_active_user":"","most_starred_repo":""}`, string(data))
}

func TestAnalyzeUnstarredRepositories(t *testing.T) {
	s := Analyze(&models.Snapshot{
		Users:        []models.User{{Login: "a"}},
		Repositories: []models.Repository{{Login: "a", FullName: "a/x"}},
	})
	assert.Empty(t, s.MostStarredRepo, "nothing beats the zero starting point")
	assert.Equal(t, "a", s.MostActiveUser)
}

func TestTotalsMatchRowCounts(t *testing.T) {
	snap := &models.Snapshot{}
	for i := 0; i < 371; i++ {
		snap.Users = append(snap.Users, models.User{Login: fmt.Sprintf("user%03d", i)})
	}
	for i := 0; i < 32424; i++ {
		snap.Repositories = append(snap.Repositories, models.Repository{
			Login:    snap.Users[i%len(snap.Users)].Login,
			FullName: fmt.Sprintf("repo-%d", i),
		})
	}

	s := Analyze(snap)
	assert.Equal(t, 371, s.TotalUsers)
	assert.Equal(t, 32424, s.TotalRepos)
	assert.NoError(t, CheckIntegrity(snap))
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	snap := sampleSnapshot()

	first, err := json.MarshalIndent(Analyze(snap), "", "  ")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.MarshalIndent(Analyze(snap), "", "  ")
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
	assert.Equal(t, sampleSnapshot(), snap, "the snapshot is not modified")
}

func TestTopLanguages(t *testing.T) {
	s := &Summary{Languages: map[string]int{"Go": 3, "Python": 3, "C": 1, "Rust": 2, "Zig": 1, "Unknown": 4}}

	top := TopLanguages(s, 5)
	assert.Equal(t, []LanguageCount{
		{"Unknown", 4}, {"Go", 3}, {"Python", 3}, {"Rust", 2}, {"C", 1},
	}, top)

	assert.Len(t, TopLanguages(s, -1), 6)
	assert.Empty(t, TopLanguages(&Summary{}, 5))
}

func TestCheckIntegrity(t *testing.T) {
	assert.NoError(t, CheckIntegrity(sampleSnapshot()))

	bad := sampleSnapshot()
	bad.Users = append(bad.Users, models.User{Login: "bob"})
	bad.Repositories = append(bad.Repositories,
		models.Repository{Login: "mallory", FullName: "mallory/x"},
		models.Repository{Login: "mallory", FullName: "mallory/y"},
	)

	err := CheckIntegrity(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate user "bob"`)
	assert.Contains(t, err.Error(), `2 repositories reference unknown user "mallory"`)
}
