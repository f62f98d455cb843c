package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"ghscraper/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ghscraper.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Users: []models.User{
			{Login: "zed", Name: "Zed", Company: "ACME", Hireable: true, Followers: 500, CreatedAt: "2010-05-01T00:00:00Z"},
			{Login: "amy", Bio: "hi, \"quoted\"", PublicRepos: 2, Following: 3},
		},
		Repositories: []models.Repository{
			{Login: "zed", FullName: "zed/b", StargazersCount: 9, ForksCount: 2, Language: "Go", HasWiki: true, LicenseName: "mit"},
			{Login: "zed", FullName: "zed/a", WatchersCount: 4, HasProjects: true},
			{Login: "amy", FullName: "amy/x", Language: "Python"},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := sampleSnapshot()

	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	users, repos, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, users)
	assert.Equal(t, 3, repos)
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSnapshot()))

	next := &models.Snapshot{
		Users:        []models.User{{Login: "solo"}},
		Repositories: []models.Repository{{Login: "solo", FullName: "solo/only"}},
	}
	require.NoError(t, s.Save(ctx, next))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, next, got)
}

func TestForeignKeyRejectsOrphans(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleSnapshot()))

	orphan := sampleSnapshot()
	orphan.Repositories = append(orphan.Repositories, models.Repository{Login: "nobody", FullName: "nobody/x"})

	err := s.Save(ctx, orphan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nobody/x")

	// the failed save rolled back, so the previous snapshot is intact
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)
}

func TestDuplicateLoginRejected(t *testing.T) {
	s := openTestStore(t)
	dup := &models.Snapshot{Users: []models.User{{Login: "a"}, {Login: "a"}}}
	assert.Error(t, s.Save(context.Background(), dup))
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleSnapshot()))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)
}

func TestLoadEmpty(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Users)
	assert.Empty(t, got.Repositories)
}
