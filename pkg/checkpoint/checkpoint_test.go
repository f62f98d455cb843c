package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"ghscraper/pkg/logger"
	"ghscraper/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQuery = "location:Sydney followers:>100"

func TestCheckpointManager(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	t.Run("CreateAndLoad", func(t *testing.T) {
		mgr, err := NewManager("", testQuery, logger.NewNopLogger())
		require.NoError(t, err)

		cp, err := mgr.Create("run-1", testQuery)
		require.NoError(t, err)
		assert.Equal(t, StageSearch, cp.Stage)
		assert.Equal(t, Version, cp.Version)

		loaded, err := mgr.Load()
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, "run-1", loaded.RunID)
		assert.True(t, loaded.MatchesQuery(testQuery))
		assert.False(t, loaded.MatchesQuery("location:Perth followers:>100"))
	})

	t.Run("SaveProgress", func(t *testing.T) {
		mgr, err := NewManager("", testQuery, logger.NewNopLogger())
		require.NoError(t, err)

		cp, err := mgr.Create("run-2", testQuery)
		require.NoError(t, err)

		cp.Stage = StageRepos
		cp.Logins = []string{"alice", "bob"}
		cp.DetailsDone = 2
		cp.Users = []models.User{{Login: "alice", Hireable: true}, {Login: "bob"}}
		cp.ReposDone = 1
		cp.Repositories = []models.Repository{{Login: "alice", FullName: "alice/x", StargazersCount: 3}}
		require.NoError(t, mgr.Save(cp))

		loaded, err := mgr.Load()
		require.NoError(t, err)
		assert.Equal(t, StageRepos, loaded.Stage)
		assert.Equal(t, cp.Logins, loaded.Logins)
		assert.Equal(t, cp.Users, loaded.Users)
		assert.Equal(t, cp.Repositories, loaded.Repositories)
		assert.Equal(t, 1, loaded.ReposDone)
	})

	t.Run("DeleteAndExists", func(t *testing.T) {
		mgr, err := NewManager("", testQuery, logger.NewNopLogger())
		require.NoError(t, err)

		_, err = mgr.Create("run-3", testQuery)
		require.NoError(t, err)
		assert.True(t, mgr.Exists())

		require.NoError(t, mgr.Delete())
		assert.False(t, mgr.Exists())

		// deleting twice is fine
		require.NoError(t, mgr.Delete())
	})

	t.Run("LoadMissing", func(t *testing.T) {
		mgr, err := NewManager("", "location:Nowhere followers:>1", logger.NewNopLogger())
		require.NoError(t, err)

		cp, err := mgr.Load()
		require.NoError(t, err)
		assert.Nil(t, cp)
	})
}

func TestExplicitDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cp")
	mgr, err := NewManager(dir, testQuery, logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "location_sydney_followers_100-5d537080.checkpoint.json"), mgr.Path())

	_, err = mgr.Create("run", testQuery)
	require.NoError(t, err)
	_, err = os.Stat(mgr.Path())
	require.NoError(t, err)
	_, err = os.Stat(mgr.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadCorrupt(t *testing.T) {
	mgr, err := NewManager(t.TempDir(), testQuery, logger.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(mgr.Path(), []byte("{not json"), 0644))
	_, err = mgr.Load()
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(mgr.Path(), []byte(`{"version": 99}`), 0644))
	_, err = mgr.Load()
	assert.ErrorContains(t, err, "unsupported checkpoint version")
}

func TestFileKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"location:Sydney followers:>100", "location_sydney_followers_100-5d537080"},
		{"location:\"New York\" followers:>50", "location_new_york_followers_50-1c62d4e7"},
		{"", "default-e3b0c442"},
		{"::", "default-71546855"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileKey(tt.in), tt.in)
	}
}

func TestFileKeyNonASCIILocations(t *testing.T) {
	tokyo := FileKey("location:東京 followers:>100")
	osaka := FileKey("location:大阪 followers:>100")

	assert.NotEqual(t, tokyo, osaka)
	assert.Equal(t, "location_followers_100-59c0c325", tokyo)
	assert.Equal(t, "location_followers_100-426f101c", osaka)
	assert.Equal(t, tokyo, FileKey("location:東京 followers:>100"))

	dir := t.TempDir()
	tokyoMgr, err := NewManager(dir, "location:東京 followers:>100", logger.NewNopLogger())
	require.NoError(t, err)
	_, err = tokyoMgr.Create("run-tokyo", "location:東京 followers:>100")
	require.NoError(t, err)

	osakaMgr, err := NewManager(dir, "location:大阪 followers:>100", logger.NewNopLogger())
	require.NoError(t, err)
	assert.False(t, osakaMgr.Exists())
	require.NoError(t, osakaMgr.Delete())
	assert.True(t, tokyoMgr.Exists())
}
