package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "revsetql.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
repo_path = "/tmp/repo"
user_email = "dev@example.com"
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/repo", cfg.RepoPath)
	assert.Equal(t, "dev@example.com", cfg.UserEmail)
	assert.Equal(t, "default", cfg.Workspace)
	assert.Equal(t, 200.0, cfg.RateLimitRPS)
}

func TestLoadFromFile_Aliases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "revsetql.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[alias]]
name = "wip"
body = "description(glob:'wip*')"

[[alias]]
name = "since"
params = ["when"]
body = "date(when)..@"
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	require.Len(t, cfg.Aliases, 2)
	assert.Equal(t, "since", cfg.Aliases[0].Name)
	assert.Equal(t, []string{"when"}, cfg.Aliases[0].Params)
	assert.Equal(t, "wip", cfg.Aliases[1].Name)
	assert.Nil(t, cfg.Aliases[1].Params)
}

func TestLoad_CachesAcrossCalls(t *testing.T) {
	Reset()
	defer Reset()

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
