package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at a fresh temp dir
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.API, cfg.API)
	assert.Equal(t, def.Sync, cfg.Sync)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.False(t, cfg.IsConfigured())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "flatsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  token: file-token
  relation_id: rel-file
cache:
  dir: ~/flatcache
sync:
  concurrency: 3
  download_timeout: 45s
`), 0644))

	t.Setenv("FLATSYNC_API_TOKEN", "env-token")
	t.Setenv("FLATSYNC_SYNC_WINDOW_DAYS", "14")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.API.Token)
	assert.Equal(t, "rel-file", cfg.API.RelationID)
	assert.Equal(t, filepath.Join(dir, "flatcache"), cfg.Cache.Dir)
	assert.Equal(t, 3, cfg.Sync.Concurrency)
	assert.Equal(t, 45*time.Second, cfg.Sync.DownloadTimeout)
	assert.Equal(t, 14, cfg.Sync.WindowDays)
	assert.Equal(t, 3*time.Second, cfg.Sync.IdleDelay)
	assert.True(t, cfg.IsConfigured())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FLATSYNC_API_RELATION_ID=rel-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("FLATSYNC_API_RELATION_ID") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "rel-dotenv", cfg.API.RelationID)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.API.Token = "tok"
	cfg.API.RelationID = "rel"
	cfg.Sync.IdleDelay = 5 * time.Second
	cfg.Sync.Schedule = "0 0 * * * *"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
