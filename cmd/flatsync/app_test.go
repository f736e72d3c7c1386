package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/flatsync/internal/config"
	"github.com/mmcdole/flatsync/internal/logging"
	"github.com/mmcdole/flatsync/internal/store"
)

func TestNewApp_LaysOutScopedCache(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.Dir = t.TempDir()

	a, err := newApp(cfg, logging.Null())
	require.NoError(t, err)

	root := store.ScopedDir(cfg.Cache.Dir, cfg.API.BaseURL)
	for _, name := range []string{"data", "images", "flatsync.db"} {
		_, err := os.Stat(filepath.Join(root, name))
		assert.NoError(t, err, name)
	}

	assert.Error(t, a.requireConfigured())
	require.NoError(t, a.Close())
}

func TestRunAnswerAndStatus(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.Dir = t.TempDir()

	a, err := newApp(cfg, logging.Null())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.runAnswer([]string{"-a", "4411", "-i", "2", "-v", "1/3"}))
	saved := a.homework.Answers("4411")
	require.Len(t, saved, 1)
	assert.Equal(t, 2, saved[0].ProblemIndex)
	assert.Equal(t, "1/3", saved[0].Answer)

	assert.Error(t, a.runAnswer([]string{"-i", "0", "-v", "1"}))
	assert.NoError(t, a.runStatus(nil))
}
