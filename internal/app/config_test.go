package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigSanitizesBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(
		"context_limit_tokens: -5\nwarn_ratio: 1.5\ncritical_ratio: 0.1\nanchor_recent: 0\n",
	), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 120000, cfg.ContextLimitTokens)
	assert.Equal(t, 0.8, cfg.WarnRatio)
	assert.Equal(t, 0.95, cfg.CriticalRatio)
	assert.Equal(t, 4, cfg.AnchorRecent)
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yml")
	cfg := DefaultConfig()
	cfg.ContextLimitTokens = 64000
	cfg.SnippetMinScore = 0.9
	cfg.FuzzyPatch = false

	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 64000, loaded.ContextLimitTokens)
	assert.Equal(t, 0.9, loaded.SnippetMinScore)
	assert.False(t, loaded.FuzzyPatch)
}
