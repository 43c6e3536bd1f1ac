package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "riftwatch.db", cfg.Database.Path)
	assert.Equal(t, "dev", cfg.Jobs.Profile)
	assert.Equal(t, 20, cfg.Riot.RequestsPerSecond)
	assert.Equal(t, 100, cfg.Riot.RequestsPerTwoMinutes)
	assert.Equal(t, 90, cfg.Jobs.ExecutionRetentionDays)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "riftwatch.toml")
	content := `
[database]
path = "/tmp/rw-test.db"

[jobs]
profile = "prod"
execution_retention_days = 30

[riot]
region = "euw1"
requests_per_second = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/rw-test.db", cfg.Database.Path)
	assert.Equal(t, "prod", cfg.Jobs.Profile)
	assert.Equal(t, 30, cfg.Jobs.ExecutionRetentionDays)
	assert.Equal(t, "euw1", cfg.Riot.Region)
	assert.Equal(t, 5, cfg.Riot.RequestsPerSecond)
	// Untouched keys keep their defaults
	assert.Equal(t, 100, cfg.Riot.RequestsPerTwoMinutes)
}
