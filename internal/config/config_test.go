package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statseries/internal/config"
	"statseries/internal/series"
)

// TestLoad_Defaults uses built-in defaults when no file is given.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "statseries.db", cfg.Database)
	assert.Equal(t, series.DefaultTotalRules(), cfg.Totals)
	assert.Len(t, cfg.CatalogOptions(), 2)
}

// TestLoad_FileAndEnv reads YAML and lets the environment win.
func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statseries.yaml")
	content := `
database: cache.db
provider: graphql
source:
  endpoint: https://example.org/graphql
  timeout_seconds: 5
totals:
  exact: [total]
  contains: [toate]
collation: en
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("STATSERIES_DB", "override.db")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "override.db", cfg.Database)
	assert.Equal(t, "graphql", cfg.Provider)
	assert.Equal(t, "https://example.org/graphql", cfg.Source.Endpoint)
	assert.Equal(t, 5, cfg.Source.TimeoutSeconds)
	assert.Equal(t, 5, cfg.Source.RateLimitPerSec, "unset keys keep their defaults")
	assert.Equal(t, []string{"toate"}, cfg.Totals.Contains)
	assert.True(t, cfg.Totals.IsTotalLike("Toate varstele"))
}

// TestLoad_Errors reports unreadable files and invalid values.
func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collation: \"!!\"\n"), 0o644))
	_, err = config.Load(path)
	assert.Error(t, err)

	cfg := config.Default()
	cfg.Totals = series.TotalRules{}
	assert.Error(t, cfg.Validate())
}
