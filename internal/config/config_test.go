package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/ecscache/internal/config"
)

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "ecscache:generation", cfg.Broadcast.Channel)
}

func TestLoadMergesYAMLFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "server:\n  port: 9090\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep their defaults
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("ECSCACHED_SERVER_PORT", "7777")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, 7777, cfg.Server.Port)
}
