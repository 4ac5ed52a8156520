package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigRoundtrip(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), ConfigFile)

	cfg := DefaultConfig()
	cfg.Provider.Endpoint = "ws://127.0.0.1:8546"
	cfg.Networks.Supported = []uint64{1, 137}
	require.NoError(t, WriteConfig(cfgPath, cfg))

	loaded, err := ReadConfig(cfgPath)
	require.NoError(t, err)
	require.Equal(t, cfg.API.ListenAddress, loaded.API.ListenAddress)
	require.Equal(t, "ws://127.0.0.1:8546", loaded.Provider.Endpoint)
	require.Equal(t, cfg.Provider.PollInterval, loaded.Provider.PollInterval)
	require.Equal(t, []uint64{1, 137}, loaded.Networks.Supported)
	require.Equal(t, cfg.UI.ConnectLabel, loaded.UI.ConnectLabel)
}

func TestEnsureConfig(t *testing.T) {
	repoDir := t.TempDir()

	// first run writes the defaults
	cfg, err := EnsureConfig(repoDir)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().API.ListenAddress, cfg.API.ListenAddress)
	_, err = os.Stat(filepath.Join(repoDir, ConfigFile))
	require.NoError(t, err)

	// second run reads what the first wrote
	cfg.Provider.Vendor = "Rabby"
	require.NoError(t, WriteConfig(filepath.Join(repoDir, ConfigFile), cfg))

	loaded, err := EnsureConfig(repoDir)
	require.NoError(t, err)
	require.Equal(t, "Rabby", loaded.Provider.Vendor)
}

func TestHomeDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "repo")
	got, err := HomeDir(dir)
	require.NoError(t, err)
	require.Equal(t, dir, got)

	info, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
