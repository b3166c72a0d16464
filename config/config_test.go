package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgcore/rdfstore/config"
)

func TestDefaults(t *testing.T) {
	o := config.New()
	require.Equal(t, config.DefaultBackend, o.Backend())
	require.Equal(t, "", o.Path())
	require.Equal(t, config.DefaultCacheBytes, o.CacheBytes())
	require.Equal(t, config.DefaultInitialMapSize, o.InitialMapSize())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	o, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.DefaultBackend, o.Backend())
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rdfstore.yaml")
	contents := `
store:
  backend: badger
  path: /var/lib/rdfstore
  cache_bytes: 134217728
  initial_map_size: 2097152
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	o, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "badger", o.Backend())
	require.Equal(t, "/var/lib/rdfstore", o.Path())
	require.Equal(t, int64(134217728), o.CacheBytes())
	require.Equal(t, 2097152, o.InitialMapSize())
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestEnvironmentOverridesDefault(t *testing.T) {
	t.Setenv("RDFSTORE_STORE_BACKEND", "bolt")
	o, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, "bolt", o.Backend())
}

func TestSetOverridesFile(t *testing.T) {
	o := config.New()
	o.Set(config.KeyBackend, "badger")
	require.Equal(t, "badger", o.Backend())
}
