// Package config loads store configuration (backend selection, path,
// cache sizing) the way the teacher's cmd/cayley/command package wires
// store.backend/store.address/store.options through spf13/viper, and the
// way its internal/config package shapes a typed Config loaded from a
// file. Here the two merge into one Options type, backed by a private
// *viper.Viper instance rather than package-global viper state, so
// multiple Options can coexist in one process (e.g. in tests).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Key names, dotted the way cmd/cayley/command's KeyBackend/KeyAddress
// constants are, so a config file or RDFSTORE_STORE_* environment
// variable can address them directly.
const (
	KeyBackend        = "store.backend"
	KeyPath           = "store.path"
	KeyCacheBytes     = "store.cache_bytes"
	KeyInitialMapSize = "store.initial_map_size"
)

// Default values used when neither a config file, environment variable,
// nor explicit Set call supplies one.
const (
	DefaultBackend        = "in-memory"
	DefaultCacheBytes     = int64(64 << 20) // 64 MiB
	DefaultInitialMapSize = 1 << 20         // 1 MiB, boltkv's bolt.Options.InitialMmapSize
)

// Options is the resolved store configuration surface (spec §6:
// backend, path, cache_bytes, initial_map_size).
type Options struct {
	v *viper.Viper
}

// New returns Options with every default set but nothing else loaded —
// equivalent to internal/config.Load("") returning a zero-value Config.
func New() *Options {
	v := viper.New()
	v.SetDefault(KeyBackend, DefaultBackend)
	v.SetDefault(KeyCacheBytes, DefaultCacheBytes)
	v.SetDefault(KeyInitialMapSize, DefaultInitialMapSize)
	return &Options{v: v}
}

// Load builds Options from a config file (any format viper supports —
// YAML, JSON, TOML — inferred from its extension) layered under
// RDFSTORE_-prefixed environment variables and package defaults. An
// empty path skips the file, mirroring internal/config.Load's "empty
// filename returns a zero-value config" contract.
func Load(path string) (*Options, error) {
	o := New()
	o.v.SetEnvPrefix("RDFSTORE")
	o.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	o.v.AutomaticEnv()
	if path == "" {
		return o, nil
	}
	o.v.SetConfigFile(path)
	if err := o.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: could not read %q: %w", path, err)
	}
	return o, nil
}

// Set overrides one key, for callers building Options programmatically
// (tests, or a future flag-binding layer) instead of from a file.
func (o *Options) Set(key string, value interface{}) { o.v.Set(key, value) }

// Backend names the kv.Backend implementation to construct: "in-memory",
// "lsm", or "mmap" (spec §4.C), the values kv.Backend.Type reports.
func (o *Options) Backend() string { return o.v.GetString(KeyBackend) }

// Path is the on-disk location a persistent backend opens (unused by
// "in-memory").
func (o *Options) Path() string { return o.v.GetString(KeyPath) }

// CacheBytes bounds a persistent backend's in-memory cache (badgerkv's
// block/index cache sizing).
func (o *Options) CacheBytes() int64 { return o.v.GetInt64(KeyCacheBytes) }

// InitialMapSize is boltkv's bolt.Options.InitialMmapSize: the initial
// memory-map size reserved up front to reduce mmap remapping as the
// database grows.
func (o *Options) InitialMapSize() int { return o.v.GetInt(KeyInitialMapSize) }
