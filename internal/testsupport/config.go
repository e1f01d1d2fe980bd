// Package testsupport provides shared helpers for package tests: temp-dir
// configs and store lifecycles.
package testsupport

import (
	"path/filepath"
	"testing"

	"nudge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ExportDir = filepath.Join(base, "exports")
	cfg.Paths.SocketPath = filepath.Join(base, "nudged.sock")
	cfg.Remote.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithoutRemote clears the remote credential so the gate stays closed.
func WithoutRemote() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Remote.Enabled = false
		cfg.Remote.APIKey = ""
	}
}

// WithExportDir overrides the session-export directory.
func WithExportDir(dir string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.ExportDir = dir
	}
}
