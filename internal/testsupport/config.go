// Package testsupport provides fixtures shared by package tests: temp-dir
// configs, journal stores, and stub worker executables speaking the wire
// protocol.
package testsupport

import (
	"path/filepath"
	"testing"

	"tracklift/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.JournalDB = filepath.Join(base, "journal.db")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithWorker points the config at an existing worker executable.
func WithWorker(binary string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Worker.Binary = binary
		cfg.Worker.Script = ""
		cfg.Worker.Args = nil
	}
}
