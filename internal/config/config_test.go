package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tracklift/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "tracklift", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	wantJournal := filepath.Join(tempHome, ".local", "share", "tracklift", "journal.db")
	if cfg.Paths.JournalDB != wantJournal {
		t.Fatalf("unexpected journal path: %q", cfg.Paths.JournalDB)
	}
	if cfg.Worker.Binary != "tracklift-worker" {
		t.Fatalf("unexpected worker binary: %q", cfg.Worker.Binary)
	}
	if len(cfg.Extraction.Languages) != 1 || cfg.Extraction.Languages[0] != "eng" {
		t.Fatalf("unexpected default languages: %v", cfg.Extraction.Languages)
	}
	if cfg.Extraction.MaxWorkers != 1 {
		t.Fatalf("unexpected default max_workers: %d", cfg.Extraction.MaxWorkers)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if !strings.HasPrefix(cfg.SocketPath(), cfg.Paths.LogDir) {
		t.Fatalf("socket path %q not under log dir", cfg.SocketPath())
	}
}

func TestLoadParsesExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracklift.toml")
	content := `
[paths]
log_dir = "` + dir + `/logs"
output_dir = "` + dir + `/out"
journal_db = "` + dir + `/journal.db"

[worker]
binary = "python3"
script = "` + dir + `/worker.py"
args = ["-u"]

[extraction]
languages = ["ENG", " jpn "]
max_workers = 4
audio_only = true

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Worker.Binary != "python3" || cfg.Worker.Script == "" {
		t.Fatalf("worker = %+v", cfg.Worker)
	}
	if len(cfg.Worker.Args) != 1 || cfg.Worker.Args[0] != "-u" {
		t.Fatalf("worker args = %v", cfg.Worker.Args)
	}
	if len(cfg.Extraction.Languages) != 2 || cfg.Extraction.Languages[0] != "eng" || cfg.Extraction.Languages[1] != "jpn" {
		t.Fatalf("languages not normalized: %v", cfg.Extraction.Languages)
	}
	if cfg.Extraction.MaxWorkers != 4 || !cfg.Extraction.AudioOnly {
		t.Fatalf("extraction = %+v", cfg.Extraction)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero workers", func(c *config.Config) { c.Extraction.MaxWorkers = -1 }, "max_workers"},
		{"too many workers", func(c *config.Config) { c.Extraction.MaxWorkers = 99 }, "max_workers"},
		{"conflicting selection", func(c *config.Config) {
			c.Extraction.AudioOnly = true
			c.Extraction.SubtitleOnly = true
		}, "mutually exclusive"},
		{"video plus audio", func(c *config.Config) {
			c.Extraction.VideoOnly = true
			c.Extraction.AudioOnly = true
		}, "video_only"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "yaml" }, "logging.format"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "chatty" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
}

func TestEnsureDirectoriesCreatesJournalParent(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Paths.JournalDB = filepath.Join(dir, "state", "journal.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, d := range []string{cfg.Paths.LogDir, cfg.Paths.OutputDir, filepath.Join(dir, "state")} {
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %q missing (err=%v)", d, err)
		}
	}
}
