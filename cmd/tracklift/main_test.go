package main

import (
	"strings"
	"testing"
	"time"
)

func TestAnalyzeCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"analyze", "/media/a.mkv"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, "Audio: 1")
	requireContains(t, out, "English")
	requireContains(t, out, "flac")
}

func TestAnalyzeCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"analyze", "--json", "/media/a.mkv"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("analyze --json: %v", err)
	}
	requireContains(t, out, `"audio_tracks": 1`)
	requireContains(t, out, `"codec": "flac"`)
}

func TestFindCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"find", "/media"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	requireContains(t, out, "/media/a.mkv")
	requireContains(t, out, "2 media file(s)")
}

func TestExtractDetachAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"extract", "--detach", "/media/a.mkv"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("extract --detach: %v", err)
	}
	requireContains(t, out, "Submitted operation ")
	operationID := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(out), "Submitted operation "))
	if operationID == "" {
		t.Fatalf("expected operation id in output %q", out)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		histOut, _, histErr := runCLI(t, []string{"history"}, env.socketPath, env.configPath)
		if histErr != nil {
			t.Fatalf("history: %v", histErr)
		}
		if strings.Contains(histOut, "succeeded") {
			requireContains(t, histOut, shortID(operationID))
			requireContains(t, histOut, "extract")
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("extraction never succeeded; history output: %q", histOut)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestHistoryFallsBackToJournalWhenDaemonDown(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"extract", "/media/a.mkv"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	requireContains(t, out, "Completed")

	// A dead socket forces the command onto the journal database.
	histOut, _, err := runCLI(t, []string{"history"}, env.cfg.Paths.LogDir+"/missing.sock", env.configPath)
	if err != nil {
		t.Fatalf("offline history: %v", err)
	}
	requireContains(t, histOut, "succeeded")
	requireContains(t, histOut, "extract")
}

func TestExtractFollowsProgress(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"extract", "/media/a.mkv"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	requireContains(t, out, "Completed")
}

func TestBatchCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"batch", "/media/a.mkv"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	requireContains(t, out, "Completed 1/1 file(s)")
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running")
	requireContains(t, out, "Dependencies")
	requireContains(t, out, "Operations")
}

func TestStatusOfflineShowsJournalStats(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"extract", "/media/a.mkv"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	requireContains(t, out, "Completed")

	statusOut, _, err := runCLI(t, []string{"status"}, env.cfg.Paths.LogDir+"/missing.sock", env.configPath)
	if err != nil {
		t.Fatalf("offline status: %v", err)
	}
	requireContains(t, statusOut, "Not running")
	requireContains(t, statusOut, "Operations")
	requireContains(t, statusOut, "Succeeded")
}

func TestCancelUnknownOperationCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"cancel", "no-such-id"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	requireContains(t, out, "No running worker found")
}

func TestProgressUnknownOperationCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"progress", "no-such-id"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	requireContains(t, out, "not active")
}

func TestDialErrorMentionsDaemonStart(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"find", "/media"}, env.cfg.Paths.LogDir+"/missing.sock", env.configPath)
	if err == nil {
		t.Fatal("expected dial error for missing socket")
	}
	if !strings.Contains(err.Error(), "daemon start") {
		t.Fatalf("expected hint to start the daemon, got %v", err)
	}
}

func TestShortIDAndSourceLabel(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID short input = %q", got)
	}
	if got := sourceLabel("/media/movies/a.mkv"); got != "a.mkv" {
		t.Fatalf("sourceLabel = %q", got)
	}
	if got := sourceLabel(""); got != "" {
		t.Fatalf("sourceLabel empty = %q", got)
	}
}
