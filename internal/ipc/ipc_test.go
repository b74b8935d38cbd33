package ipc_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"tracklift/internal/daemon"
	"tracklift/internal/ipc"
	"tracklift/internal/journal"
	"tracklift/internal/logging"
	"tracklift/internal/testsupport"
)

func newServerAndClient(t *testing.T) (*ipc.Client, *journal.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithWorker(testsupport.StubWorker(t)))
	store := testsupport.MustOpenJournal(t, cfg)
	logger := logging.NewNop()

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	socket := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client, store
}

func TestPingReportsPID(t *testing.T) {
	client, _ := newServerAndClient(t)

	ping, err := client.Ping()
	if err != nil {
		t.Fatalf("Ping RPC failed: %v", err)
	}
	if ping.PID != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), ping.PID)
	}
}

func TestStatusRoundTrip(t *testing.T) {
	client, _ := newServerAndClient(t)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.JournalDBPath == "" {
		t.Fatal("expected journal db path in status")
	}
	if _, ok := status.Stats["total"]; !ok {
		t.Fatalf("expected stats map with total key, got %v", status.Stats)
	}
	if len(status.Dependencies) == 0 {
		t.Fatal("expected dependency statuses")
	}
}

func TestAnalyzeAndFindRoundTrip(t *testing.T) {
	client, _ := newServerAndClient(t)

	analyze, err := client.Analyze("/media/a.mkv")
	if err != nil {
		t.Fatalf("Analyze RPC failed: %v", err)
	}
	if !analyze.Result.Success || analyze.Result.AudioTracks != 1 {
		t.Fatalf("unexpected analyze result: %+v", analyze.Result)
	}

	find, err := client.Find([]string{"/media"})
	if err != nil {
		t.Fatalf("Find RPC failed: %v", err)
	}
	if find.Count != 2 || len(find.Files) != 2 {
		t.Fatalf("unexpected find result: %+v", find)
	}
}

func TestAnalyzeRejectsEmptyPath(t *testing.T) {
	client, _ := newServerAndClient(t)

	if _, err := client.Analyze(""); err == nil {
		t.Fatal("expected error for empty analyze path")
	}
}

func TestSubmitExtractRunsAndJournals(t *testing.T) {
	client, store := newServerAndClient(t)

	resp, err := client.SubmitExtract(ipc.SubmitExtractRequest{Source: "/media/a.mkv"})
	if err != nil {
		t.Fatalf("SubmitExtract RPC failed: %v", err)
	}
	if resp.OperationID == "" {
		t.Fatal("expected operation id")
	}

	op := waitForTerminal(t, store, resp.OperationID)
	if op.Status != journal.StatusSucceeded {
		t.Fatalf("expected succeeded, got %s (%s)", op.Status, op.ErrorMessage)
	}

	history, err := client.History(10)
	if err != nil {
		t.Fatalf("History RPC failed: %v", err)
	}
	found := false
	for _, summary := range history.Operations {
		if summary.OperationID == resp.OperationID {
			found = true
			if summary.Kind != string(journal.KindExtract) {
				t.Fatalf("unexpected kind %s", summary.Kind)
			}
		}
	}
	if !found {
		t.Fatalf("submitted operation missing from history: %+v", history.Operations)
	}
}

func TestSubmitBatchRunsAndJournals(t *testing.T) {
	client, store := newServerAndClient(t)

	resp, err := client.SubmitBatch(ipc.SubmitBatchRequest{InputPaths: []string{"/media/a.mkv"}})
	if err != nil {
		t.Fatalf("SubmitBatch RPC failed: %v", err)
	}

	op := waitForTerminal(t, store, resp.OperationID)
	if op.Status != journal.StatusSucceeded {
		t.Fatalf("expected succeeded, got %s (%s)", op.Status, op.ErrorMessage)
	}
	if op.TotalFiles != 1 || op.CompletedFiles != 1 {
		t.Fatalf("expected 1/1 files, got %d/%d", op.CompletedFiles, op.TotalFiles)
	}
}

func TestProgressUnknownOperation(t *testing.T) {
	client, _ := newServerAndClient(t)

	resp, err := client.Progress("no-such-operation")
	if err != nil {
		t.Fatalf("Progress RPC failed: %v", err)
	}
	if resp.Found {
		t.Fatal("expected Found=false for unknown operation")
	}
}

func TestCancelUnknownOperation(t *testing.T) {
	client, _ := newServerAndClient(t)

	resp, err := client.Cancel("no-such-operation")
	if err != nil {
		t.Fatalf("Cancel RPC failed: %v", err)
	}
	if resp.Canceled {
		t.Fatal("expected Canceled=false for unknown operation")
	}
}

func TestStopMarksDaemonStopped(t *testing.T) {
	client, _ := newServerAndClient(t)

	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !resp.Stopped {
		t.Fatal("expected Stopped=true")
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status.Running {
		t.Fatal("expected daemon to report stopped")
	}
}

func waitForTerminal(t *testing.T, store *journal.Store, operationID string) *journal.Operation {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		op, err := store.GetByOperationID(context.Background(), operationID)
		if err != nil {
			t.Fatalf("journal lookup: %v", err)
		}
		if op != nil && op.Terminal() {
			return op
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("operation %s never reached a terminal status", operationID)
	return nil
}
