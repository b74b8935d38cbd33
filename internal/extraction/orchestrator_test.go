package extraction_test

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"tracklift/internal/extraction"
	"tracklift/internal/progress"
	"tracklift/internal/services/extractor"
)

type stubCapability struct {
	hub *progress.Hub

	extractResult *extractor.ExtractResult
	extractErr    error
	batchResult   *extractor.BatchResult
	batchErr      error

	events     []progress.Event
	duringCall func()
	gotExtract *extractor.ExtractRequest
	gotBatch   *extractor.BatchRequest
}

func newStubCapability() *stubCapability {
	return &stubCapability{hub: progress.NewHub()}
}

func (s *stubCapability) SubscribeProgress(operationID string, handler progress.Handler) func() {
	return s.hub.Subscribe(operationID, handler)
}

func (s *stubCapability) ExtractTracks(_ context.Context, req extractor.ExtractRequest) (*extractor.ExtractResult, string, error) {
	s.gotExtract = &req
	for _, event := range s.events {
		s.hub.Publish(req.OperationID, event)
	}
	if s.duringCall != nil {
		s.duringCall()
	}
	return s.extractResult, req.OperationID, s.extractErr
}

func (s *stubCapability) BatchExtract(_ context.Context, req extractor.BatchRequest) (*extractor.BatchResult, string, error) {
	s.gotBatch = &req
	for _, event := range s.events {
		s.hub.Publish(req.OperationID, event)
	}
	if s.duringCall != nil {
		s.duringCall()
	}
	return s.batchResult, req.OperationID, s.batchErr
}

func positionalEvent(trackType string, trackID, percent int, language string) progress.Event {
	return progress.Event{
		Kind:       progress.KindPositional,
		Positional: &progress.Positional{TrackType: trackType, TrackID: trackID, Percent: percent, Language: language},
	}
}

func fileEvent(index, percent int, workerID, fileName string) progress.Event {
	return progress.Event{
		Kind: progress.KindKeyed,
		Keyed: &progress.Keyed{
			Percent: percent, HasPercent: true,
			FileIndex: index, HasFileIndex: true,
			WorkerID: workerID,
			FileName: fileName,
		},
	}
}

func terminalEvent(index, current, total int) progress.Event {
	return progress.Event{
		Kind: progress.KindKeyed,
		Keyed: &progress.Keyed{
			Status: "complete", Success: true,
			Current: current, Total: total, HasCounts: true,
			FileIndex: index, HasFileIndex: true,
		},
	}
}

func TestSingleFileRun(t *testing.T) {
	stub := newStubCapability()
	stub.events = []progress.Event{
		positionalEvent("audio", 0, 20, "eng"),
		positionalEvent("audio", 0, 100, "eng"),
	}
	stub.extractResult = &extractor.ExtractResult{Success: true, ExtractedAudio: []string{"a.flac"}}

	orch := extraction.New(stub, nil)
	orch.SetSourcePath("/media/a.mkv")
	orch.SetOutputDir("/out")
	orch.SetLanguages([]string{"eng"})

	var midStatus string
	var midPercent int
	stub.duringCall = func() {
		snap := orch.Snapshot()
		midStatus = snap.Status
		midPercent = snap.Percent
	}

	outcome, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Extract == nil || !outcome.Extract.Success {
		t.Fatalf("outcome = %+v", outcome)
	}
	if midPercent != 100 {
		t.Errorf("mid-run percent = %d, want 100", midPercent)
	}
	if !strings.Contains(midStatus, "audio track 0") {
		t.Errorf("status %q does not mention the track", midStatus)
	}
	snap := orch.Snapshot()
	if snap.State != extraction.StateCompleted || snap.Percent != 100 {
		t.Errorf("final snapshot = %+v", snap)
	}
	if stub.gotExtract.FilePath != "/media/a.mkv" {
		t.Errorf("request path = %q", stub.gotExtract.FilePath)
	}
}

func TestSingleFileRunForcesFullPercentWithoutFinalEvent(t *testing.T) {
	stub := newStubCapability()
	stub.events = []progress.Event{positionalEvent("audio", 0, 73, "eng")}
	stub.extractResult = &extractor.ExtractResult{Success: true}

	orch := extraction.New(stub, nil)
	if _, err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if snap := orch.Snapshot(); snap.Percent != 100 {
		t.Errorf("percent = %d, want forced 100", snap.Percent)
	}
}

func TestSingleFileRunFailure(t *testing.T) {
	stub := newStubCapability()
	stub.extractErr = errors.New("worker exited with code 1: file not found")

	orch := extraction.New(stub, nil)
	if _, err := orch.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	snap := orch.Snapshot()
	if snap.State != extraction.StateFailed {
		t.Errorf("state = %v", snap.State)
	}
	if !strings.Contains(snap.Error, "1") || !strings.Contains(snap.Error, "file not found") {
		t.Errorf("error %q missing code or diagnostic", snap.Error)
	}
}

func TestUnsuccessfulResultSetsFailedState(t *testing.T) {
	stub := newStubCapability()
	stub.extractResult = &extractor.ExtractResult{Success: false, Error: "no matching tracks"}

	orch := extraction.New(stub, nil)
	if _, err := orch.Run(context.Background()); err == nil {
		t.Fatal("expected error for unsuccessful result")
	}
	if snap := orch.Snapshot(); snap.Error != "no matching tracks" {
		t.Errorf("error = %q", snap.Error)
	}
}

func TestBatchOverallFormula(t *testing.T) {
	stub := newStubCapability()
	// File 0 runs to completion, file 1 sits at 40%, file 2 untouched.
	stub.events = []progress.Event{
		fileEvent(0, 50, "w1", "a.mkv"),
		fileEvent(1, 40, "w2", "b.mkv"),
		fileEvent(0, 100, "w1", "a.mkv"),
		terminalEvent(0, 1, 3),
	}
	stub.batchResult = &extractor.BatchResult{TotalFiles: 3, SuccessfulFiles: 3}

	orch := extraction.New(stub, nil)
	orch.ToggleBatchMode()
	orch.SetInputPaths([]string{"/a.mkv", "/b.mkv", "/c.mkv"})

	var mid extraction.Snapshot
	stub.duringCall = func() { mid = orch.Snapshot() }

	if _, err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mid.CompletedFiles != 1 || mid.TotalFiles != 3 {
		t.Fatalf("counters = %d/%d", mid.CompletedFiles, mid.TotalFiles)
	}
	if len(mid.Files) != 1 || mid.Files[0].Index != 1 {
		t.Fatalf("active files = %+v; the finished file must leave the visible set", mid.Files)
	}
	if mid.Percent != 47 {
		t.Errorf("overall = %d, want 47", mid.Percent)
	}
	if len(mid.ActiveWorkers) != 1 || mid.ActiveWorkers[0] != "w2" {
		t.Errorf("active workers = %v", mid.ActiveWorkers)
	}
}

func TestBatchDuplicateTerminalNotificationsNotDoubleCounted(t *testing.T) {
	stub := newStubCapability()
	stub.events = []progress.Event{
		terminalEvent(0, 1, 2),
		terminalEvent(0, 1, 2),
		terminalEvent(1, 2, 2),
	}
	stub.batchResult = &extractor.BatchResult{TotalFiles: 2, SuccessfulFiles: 2}

	orch := extraction.New(stub, nil)
	orch.ToggleBatchMode()
	orch.SetInputPaths([]string{"/a", "/b"})

	var mid extraction.Snapshot
	stub.duringCall = func() { mid = orch.Snapshot() }

	if _, err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mid.CompletedFiles != 2 {
		t.Errorf("completed = %d, want 2", mid.CompletedFiles)
	}
	if mid.Percent != 100 {
		t.Errorf("overall = %d, want 100", mid.Percent)
	}
}

func TestBatchArbitraryInterleavingEndsAtFull(t *testing.T) {
	const files = 5
	paths := make([]string, files)
	var events []progress.Event
	for i := 0; i < files; i++ {
		paths[i] = "/in"
		events = append(events,
			fileEvent(i, 30, "w1", ""),
			fileEvent(i, 80, "w2", ""),
			terminalEvent(i, i+1, files),
		)
	}
	rng := rand.New(rand.NewSource(7))
	rng.Shuffle(len(events), func(i, j int) { events[i], events[j] = events[j], events[i] })

	stub := newStubCapability()
	stub.events = events
	stub.batchResult = &extractor.BatchResult{TotalFiles: files, SuccessfulFiles: files}

	orch := extraction.New(stub, nil)
	orch.ToggleBatchMode()
	orch.SetInputPaths(paths)

	var mid extraction.Snapshot
	stub.duringCall = func() { mid = orch.Snapshot() }

	if _, err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mid.CompletedFiles != files {
		t.Errorf("completed = %d, want %d", mid.CompletedFiles, files)
	}
	if mid.Percent != 100 {
		t.Errorf("overall = %d, want 100 regardless of event order", mid.Percent)
	}
}

func TestBatchPartialFailureIsCompletedState(t *testing.T) {
	stub := newStubCapability()
	stub.batchResult = &extractor.BatchResult{
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		FailedFilesList: []extractor.FailedFile{{Path: "/b", Error: "corrupt container"}},
	}

	orch := extraction.New(stub, nil)
	orch.ToggleBatchMode()
	orch.SetInputPaths([]string{"/a", "/b"})

	outcome, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("partial failure must not be an error: %v", err)
	}
	if len(outcome.Batch.FailedFilesList) != 1 {
		t.Errorf("failed list = %+v", outcome.Batch.FailedFilesList)
	}
	if snap := orch.Snapshot(); snap.State != extraction.StateCompleted {
		t.Errorf("state = %v", snap.State)
	}
}

func TestToggleBatchModeClearsBatchState(t *testing.T) {
	stub := newStubCapability()
	stub.events = []progress.Event{fileEvent(0, 10, "w1", "a.mkv")}
	stub.batchResult = &extractor.BatchResult{TotalFiles: 1, SuccessfulFiles: 1}

	orch := extraction.New(stub, nil)
	orch.SetSourcePath("/single.mkv")
	orch.SetLanguages([]string{"eng"})
	orch.ToggleBatchMode()
	orch.SetInputPaths([]string{"/a.mkv"})
	if _, err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if mode := orch.ToggleBatchMode(); mode != extraction.ModeSingle {
		t.Fatalf("mode = %v", mode)
	}
	snap := orch.Snapshot()
	if snap.TotalFiles != 0 || snap.CompletedFiles != 0 || len(snap.Files) != 0 {
		t.Errorf("batch state not cleared: %+v", snap)
	}

	// Shared single-file configuration survives the switch.
	stub.extractResult = &extractor.ExtractResult{Success: true}
	if _, err := orch.Run(context.Background()); err != nil {
		t.Fatalf("single run after switch: %v", err)
	}
	if stub.gotExtract.FilePath != "/single.mkv" || len(stub.gotExtract.Languages) != 1 {
		t.Errorf("single-file state lost: %+v", stub.gotExtract)
	}
}

func TestSetMaxWorkersClamps(t *testing.T) {
	orch := extraction.New(nil, nil, extraction.WithConcurrency(func() int { return 8 }))

	if got := orch.SetMaxWorkers(99); got != 8 {
		t.Errorf("SetMaxWorkers(99) = %d, want 8", got)
	}
	if got := orch.SetMaxWorkers(0); got != 1 {
		t.Errorf("SetMaxWorkers(0) = %d, want 1", got)
	}
	if got := orch.SetMaxWorkers(-3); got != 1 {
		t.Errorf("SetMaxWorkers(-3) = %d, want 1", got)
	}

	wide := extraction.New(nil, nil, extraction.WithConcurrency(func() int { return 64 }))
	if got := wide.SetMaxWorkers(99); got != extraction.MaxWorkerCeiling {
		t.Errorf("SetMaxWorkers(99) = %d, want ceiling %d", got, extraction.MaxWorkerCeiling)
	}
}

func TestLateEventsAfterCompletionAreDropped(t *testing.T) {
	stub := newStubCapability()
	stub.extractResult = &extractor.ExtractResult{Success: true}

	orch := extraction.New(stub, nil)
	if _, err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Events published after resolution must not disturb the forced 100%.
	stub.hub.Publish(orch.Snapshot().OperationID, positionalEvent("audio", 0, 10, "eng"))
	if snap := orch.Snapshot(); snap.Percent != 100 {
		t.Errorf("percent = %d after late event, want 100", snap.Percent)
	}
}
