package extractor_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"tracklift/internal/bridge"
	"tracklift/internal/progress"
	"tracklift/internal/services/extractor"
)

type scriptedExecutor struct {
	stdout  []string
	err     error
	gotArgs []string
}

func (s *scriptedExecutor) Run(_ context.Context, _, _ string, args []string, onStdout, _ func(string)) error {
	s.gotArgs = args
	for _, line := range s.stdout {
		onStdout(line)
	}
	return s.err
}

func newClient(t *testing.T, exec *scriptedExecutor, opts ...extractor.Option) *extractor.Client {
	t.Helper()
	b, err := bridge.New(bridge.Worker{Binary: "python3", Script: "/opt/worker/main.py"}, progress.NewHub(), nil, bridge.WithExecutor(exec))
	if err != nil {
		t.Fatalf("bridge.New: %v", err)
	}
	return extractor.New(b, nil, opts...)
}

func TestAnalyzeFileDecodesResult(t *testing.T) {
	stub := &scriptedExecutor{stdout: []string{
		`{"success":true,"tracks":[{"index":1,"type":"audio","codec":"dts","language":"eng","title":"Main"}],` +
			`"audio_tracks":1,"subtitle_tracks":0,"video_tracks":1,"languages":{"audio":["eng"],"subtitle":[]}}`,
	}}
	client := newClient(t, stub)

	result, err := client.AnalyzeFile(context.Background(), "/media/a.mkv")
	if err != nil {
		t.Fatalf("AnalyzeFile: %v", err)
	}
	if !result.Success || result.AudioTracks != 1 || len(result.Tracks) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Tracks[0].Language != "eng" {
		t.Errorf("track language = %q", result.Tracks[0].Language)
	}
	if got := stub.gotArgs[2]; got != `["/media/a.mkv"]` {
		t.Errorf("encoded args = %s", got)
	}
}

func TestFindMediaFilesWrapsPathList(t *testing.T) {
	stub := &scriptedExecutor{stdout: []string{`{"success":true,"files":["/a.mkv","/b.mkv"],"count":2}`}}
	client := newClient(t, stub)

	result, err := client.FindMediaFiles(context.Background(), []string{"/media"})
	if err != nil {
		t.Fatalf("FindMediaFiles: %v", err)
	}
	if result.Count != 2 || len(result.Files) != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
	if got := stub.gotArgs[2]; got != `[["/media"]]` {
		t.Errorf("encoded args = %s", got)
	}
}

func TestExtractTracksSendsSnakeCaseOptions(t *testing.T) {
	stub := &scriptedExecutor{stdout: []string{`{"success":true,"extracted_audio":["a.flac"],"extracted_subtitles":[],"extracted_video":[]}`}}
	client := newClient(t, stub)

	result, operationID, err := client.ExtractTracks(context.Background(), extractor.ExtractRequest{
		FilePath:     "/media/a.mkv",
		OutputDir:    "/out",
		Languages:    []string{"eng"},
		AudioOnly:    true,
		IncludeVideo: false,
		OperationID:  "op-9",
	})
	if err != nil {
		t.Fatalf("ExtractTracks: %v", err)
	}
	if operationID != "op-9" {
		t.Errorf("operation id = %q", operationID)
	}
	if !result.Success || len(result.ExtractedAudio) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	var sent []map[string]any
	if err := json.Unmarshal([]byte(stub.gotArgs[2]), &sent); err != nil || len(sent) != 1 {
		t.Fatalf("decode sent args %s: %v", stub.gotArgs[2], err)
	}
	options := sent[0]
	for _, key := range []string{"file_path", "output_dir", "audio_only", "subtitle_only", "include_video", "video_only", "remove_letterbox", "operation_id"} {
		if _, ok := options[key]; !ok {
			t.Errorf("missing snake_case option %q in %v", key, options)
		}
	}
	if _, ok := options["filePath"]; ok {
		t.Error("camelCase key leaked to the worker")
	}
}

func TestBatchExtractDecodesFailedFilePairs(t *testing.T) {
	stub := &scriptedExecutor{stdout: []string{
		`{"total_files":3,"processed_files":3,"successful_files":2,"failed_files":1,` +
			`"extracted_tracks":5,"failed_files_list":[["/media/bad.mkv","no audio streams"]]}`,
	}}
	client := newClient(t, stub)

	result, operationID, err := client.BatchExtract(context.Background(), extractor.BatchRequest{
		InputPaths: []string{"/a", "/b", "/c"},
		OutputDir:  "/out",
		MaxWorkers: 2,
	})
	if err != nil {
		t.Fatalf("BatchExtract: %v", err)
	}
	if operationID == "" {
		t.Error("expected generated operation id")
	}
	if result.SuccessfulFiles != 2 || result.FailedFiles != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(result.FailedFilesList) != 1 {
		t.Fatalf("failed files = %+v", result.FailedFilesList)
	}
	failed := result.FailedFilesList[0]
	if failed.Path != "/media/bad.mkv" || !strings.Contains(failed.Error, "no audio streams") {
		t.Errorf("failed entry = %+v", failed)
	}
}

func TestFailedFileRoundTrip(t *testing.T) {
	original := extractor.FailedFile{Path: "/x.mkv", Error: "boom"}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["/x.mkv","boom"]` {
		t.Errorf("encoded = %s", data)
	}
	var decoded extractor.FailedFile
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip = %+v", decoded)
	}
}

func TestProbeFailureIsSynchronous(t *testing.T) {
	stub := &scriptedExecutor{stdout: []string{`{}`}}
	client := newClient(t, stub, extractor.WithProbe(func() error {
		return errors.New("worker script missing")
	}))

	_, err := client.AnalyzeFile(context.Background(), "/media/a.mkv")
	var unavailable *extractor.UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want *extractor.UnavailableError", err)
	}
	if stub.gotArgs != nil {
		t.Error("worker was spawned despite failing probe")
	}
}
