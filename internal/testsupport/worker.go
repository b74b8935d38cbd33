package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// WriteWorkerScript writes an executable /bin/sh script and returns its
// path. The script body runs with $1=function name, $2=JSON-encoded args,
// $3=operation id, matching the worker wire protocol.
func WriteWorkerScript(t testing.TB, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tracklift-worker")
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write worker script: %v", err)
	}
	return path
}

// StubWorker writes a worker that answers every protocol function with
// canned successful results and a short progress stream.
func StubWorker(t testing.TB) string {
	t.Helper()

	return WriteWorkerScript(t, `fn="$1"
op="$3"
case "$fn" in
analyze_file)
  printf '{"success":true,"tracks":[{"index":0,"type":"audio","codec":"flac","language":"eng","title":""}],"audio_tracks":1,"subtitle_tracks":0,"video_tracks":1,"languages":{"audio":["eng"],"subtitle":[]}}\n'
  ;;
extract_tracks)
  printf 'PROGRESS:{"operationId":"%s","args":["audio",0,50,"eng"],"kwargs":{}}\n' "$op"
  printf 'PROGRESS:{"operationId":"%s","args":["audio",0,100,"eng"],"kwargs":{}}\n' "$op"
  printf '{"success":true,"file":"a.mkv","extracted_audio":["a.flac"],"extracted_subtitles":[],"extracted_video":[]}\n'
  ;;
batch_extract)
  printf 'PROGRESS:{"operationId":"%s","kwargs":{"percentage":40,"fileIndex":0,"fileName":"a.mkv","workerId":"w1"}}\n' "$op"
  printf 'PROGRESS:{"operationId":"%s","kwargs":{"status":"complete","success":true,"current":1,"total":1,"fileIndex":0}}\n' "$op"
  printf '{"total_files":1,"processed_files":1,"successful_files":1,"failed_files":0,"extracted_tracks":2,"failed_files_list":[]}\n'
  ;;
find_media_files)
  printf '{"success":true,"files":["/media/a.mkv","/media/b.mkv"],"count":2}\n'
  ;;
*)
  echo "unknown function: $fn" >&2
  exit 1
  ;;
esac
`)
}

// FailingWorker writes a worker that exits non-zero with a diagnostic on
// stderr for every call.
func FailingWorker(t testing.TB, message string, code int) string {
	t.Helper()

	return WriteWorkerScript(t, `echo "`+message+`" >&2
exit `+strconv.Itoa(code)+`
`)
}
