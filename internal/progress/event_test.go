package progress_test

import (
	"testing"

	"tracklift/internal/progress"
)

func TestDecodePositional(t *testing.T) {
	event, err := progress.Decode([]byte(`{"operationId":"op-1","args":["audio",0,20,"eng"],"kwargs":{}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if event.Kind != progress.KindPositional {
		t.Fatalf("expected positional event, got kind %d", event.Kind)
	}
	if event.OperationID != "op-1" {
		t.Errorf("operation id = %q", event.OperationID)
	}
	pos := event.Positional
	if pos == nil {
		t.Fatal("positional payload missing")
	}
	if pos.TrackType != "audio" || pos.TrackID != 0 || pos.Percent != 20 || pos.Language != "eng" {
		t.Errorf("unexpected positional values: %+v", pos)
	}
	if event.Percent() != 20 {
		t.Errorf("Percent() = %d, want 20", event.Percent())
	}
}

func TestDecodeKeyed(t *testing.T) {
	payload := `{"operationId":"op-2","args":[],"kwargs":{"percentage":55,"current":2,"total":5,"description":"extracting","status":"working","fileIndex":1,"fileName":"a.mkv","workerId":"w3"}}`
	event, err := progress.Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if event.Kind != progress.KindKeyed {
		t.Fatalf("expected keyed event, got kind %d", event.Kind)
	}
	keyed := event.Keyed
	if keyed == nil {
		t.Fatal("keyed payload missing")
	}
	if !keyed.HasPercent || keyed.Percent != 55 {
		t.Errorf("percent = %d (has=%v), want 55", keyed.Percent, keyed.HasPercent)
	}
	if !keyed.HasCounts || keyed.Current != 2 || keyed.Total != 5 {
		t.Errorf("counts = %d/%d (has=%v)", keyed.Current, keyed.Total, keyed.HasCounts)
	}
	if !keyed.HasFileIndex || keyed.FileIndex != 1 {
		t.Errorf("file index = %d (has=%v)", keyed.FileIndex, keyed.HasFileIndex)
	}
	if keyed.FileName != "a.mkv" || keyed.WorkerID != "w3" || keyed.Status != "working" {
		t.Errorf("unexpected keyed values: %+v", keyed)
	}
}

func TestDecodePrefersPositionalPercentSlot(t *testing.T) {
	payload := `{"operationId":"op-3","args":["subtitle",2,75,"spa"],"kwargs":{"percentage":10}}`
	event, err := progress.Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if event.Kind != progress.KindPositional {
		t.Fatalf("expected positional event when percent slot is set")
	}
	if event.Percent() != 75 {
		t.Errorf("Percent() = %d, want 75", event.Percent())
	}
}

func TestDecodeBareArgsFallBackToFirstValue(t *testing.T) {
	event, err := progress.Decode([]byte(`{"operationId":"op-4","args":[40],"kwargs":{}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if event.Kind != progress.KindPositional {
		t.Fatalf("expected positional event")
	}
	if event.Percent() != 40 {
		t.Errorf("Percent() = %d, want 40", event.Percent())
	}
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	for _, payload := range []string{`[1,2,3]`, `"progress"`, `42`, ``} {
		if _, err := progress.Decode([]byte(payload)); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", payload)
		}
	}
}

func TestCoercePercent(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  int
	}{
		{"float", 42.9, 42},
		{"int", 7, 7},
		{"numeric string", "63", 63},
		{"float string", "63.7", 63},
		{"padded string", " 12 ", 12},
		{"non-numeric string", "soon", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
		{"negative", -5.0, 0},
		{"overflow", 250.0, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := progress.CoercePercent(tc.value); got != tc.want {
				t.Errorf("CoercePercent(%v) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}
