package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "extracting") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset() // should not panic
}

func TestProgressSamplerLabelChange(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(0, "analyzing") {
		t.Error("first label should log")
	}
	if s.ShouldLog(0, "analyzing") {
		t.Error("same label and percent should not log again")
	}
	if !s.ShouldLog(0, "extracting") {
		t.Error("different label should log")
	}
	if s.lastLabel != "extracting" {
		t.Errorf("lastLabel = %q, want extracting", s.lastLabel)
	}
}

func TestProgressSamplerPercentBuckets(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(0, "extract") {
		t.Error("0%% should log")
	}
	if s.ShouldLog(3, "extract") {
		t.Error("3%% should not log (same bucket)")
	}
	if !s.ShouldLog(5, "extract") {
		t.Error("5%% should log (new bucket)")
	}
	if s.ShouldLog(7, "extract") {
		t.Error("7%% should not log (same bucket)")
	}
	if !s.ShouldLog(10, "extract") {
		t.Error("10%% should log (new bucket)")
	}
}

func TestProgressSamplerCapsAtHundred(t *testing.T) {
	s := NewProgressSampler(5)

	s.ShouldLog(95, "extract")
	if !s.ShouldLog(100, "extract") {
		t.Error("100%% should log")
	}
	if s.ShouldLog(105, "extract") {
		t.Error("105%% should reuse the 100%% bucket")
	}
}

func TestProgressSamplerBucketResetOnLabelChange(t *testing.T) {
	s := NewProgressSampler(5)

	s.ShouldLog(50, "file one")
	s.ShouldLog(0, "file two")
	if !s.ShouldLog(10, "file two") {
		t.Error("10%% should log after label change reset the bucket")
	}
}

func TestProgressSamplerNegativePercent(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(-1, "unknown") {
		t.Error("first call should log on label change even with negative percent")
	}
	if s.ShouldLog(-1, "unknown") {
		t.Error("negative percent should not trigger bucket logging")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(5)
	s.ShouldLog(50, "extract")

	s.Reset()

	if s.lastLabel != "" {
		t.Errorf("lastLabel = %q, want empty after reset", s.lastLabel)
	}
	if s.lastBucket != -1 {
		t.Errorf("lastBucket = %d, want -1 after reset", s.lastBucket)
	}
	if !s.ShouldLog(50, "extract") {
		t.Error("should log after reset")
	}
}
