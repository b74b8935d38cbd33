package extractor

import (
	"encoding/json"
	"fmt"
)

// Worker function names on the wire.
const (
	FuncAnalyzeFile    = "analyze_file"
	FuncExtractTracks  = "extract_tracks"
	FuncBatchExtract   = "batch_extract"
	FuncFindMediaFiles = "find_media_files"
)

// Track describes one stream discovered during analysis.
type Track struct {
	Index    int    `json:"index"`
	Type     string `json:"type"`
	Codec    string `json:"codec"`
	Language string `json:"language"`
	Title    string `json:"title"`
}

// Languages groups the languages present per track class.
type Languages struct {
	Audio    []string `json:"audio"`
	Subtitle []string `json:"subtitle"`
	Video    []string `json:"video,omitempty"`
}

// AnalyzeResult is the worker's response to analyze_file.
type AnalyzeResult struct {
	Success        bool      `json:"success"`
	Tracks         []Track   `json:"tracks"`
	AudioTracks    int       `json:"audio_tracks"`
	SubtitleTracks int       `json:"subtitle_tracks"`
	VideoTracks    int       `json:"video_tracks"`
	Languages      Languages `json:"languages"`
	Error          string    `json:"error,omitempty"`
}

// ExtractRequest configures a single-file extraction call.
type ExtractRequest struct {
	FilePath        string
	OutputDir       string
	Languages       []string
	AudioOnly       bool
	SubtitleOnly    bool
	IncludeVideo    bool
	VideoOnly       bool
	RemoveLetterbox bool
	OperationID     string
}

// ExtractResult is the worker's response to extract_tracks.
type ExtractResult struct {
	Success            bool     `json:"success"`
	File               string   `json:"file"`
	ExtractedAudio     []string `json:"extracted_audio"`
	ExtractedSubtitles []string `json:"extracted_subtitles"`
	ExtractedVideo     []string `json:"extracted_video"`
	Error              string   `json:"error,omitempty"`
}

// BatchRequest configures a multi-file extraction call.
type BatchRequest struct {
	InputPaths      []string
	OutputDir       string
	Languages       []string
	MaxWorkers      int
	AudioOnly       bool
	SubtitleOnly    bool
	IncludeVideo    bool
	VideoOnly       bool
	RemoveLetterbox bool
	OperationID     string
}

// FailedFile pairs an input path with the error that sank it. On the wire
// it is a two-element array, not an object.
type FailedFile struct {
	Path  string
	Error string
}

// MarshalJSON encodes the pair as ["path", "error"].
func (f FailedFile) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{f.Path, f.Error})
}

// UnmarshalJSON decodes ["path", "error"]; extra elements are rejected.
func (f *FailedFile) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("failed-file entry: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("failed-file entry has %d elements, want 2", len(pair))
	}
	f.Path = pair[0]
	f.Error = pair[1]
	return nil
}

// BatchResult is the worker's response to batch_extract. A non-empty
// FailedFilesList alongside successes is the expected partial-failure
// outcome.
type BatchResult struct {
	TotalFiles      int          `json:"total_files"`
	ProcessedFiles  int          `json:"processed_files"`
	SuccessfulFiles int          `json:"successful_files"`
	FailedFiles     int          `json:"failed_files"`
	ExtractedTracks int          `json:"extracted_tracks"`
	FailedFilesList []FailedFile `json:"failed_files_list"`
}

// FindResult is the worker's response to find_media_files.
type FindResult struct {
	Success bool     `json:"success"`
	Files   []string `json:"files"`
	Count   int      `json:"count"`
	Error   string   `json:"error,omitempty"`
}

// UnavailableError reports that the worker-call interface is missing in
// the current environment. It is returned synchronously, before any spawn
// attempt.
type UnavailableError struct {
	Reason string
}

func (e *UnavailableError) Error() string {
	return "worker interface unavailable: " + e.Reason
}
