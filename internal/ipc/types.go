package ipc

import (
	"tracklift/internal/journal"
	"tracklift/internal/services/extractor"
)

// PingRequest checks daemon liveness.
type PingRequest struct{}

// PingResponse carries the daemon's process id.
type PingResponse struct {
	PID int `json:"pid"`
}

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// DependencyStatus describes availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail"`
}

// StatusResponse represents combined daemon status information.
type StatusResponse struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	LockPath      string             `json:"lock_path"`
	JournalDBPath string             `json:"journal_db_path"`
	Stats         map[string]int     `json:"stats"`
	Active        *OperationProgress `json:"active,omitempty"`
	Dependencies  []DependencyStatus `json:"dependencies"`
}

// AnalyzeRequest inspects one media file.
type AnalyzeRequest struct {
	Path string `json:"path"`
}

// AnalyzeResponse carries the worker's track inventory.
type AnalyzeResponse struct {
	Result extractor.AnalyzeResult `json:"result"`
}

// FindRequest expands paths into media files.
type FindRequest struct {
	Paths []string `json:"paths"`
}

// FindResponse lists discovered media files.
type FindResponse struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

// SubmitExtractRequest launches a background single-file extraction.
type SubmitExtractRequest struct {
	Source          string   `json:"source"`
	OutputDir       string   `json:"output_dir"`
	Languages       []string `json:"languages"`
	AudioOnly       bool     `json:"audio_only"`
	SubtitleOnly    bool     `json:"subtitle_only"`
	VideoOnly       bool     `json:"video_only"`
	IncludeVideo    bool     `json:"include_video"`
	RemoveLetterbox bool     `json:"remove_letterbox"`
}

// SubmitExtractResponse returns the id of the submitted operation.
type SubmitExtractResponse struct {
	OperationID string `json:"operation_id"`
}

// SubmitBatchRequest launches a background batch extraction.
type SubmitBatchRequest struct {
	InputPaths      []string `json:"input_paths"`
	OutputDir       string   `json:"output_dir"`
	Languages       []string `json:"languages"`
	MaxWorkers      int      `json:"max_workers"`
	AudioOnly       bool     `json:"audio_only"`
	SubtitleOnly    bool     `json:"subtitle_only"`
	VideoOnly       bool     `json:"video_only"`
	IncludeVideo    bool     `json:"include_video"`
	RemoveLetterbox bool     `json:"remove_letterbox"`
}

// SubmitBatchResponse returns the id of the submitted operation.
type SubmitBatchResponse struct {
	OperationID string `json:"operation_id"`
}

// ProgressRequest polls a submitted operation.
type ProgressRequest struct {
	OperationID string `json:"operation_id"`
}

// FileProgress is one in-flight batch file on the wire.
type FileProgress struct {
	Index    int    `json:"index"`
	FileName string `json:"file_name"`
	Percent  int    `json:"percent"`
	Status   string `json:"status"`
	WorkerID string `json:"worker_id"`
}

// OperationProgress is a display-ready snapshot of a submitted operation.
type OperationProgress struct {
	OperationID    string         `json:"operation_id"`
	Mode           string         `json:"mode"`
	State          string         `json:"state"`
	Percent        int            `json:"percent"`
	Status         string         `json:"status"`
	TotalFiles     int            `json:"total_files"`
	CompletedFiles int            `json:"completed_files"`
	Files          []FileProgress `json:"files,omitempty"`
	ActiveWorkers  []string       `json:"active_workers,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// ProgressResponse reports the snapshot, when the id is known.
type ProgressResponse struct {
	Found    bool              `json:"found"`
	Progress OperationProgress `json:"progress"`
}

// CancelRequest force-terminates a running operation's worker.
type CancelRequest struct {
	OperationID string `json:"operation_id"`
}

// CancelResponse reports whether a live worker was killed.
type CancelResponse struct {
	Canceled bool `json:"canceled"`
}

// HistoryRequest fetches recent journal rows.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// OperationSummary is one journal row on the wire.
type OperationSummary struct {
	OperationID    string `json:"operation_id"`
	Kind           string `json:"kind"`
	Status         string `json:"status"`
	Source         string `json:"source"`
	OutputDir      string `json:"output_dir"`
	TotalFiles     int    `json:"total_files"`
	CompletedFiles int    `json:"completed_files"`
	ErrorMessage   string `json:"error_message,omitempty"`
	CreatedAt      string `json:"created_at"`
	FinishedAt     string `json:"finished_at,omitempty"`
}

// SummarizeOperation converts a journal row into its wire form. It is
// shared with clients that read the journal directly when the daemon is
// not running.
func SummarizeOperation(op *journal.Operation) OperationSummary {
	summary := OperationSummary{
		OperationID:    op.OperationID,
		Kind:           string(op.Kind),
		Status:         string(op.Status),
		Source:         op.Source,
		OutputDir:      op.OutputDir,
		TotalFiles:     op.TotalFiles,
		CompletedFiles: op.CompletedFiles,
		ErrorMessage:   op.ErrorMessage,
		CreatedAt:      op.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if op.FinishedAt != nil {
		summary.FinishedAt = op.FinishedAt.Format("2006-01-02 15:04:05")
	}
	return summary
}

// HistoryResponse lists journal rows, newest first.
type HistoryResponse struct {
	Operations []OperationSummary `json:"operations"`
}
