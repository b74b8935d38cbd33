package journal

import "time"

// Status represents the lifecycle of a journaled operation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Kind identifies which worker function an operation invoked.
type Kind string

const (
	KindAnalyze Kind = "analyze"
	KindExtract Kind = "extract"
	KindBatch   Kind = "batch"
	KindFind    Kind = "find"
)

// Operation is one journaled worker call.
type Operation struct {
	ID             int64
	OperationID    string
	Kind           Kind
	Status         Status
	Source         string
	OutputDir      string
	TotalFiles     int
	CompletedFiles int
	ErrorMessage   string
	ResultJSON     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	StartedAt      *time.Time
	FinishedAt     *time.Time
}

// Terminal reports whether the operation has reached a final status.
func (o *Operation) Terminal() bool {
	return o.Status == StatusSucceeded || o.Status == StatusFailed
}

// Stats summarizes journal contents per status.
type Stats struct {
	Total     int
	Pending   int
	Running   int
	Succeeded int
	Failed    int
}
