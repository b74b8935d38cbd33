package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"

	"tracklift/internal/logging"
	"tracklift/internal/progress"
	"tracklift/internal/services/extractor"
)

// Mode selects between the two operating modes.
type Mode int

const (
	// ModeSingle extracts tracks from one source file.
	ModeSingle Mode = iota
	// ModeBatch extracts from many files under one operation.
	ModeBatch
)

func (m Mode) String() string {
	if m == ModeBatch {
		return "batch"
	}
	return "single"
}

// State is the orchestrator's flow state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// MaxWorkerCeiling bounds the configurable worker count regardless of how
// much concurrency the host reports.
const MaxWorkerCeiling = 16

// FileProgress is one batch file currently being worked on.
type FileProgress struct {
	Index    int
	FileName string
	Percent  int
	Status   string
	WorkerID string
}

// Snapshot is the display-ready view handed to renderers.
type Snapshot struct {
	Mode           Mode
	State          State
	OperationID    string
	Percent        int
	Status         string
	TotalFiles     int
	CompletedFiles int
	Files          []FileProgress
	ActiveWorkers  []string
	Error          string
}

// Capability is the worker-call surface the orchestrator drives.
type Capability interface {
	ExtractTracks(ctx context.Context, req extractor.ExtractRequest) (*extractor.ExtractResult, string, error)
	BatchExtract(ctx context.Context, req extractor.BatchRequest) (*extractor.BatchResult, string, error)
	SubscribeProgress(operationID string, handler progress.Handler) func()
}

// Outcome carries the worker result of a completed run; exactly one field
// is set, matching the mode the run dispatched on.
type Outcome struct {
	OperationID string
	Extract     *extractor.ExtractResult
	Batch       *extractor.BatchResult
}

// OrchestratorOption configures construction.
type OrchestratorOption func(*Orchestrator)

// WithConcurrency overrides the host concurrency probe used to bound the
// worker count (primarily for tests).
func WithConcurrency(probe func() int) OrchestratorOption {
	return func(o *Orchestrator) {
		if probe != nil {
			o.concurrency = probe
		}
	}
}

// Orchestrator coordinates one extraction flow at a time.
type Orchestrator struct {
	client      Capability
	logger      *slog.Logger
	concurrency func() int

	mu                 sync.Mutex
	pendingOperationID string
	mode               Mode
	state              State
	operationID        string
	options            Options
	languages          []string
	sourcePath         string
	inputPaths         []string
	outputDir          string
	maxWorkers         int
	percent            int
	status             string
	errText            string
	totalFiles         int
	completedFiles     int
	files              map[int]*FileProgress
	completedIndexes   map[int]struct{}
}

// New constructs an idle orchestrator in single-file mode.
func New(client Capability, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		client:      client,
		logger:      logging.WithComponent(logger, "extraction"),
		concurrency: runtime.NumCPU,
		maxWorkers:  1,
		files:       make(map[int]*FileProgress),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Mode reports the active operating mode.
func (o *Orchestrator) Mode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// ToggleBatchMode flips between single and batch mode. Leaving batch mode
// clears the batch inputs and all per-file progress state; entering it
// preserves single-file state, since languages and options are shared.
func (o *Orchestrator) ToggleBatchMode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode == ModeBatch {
		o.mode = ModeSingle
		o.inputPaths = nil
		o.files = make(map[int]*FileProgress)
		o.completedIndexes = nil
		o.totalFiles = 0
		o.completedFiles = 0
	} else {
		o.mode = ModeBatch
	}
	return o.mode
}

// ToggleOption flips the named option and returns the resulting set with
// the exclusion rule already re-applied.
func (o *Orchestrator) ToggleOption(name string) (Options, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	next, err := o.options.toggled(name)
	if err != nil {
		return o.options, err
	}
	o.options = next
	return next, nil
}

// Options returns the current option set.
func (o *Orchestrator) Options() Options {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.options
}

// SetLanguages replaces the language selection used by both modes.
func (o *Orchestrator) SetLanguages(languages []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.languages = append([]string(nil), languages...)
}

// SetSourcePath sets the single-file input.
func (o *Orchestrator) SetSourcePath(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sourcePath = path
}

// SetInputPaths sets the batch inputs. Indexes assigned to these files
// during a run are stable for the lifetime of that run.
func (o *Orchestrator) SetInputPaths(paths []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inputPaths = append([]string(nil), paths...)
}

// SetOutputDir sets the extraction target directory.
func (o *Orchestrator) SetOutputDir(dir string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outputDir = dir
}

// SetMaxWorkers stores a worker count clamped to [1, min(host
// concurrency, 16)] and returns the stored value. Out-of-range writes
// clamp, they never fail.
func (o *Orchestrator) SetMaxWorkers(n int) int {
	ceiling := o.concurrency()
	if ceiling > MaxWorkerCeiling {
		ceiling = MaxWorkerCeiling
	}
	if ceiling < 1 {
		ceiling = 1
	}
	if n < 1 {
		n = 1
	}
	if n > ceiling {
		n = ceiling
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.maxWorkers = n
	return n
}

// MaxWorkers returns the configured worker count.
func (o *Orchestrator) MaxWorkers() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.maxWorkers
}

// SetOperationID fixes the id the next Run uses instead of generating one.
// Hosts that journal the operation before launching the run need the id up
// front.
func (o *Orchestrator) SetOperationID(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pendingOperationID = id
}

// Run executes the flow for the current mode and blocks until the worker
// resolves. The single entry point dispatches on the mode enum; callers
// are responsible for not re-entering while a run is in flight.
func (o *Orchestrator) Run(ctx context.Context) (Outcome, error) {
	o.mu.Lock()
	mode := o.mode
	operationID := o.pendingOperationID
	o.pendingOperationID = ""
	if operationID == "" {
		operationID = uuid.NewString()
	}
	o.operationID = operationID
	o.state = StateRunning
	o.errText = ""
	o.percent = 0
	o.status = "Starting extraction"
	o.files = make(map[int]*FileProgress)
	o.completedIndexes = make(map[int]struct{})
	o.completedFiles = 0
	if mode == ModeBatch {
		o.totalFiles = len(o.inputPaths)
	} else {
		o.totalFiles = 0
	}
	o.mu.Unlock()

	unsubscribe := o.client.SubscribeProgress(operationID, o.handleEvent)
	defer unsubscribe()

	switch mode {
	case ModeBatch:
		return o.runBatch(ctx, operationID)
	default:
		return o.runSingle(ctx, operationID)
	}
}

func (o *Orchestrator) runSingle(ctx context.Context, operationID string) (Outcome, error) {
	o.mu.Lock()
	req := extractor.ExtractRequest{
		FilePath:        o.sourcePath,
		OutputDir:       o.outputDir,
		Languages:       append([]string(nil), o.languages...),
		AudioOnly:       o.options.AudioOnly,
		SubtitleOnly:    o.options.SubtitleOnly,
		IncludeVideo:    o.options.IncludeVideo,
		VideoOnly:       o.options.VideoOnly,
		RemoveLetterbox: o.options.RemoveLetterbox,
		OperationID:     operationID,
	}
	o.mu.Unlock()

	result, _, err := o.client.ExtractTracks(ctx, req)
	outcome := Outcome{OperationID: operationID, Extract: result}
	if err != nil {
		o.fail(err.Error())
		return outcome, err
	}
	if !result.Success {
		o.fail(result.Error)
		return outcome, fmt.Errorf("extraction failed: %s", result.Error)
	}
	o.finish("Extraction complete")
	return outcome, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, operationID string) (Outcome, error) {
	o.mu.Lock()
	req := extractor.BatchRequest{
		InputPaths:      append([]string(nil), o.inputPaths...),
		OutputDir:       o.outputDir,
		Languages:       append([]string(nil), o.languages...),
		MaxWorkers:      o.maxWorkers,
		AudioOnly:       o.options.AudioOnly,
		SubtitleOnly:    o.options.SubtitleOnly,
		IncludeVideo:    o.options.IncludeVideo,
		VideoOnly:       o.options.VideoOnly,
		RemoveLetterbox: o.options.RemoveLetterbox,
		OperationID:     operationID,
	}
	o.mu.Unlock()

	result, _, err := o.client.BatchExtract(ctx, req)
	outcome := Outcome{OperationID: operationID, Batch: result}
	if err != nil {
		o.fail(err.Error())
		return outcome, err
	}
	o.finish(fmt.Sprintf("Batch complete: %d of %d files succeeded", result.SuccessfulFiles, result.TotalFiles))
	return outcome, nil
}

// fail records the terminal error state, overwriting any prior error.
func (o *Orchestrator) fail(message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateFailed
	o.errText = message
	o.status = "Extraction failed"
}

// finish forces the displayed percentage to 100. A successful resolution
// is authoritative even when no final progress event was observed.
func (o *Orchestrator) finish(status string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateCompleted
	o.percent = 100
	o.status = status
	o.files = make(map[int]*FileProgress)
}

// Snapshot returns a copy of the current display state. Active files are
// sorted by index, workers by id.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{
		Mode:           o.mode,
		State:          o.state,
		OperationID:    o.operationID,
		Percent:        o.percent,
		Status:         o.status,
		TotalFiles:     o.totalFiles,
		CompletedFiles: o.completedFiles,
		Error:          o.errText,
	}
	if len(o.files) > 0 {
		snap.Files = make([]FileProgress, 0, len(o.files))
		workers := make(map[string]struct{})
		for _, entry := range o.files {
			snap.Files = append(snap.Files, *entry)
			if entry.WorkerID != "" {
				workers[entry.WorkerID] = struct{}{}
			}
		}
		sort.Slice(snap.Files, func(i, j int) bool { return snap.Files[i].Index < snap.Files[j].Index })
		snap.ActiveWorkers = make([]string, 0, len(workers))
		for id := range workers {
			snap.ActiveWorkers = append(snap.ActiveWorkers, id)
		}
		sort.Strings(snap.ActiveWorkers)
	}
	return snap
}
