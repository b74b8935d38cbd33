package daemon

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"tracklift/internal/extraction"
	"tracklift/internal/journal"
	"tracklift/internal/logging"
	"tracklift/internal/services/extractor"
)

// ExtractSubmission describes a single-file extraction to run in the
// background.
type ExtractSubmission struct {
	Source          string
	OutputDir       string
	Languages       []string
	AudioOnly       bool
	SubtitleOnly    bool
	VideoOnly       bool
	IncludeVideo    bool
	RemoveLetterbox bool
}

// BatchSubmission describes a multi-file extraction to run in the
// background.
type BatchSubmission struct {
	InputPaths      []string
	OutputDir       string
	Languages       []string
	MaxWorkers      int
	AudioOnly       bool
	SubtitleOnly    bool
	VideoOnly       bool
	IncludeVideo    bool
	RemoveLetterbox bool
}

// Analyze inspects one media file through the worker, journaling the call.
func (d *Daemon) Analyze(ctx context.Context, path string) (*extractor.AnalyzeResult, error) {
	client, err := d.newClient()
	if err != nil {
		return nil, err
	}
	operationID := uuid.NewString()
	d.journalStart(ctx, operationID, journal.KindAnalyze, path, "")

	result, err := client.AnalyzeFile(ctx, path)
	d.journalFinish(ctx, operationID, result, err)
	return result, err
}

// Find expands paths into the media files beneath them, journaling the
// call.
func (d *Daemon) Find(ctx context.Context, paths []string) (*extractor.FindResult, error) {
	client, err := d.newClient()
	if err != nil {
		return nil, err
	}
	operationID := uuid.NewString()
	d.journalStart(ctx, operationID, journal.KindFind, strings.Join(paths, " "), "")

	result, err := client.FindMediaFiles(ctx, paths)
	d.journalFinish(ctx, operationID, result, err)
	return result, err
}

// SubmitExtract launches a single-file extraction in the background and
// returns its operation id. At most one submitted operation runs at a time.
func (d *Daemon) SubmitExtract(ctx context.Context, sub ExtractSubmission) (string, error) {
	sub.OutputDir, sub.Languages = d.fillDefaults(sub.OutputDir, sub.Languages)
	orch, err := d.prepareRun(func(o *extraction.Orchestrator) {
		o.SetSourcePath(sub.Source)
		o.SetOutputDir(sub.OutputDir)
		o.SetLanguages(sub.Languages)
		applyOptions(o, extraction.Options{
			AudioOnly:       sub.AudioOnly,
			SubtitleOnly:    sub.SubtitleOnly,
			VideoOnly:       sub.VideoOnly,
			IncludeVideo:    sub.IncludeVideo,
			RemoveLetterbox: sub.RemoveLetterbox,
		})
	})
	if err != nil {
		return "", err
	}
	return d.launch(ctx, orch, journal.KindExtract, sub.Source, sub.OutputDir)
}

// SubmitBatch launches a batch extraction in the background and returns its
// operation id.
func (d *Daemon) SubmitBatch(ctx context.Context, sub BatchSubmission) (string, error) {
	sub.OutputDir, sub.Languages = d.fillDefaults(sub.OutputDir, sub.Languages)
	if sub.MaxWorkers <= 0 {
		sub.MaxWorkers = d.cfg.Extraction.MaxWorkers
	}
	orch, err := d.prepareRun(func(o *extraction.Orchestrator) {
		o.ToggleBatchMode()
		o.SetInputPaths(sub.InputPaths)
		o.SetOutputDir(sub.OutputDir)
		o.SetLanguages(sub.Languages)
		if sub.MaxWorkers > 0 {
			o.SetMaxWorkers(sub.MaxWorkers)
		}
		applyOptions(o, extraction.Options{
			AudioOnly:       sub.AudioOnly,
			SubtitleOnly:    sub.SubtitleOnly,
			VideoOnly:       sub.VideoOnly,
			IncludeVideo:    sub.IncludeVideo,
			RemoveLetterbox: sub.RemoveLetterbox,
		})
	})
	if err != nil {
		return "", err
	}
	return d.launch(ctx, orch, journal.KindBatch, strings.Join(sub.InputPaths, " "), sub.OutputDir)
}

// Progress returns the live (or last finished) snapshot for an operation
// id submitted to this daemon.
func (d *Daemon) Progress(operationID string) (extraction.Snapshot, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil || d.active.operationID != operationID {
		return extraction.Snapshot{}, false
	}
	return d.active.orch.Snapshot(), true
}

// Cancel force-terminates the worker behind an operation. Reported true
// when a live worker was killed.
func (d *Daemon) Cancel(operationID string) bool {
	if d.sup.Terminate(operationID) {
		d.logger.Info("operation canceled",
			logging.String(logging.FieldOperationID, operationID))
		return true
	}
	return false
}

// History returns recent journal rows, newest first.
func (d *Daemon) History(ctx context.Context, limit int) ([]*journal.Operation, error) {
	return d.store.List(ctx, limit)
}

// prepareRun enforces the single-flight contract and builds a configured
// orchestrator for a new submission.
// fillDefaults substitutes configured values for submission fields the
// caller left empty.
func (d *Daemon) fillDefaults(outputDir string, languages []string) (string, []string) {
	if strings.TrimSpace(outputDir) == "" {
		outputDir = d.cfg.Paths.OutputDir
	}
	if len(languages) == 0 {
		languages = d.cfg.Extraction.Languages
	}
	return outputDir, languages
}

func (d *Daemon) prepareRun(configure func(*extraction.Orchestrator)) (*extraction.Orchestrator, error) {
	client, err := d.newClient()
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != nil {
		select {
		case <-d.active.done:
		default:
			return nil, ErrOperationActive
		}
	}

	orch := extraction.New(client, d.logger)
	configure(orch)
	return orch, nil
}

// launch journals and starts a prepared orchestrator. The run outlives the
// submitting request; it is bound to the daemon lifetime.
func (d *Daemon) launch(ctx context.Context, orch *extraction.Orchestrator, kind journal.Kind, source, outputDir string) (string, error) {
	operationID := uuid.NewString()
	orch.SetOperationID(operationID)
	d.journalStart(ctx, operationID, kind, source, outputDir)

	run := &operationRun{
		operationID: operationID,
		kind:        kind,
		orch:        orch,
		done:        make(chan struct{}),
	}
	d.mu.Lock()
	d.active = run
	d.mu.Unlock()

	runCtx := d.ctx
	if runCtx == nil {
		runCtx = context.Background()
	}
	go func() {
		defer close(run.done)
		_, err := orch.Run(runCtx)
		snap := orch.Snapshot()
		if snap.TotalFiles > 0 {
			if jerr := d.store.UpdateProgress(context.Background(), operationID, snap.CompletedFiles, snap.TotalFiles); jerr != nil {
				d.logger.Warn("journal progress update failed", logging.Error(jerr))
			}
		}
		d.journalFinishSnapshot(operationID, snap, err)
	}()
	return operationID, nil
}

func (d *Daemon) journalStart(ctx context.Context, operationID string, kind journal.Kind, source, outputDir string) {
	if _, err := d.store.NewOperation(ctx, operationID, kind, source, outputDir); err != nil {
		d.logger.Warn("journal insert failed",
			logging.String(logging.FieldOperationID, operationID),
			logging.Error(err))
		return
	}
	if err := d.store.MarkRunning(ctx, operationID); err != nil {
		d.logger.Warn("journal update failed", logging.Error(err))
	}
}

func (d *Daemon) journalFinish(ctx context.Context, operationID string, result any, err error) {
	status := journal.StatusSucceeded
	message := ""
	resultJSON := ""
	if err != nil {
		status = journal.StatusFailed
		message = err.Error()
	} else if encoded, encErr := json.Marshal(result); encErr == nil {
		resultJSON = string(encoded)
	}
	if jerr := d.store.MarkFinished(ctx, operationID, status, message, resultJSON); jerr != nil {
		d.logger.Warn("journal finish failed", logging.Error(jerr))
	}
}

func (d *Daemon) journalFinishSnapshot(operationID string, snap extraction.Snapshot, err error) {
	status := journal.StatusSucceeded
	message := ""
	if err != nil || snap.State == extraction.StateFailed {
		status = journal.StatusFailed
		message = snap.Error
		if message == "" && err != nil {
			message = err.Error()
		}
	}
	if jerr := d.store.MarkFinished(context.Background(), operationID, status, message, ""); jerr != nil {
		d.logger.Warn("journal finish failed", logging.Error(jerr))
	}
}

// applyOptions drives a fresh orchestrator's toggles to the requested
// option set. Modifiers first; the exclusive group last so the final
// toggle wins.
func applyOptions(o *extraction.Orchestrator, want extraction.Options) {
	if want.IncludeVideo {
		mustToggle(o, extraction.OptionIncludeVideo)
	}
	if want.RemoveLetterbox {
		mustToggle(o, extraction.OptionRemoveLetterbox)
	}
	switch {
	case want.VideoOnly:
		mustToggle(o, extraction.OptionVideoOnly)
	case want.AudioOnly:
		mustToggle(o, extraction.OptionAudioOnly)
	case want.SubtitleOnly:
		mustToggle(o, extraction.OptionSubtitleOnly)
	}
}

func mustToggle(o *extraction.Orchestrator, name string) {
	// Option names here are package constants; a failure is a programming
	// error, not an input error.
	if _, err := o.ToggleOption(name); err != nil {
		panic(err)
	}
}
