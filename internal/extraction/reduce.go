package extraction

import (
	"fmt"
	"math"

	"tracklift/internal/logging"
	"tracklift/internal/progress"
)

// unknownWorker labels entries whose notification carried no worker id.
const unknownWorker = "unknown"

// handleEvent is the reducer driven by the progress hub. Events for a flow
// that is no longer running are dropped so late stragglers cannot disturb
// the terminal state.
func (o *Orchestrator) handleEvent(event progress.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateRunning {
		return
	}
	if o.mode == ModeBatch {
		o.reduceBatch(event)
		return
	}
	o.reduceSingle(event)
}

func (o *Orchestrator) reduceSingle(event progress.Event) {
	if pct := event.Percent(); pct != o.percent {
		o.percent = pct
	}
	o.status = singleStatusText(event)
}

func singleStatusText(event progress.Event) string {
	if event.Kind == progress.KindPositional && event.Positional != nil && event.Positional.TrackType != "" {
		pos := event.Positional
		if pos.Language != "" {
			return fmt.Sprintf("Extracting %s track %d [%s]", pos.TrackType, pos.TrackID, pos.Language)
		}
		return fmt.Sprintf("Extracting %s track %d", pos.TrackType, pos.TrackID)
	}
	if event.Kind == progress.KindKeyed && event.Keyed != nil && event.Keyed.Description != "" {
		return event.Keyed.Description
	}
	return "Extracting tracks"
}

func (o *Orchestrator) reduceBatch(event progress.Event) {
	keyed := event.Keyed
	if event.Kind != progress.KindKeyed || keyed == nil {
		return
	}

	if keyed.Status == "complete" && keyed.Success && keyed.HasCounts {
		o.recordFileCompletion(keyed)
	} else if keyed.HasFileIndex {
		o.upsertFileEntry(keyed)
	} else if keyed.Description != "" {
		o.status = keyed.Description
	}

	o.percent = overallPercent(o.totalFiles, o.completedFiles, o.files)
	if o.totalFiles > 0 {
		o.status = fmt.Sprintf("%d of %d files complete", o.completedFiles, o.totalFiles)
	}
}

// recordFileCompletion counts a terminal complete+success notification
// exactly once per file. The protocol requires one such notification per
// file; duplicates are violations and are logged, not double-counted.
func (o *Orchestrator) recordFileCompletion(keyed *progress.Keyed) {
	index := keyed.Current - 1
	if keyed.HasFileIndex {
		index = keyed.FileIndex
	}
	if _, seen := o.completedIndexes[index]; seen {
		o.logger.Warn("duplicate terminal notification for file",
			logging.Int(logging.FieldFileIndex, index),
			logging.String(logging.FieldOperationID, o.operationID),
		)
		return
	}
	o.completedIndexes[index] = struct{}{}
	if o.completedFiles < o.totalFiles {
		o.completedFiles++
	}
	delete(o.files, index)
}

func (o *Orchestrator) upsertFileEntry(keyed *progress.Keyed) {
	entry, ok := o.files[keyed.FileIndex]
	if !ok {
		entry = &FileProgress{Index: keyed.FileIndex, WorkerID: unknownWorker}
		o.files[keyed.FileIndex] = entry
	}
	if keyed.HasPercent {
		entry.Percent = progress.ClampPercent(keyed.Percent)
	}
	if keyed.FileName != "" {
		entry.FileName = keyed.FileName
	}
	if keyed.WorkerID != "" {
		entry.WorkerID = keyed.WorkerID
	}
	if keyed.Description != "" {
		entry.Status = keyed.Description
	} else if entry.Status == "" {
		entry.Status = "Processing"
	}

	// A full entry leaves the visible set; completion accounting happens
	// only on the terminal notification.
	if entry.Percent >= 100 {
		delete(o.files, keyed.FileIndex)
	}
}

// overallPercent combines completed files with the fractional share of the
// in-flight ones. Untouched files contribute zero; a zero total is zero.
func overallPercent(total, completed int, files map[int]*FileProgress) int {
	if total <= 0 {
		return 0
	}
	activeCount := len(files)
	activeSum := 0
	for _, entry := range files {
		activeSum += entry.Percent
	}
	denom := activeCount
	if denom < 1 {
		denom = 1
	}
	value := (float64(completed)/float64(total))*100 +
		(float64(activeSum)/float64(denom))*(float64(activeCount)/float64(total))
	pct := int(math.Round(value))
	return progress.ClampPercent(pct)
}
