package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"tracklift/internal/ipc"
)

const followPollInterval = 300 * time.Millisecond

// followOperation polls a submitted operation and renders a live progress
// bar until the daemon stops reporting it, then resolves the final state
// from the journal.
func followOperation(client *ipc.Client, operationID string, out io.Writer) error {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("starting"),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)

	for {
		resp, err := client.Progress(operationID)
		if err != nil {
			return err
		}
		if !resp.Found {
			break
		}

		prog := resp.Progress
		_ = bar.Set(prog.Percent)
		bar.Describe(describeProgress(prog))
		if prog.State == "completed" || prog.State == "failed" {
			break
		}
		time.Sleep(followPollInterval)
	}
	_ = bar.Finish()
	fmt.Fprintln(out)

	return reportFinalState(client, operationID, out)
}

func describeProgress(prog ipc.OperationProgress) string {
	if prog.Mode == "batch" && prog.TotalFiles > 0 {
		desc := fmt.Sprintf("%d/%d files", prog.CompletedFiles, prog.TotalFiles)
		if len(prog.ActiveWorkers) > 0 {
			desc += fmt.Sprintf(" (%d active)", len(prog.ActiveWorkers))
		}
		return desc
	}
	if status := strings.TrimSpace(prog.Status); status != "" {
		return status
	}
	return "extracting"
}

// reportFinalState resolves the journal outcome. The journal row goes
// terminal shortly after the live snapshot does, so poll briefly.
func reportFinalState(client *ipc.Client, operationID string, out io.Writer) error {
	deadline := time.Now().Add(5 * time.Second)
	for {
		history, err := client.History(50)
		if err != nil {
			return err
		}
		for _, op := range history.Operations {
			if op.OperationID != operationID {
				continue
			}
			switch op.Status {
			case "succeeded":
				if op.TotalFiles > 0 {
					fmt.Fprintf(out, "Completed %d/%d file(s)\n", op.CompletedFiles, op.TotalFiles)
				} else {
					fmt.Fprintln(out, "Completed")
				}
				return nil
			case "failed":
				message := strings.TrimSpace(op.ErrorMessage)
				if message == "" {
					message = "extraction failed"
				}
				return errors.New(message)
			}
		}
		if time.Now().After(deadline) {
			fmt.Fprintf(out, "Operation %s finished\n", operationID)
			return nil
		}
		time.Sleep(followPollInterval)
	}
}
