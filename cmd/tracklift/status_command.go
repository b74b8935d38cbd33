package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"tracklift/internal/deps"
	"tracklift/internal/ipc"
	"tracklift/internal/journal"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and journal status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			client, err := ctx.dialClient()
			if err != nil {
				offline := offlineStatus(ctx, cmd)
				if asJSON {
					return writeJSON(cmd, offline)
				}
				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "Not running (run `tracklift daemon start`)", colorize))
				if offline.JournalDBPath != "" {
					fmt.Fprintln(out, renderStatusLine("Journal", statusInfo, offline.JournalDBPath, colorize))
				}
				fmt.Fprintln(out)
				renderDependencyLines(out, offline.Dependencies, colorize)
				if offline.Stats != nil {
					fmt.Fprintln(out)
					renderOperationStats(out, offline.Stats, colorize)
				}
				return nil
			}
			defer client.Close()

			status, err := client.Status()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(out, line)
			}
			if status.Running {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "Stopping", colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Journal", statusInfo, status.JournalDBPath, colorize))
			fmt.Fprintln(out)

			renderDependencyLines(out, status.Dependencies, colorize)
			fmt.Fprintln(out)

			renderOperationStats(out, status.Stats, colorize)

			if status.Active != nil {
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Active Operation", colorize) {
					fmt.Fprintln(out, line)
				}
				prog := status.Active
				fmt.Fprintln(out, renderStatusLine("Operation", statusInfo, fmt.Sprintf("%s (%s)", prog.OperationID, prog.Mode), colorize))
				fmt.Fprintln(out, renderStatusLine("Progress", statusInfo, fmt.Sprintf("%d%%", prog.Percent), colorize))
				if prog.TotalFiles > 0 {
					fmt.Fprintln(out, renderStatusLine("Files", statusInfo, fmt.Sprintf("%d/%d", prog.CompletedFiles, prog.TotalFiles), colorize))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the status as JSON")
	return cmd
}

func renderOperationStats(out io.Writer, stats map[string]int, colorize bool) {
	for _, line := range renderSectionHeader("Operations", colorize) {
		fmt.Fprintln(out, line)
	}
	rows := [][]string{{
		strconv.Itoa(stats["total"]),
		strconv.Itoa(stats["pending"]),
		strconv.Itoa(stats["running"]),
		strconv.Itoa(stats["succeeded"]),
		strconv.Itoa(stats["failed"]),
	}}
	fmt.Fprintln(out, renderTable(
		[]string{"Total", "Pending", "Running", "Succeeded", "Failed"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
	))
}

// offlineStatus assembles what status can report without the daemon:
// local dependency probes plus journal stats read straight from the
// database.
func offlineStatus(ctx *commandContext, cmd *cobra.Command) ipc.StatusResponse {
	resp := ipc.StatusResponse{
		Dependencies: offlineDependencyStatuses(ctx),
	}
	cfg := ctx.configValue()
	if cfg == nil {
		return resp
	}
	resp.JournalDBPath = cfg.Paths.JournalDB
	store, err := journal.Open(cfg)
	if err != nil {
		return resp
	}
	defer store.Close()
	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return resp
	}
	resp.Stats = map[string]int{
		"total":     stats.Total,
		"pending":   stats.Pending,
		"running":   stats.Running,
		"succeeded": stats.Succeeded,
		"failed":    stats.Failed,
	}
	return resp
}

func renderDependencyLines(out io.Writer, statuses []ipc.DependencyStatus, colorize bool) {
	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(out, line)
	}
	if len(statuses) == 0 {
		fmt.Fprintln(out, renderStatusLine("Dependencies", statusInfo, "No checks configured", colorize))
		return
	}
	for _, dep := range statuses {
		kind := statusOK
		if !dep.Available {
			kind = statusError
			if dep.Optional {
				kind = statusWarn
			}
		}
		fmt.Fprintln(out, renderStatusLine(dep.Name, kind, dep.Detail, colorize))
	}
}

// offlineDependencyStatuses resolves dependency availability locally when
// the daemon is unreachable.
func offlineDependencyStatuses(ctx *commandContext) []ipc.DependencyStatus {
	cfg := ctx.configValue()
	if cfg == nil {
		return nil
	}
	checks := deps.WorkerStatus(cfg)
	statuses := make([]ipc.DependencyStatus, 0, len(checks))
	for _, check := range checks {
		statuses = append(statuses, ipc.DependencyStatus{
			Name:        check.Name,
			Command:     check.Command,
			Description: check.Description,
			Optional:    check.Optional,
			Available:   check.Available,
			Detail:      check.Detail,
		})
	}
	return statuses
}
