package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"tracklift/internal/ipc"
	"tracklift/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := fetchHistory(ctx, cmd, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, summaries)
			}
			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No operations recorded")
				return nil
			}

			rows := make([][]string, 0, len(summaries))
			for _, op := range summaries {
				files := ""
				if op.TotalFiles > 0 {
					files = fmt.Sprintf("%d/%d", op.CompletedFiles, op.TotalFiles)
				}
				rows = append(rows, []string{
					shortID(op.OperationID),
					op.Kind,
					op.Status,
					sourceLabel(op.Source),
					files,
					op.CreatedAt,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Kind", "Status", "Source", "Files", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of operations to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit journal rows as JSON")
	return cmd
}

// fetchHistory reads journal rows through the daemon, or straight from
// the journal database when the daemon is not running.
func fetchHistory(ctx *commandContext, cmd *cobra.Command, limit int) ([]ipc.OperationSummary, error) {
	client, err := ctx.dialClient()
	if err == nil {
		defer client.Close()
		resp, histErr := client.History(limit)
		if histErr != nil {
			return nil, histErr
		}
		return resp.Operations, nil
	}

	cfg, cfgErr := ctx.ensureConfig()
	if cfgErr != nil || cfg == nil {
		return nil, err
	}
	store, openErr := journal.Open(cfg)
	if openErr != nil {
		return nil, err
	}
	defer store.Close()

	ops, listErr := store.List(cmd.Context(), limit)
	if listErr != nil {
		return nil, fmt.Errorf("read journal: %w", listErr)
	}
	summaries := make([]ipc.OperationSummary, 0, len(ops))
	for _, op := range ops {
		if op == nil {
			continue
		}
		summaries = append(summaries, ipc.SummarizeOperation(op))
	}
	return summaries, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func sourceLabel(source string) string {
	if source == "" {
		return ""
	}
	base := filepath.Base(source)
	if base == "." || base == string(filepath.Separator) {
		return source
	}
	return base
}
