package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tracklift/internal/ipc"
)

func newProgressCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "progress <operation-id>",
		Short: "Show progress of a submitted operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			operationID := args[0]
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()
				if follow {
					return followOperation(client, operationID, out)
				}

				resp, err := client.Progress(operationID)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				if !resp.Found {
					fmt.Fprintf(out, "Operation %s is not active; see `tracklift history`\n", operationID)
					return nil
				}

				prog := resp.Progress
				fmt.Fprintf(out, "Operation: %s (%s)\n", prog.OperationID, prog.Mode)
				fmt.Fprintf(out, "State:     %s\n", prog.State)
				fmt.Fprintf(out, "Progress:  %d%%\n", prog.Percent)
				if prog.Status != "" {
					fmt.Fprintf(out, "Status:    %s\n", prog.Status)
				}
				if prog.TotalFiles > 0 {
					fmt.Fprintf(out, "Files:     %d/%d\n", prog.CompletedFiles, prog.TotalFiles)
				}
				if len(prog.Files) > 0 {
					rows := make([][]string, 0, len(prog.Files))
					for _, file := range prog.Files {
						rows = append(rows, []string{
							strconv.Itoa(file.Index),
							file.FileName,
							strconv.Itoa(file.Percent) + "%",
							file.Status,
							file.WorkerID,
						})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"#", "File", "Progress", "Status", "Worker"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
					))
				}
				if prog.Error != "" {
					fmt.Fprintf(out, "Error:     %s\n", prog.Error)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow progress until the operation finishes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the snapshot as JSON")
	return cmd
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <operation-id>",
		Short: "Cancel a running operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			operationID := args[0]
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Cancel(operationID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Canceled {
					fmt.Fprintf(out, "Canceled operation %s\n", operationID)
				} else {
					fmt.Fprintf(out, "No running worker found for operation %s\n", operationID)
				}
				return nil
			})
		},
	}
}
