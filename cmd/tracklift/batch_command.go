package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tracklift/internal/config"
	"tracklift/internal/ipc"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	flags := &extractFlags{}
	var maxWorkers int

	cmd := &cobra.Command{
		Use:   "batch <path>...",
		Short: "Extract tracks from multiple files or directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := make([]string, 0, len(args))
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				inputs = append(inputs, path)
			}
			outputDir, err := flags.resolveOutputDir()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SubmitBatch(ipc.SubmitBatchRequest{
					InputPaths:      inputs,
					OutputDir:       outputDir,
					Languages:       flags.normalizedLanguages(),
					MaxWorkers:      maxWorkers,
					AudioOnly:       flags.audioOnly,
					SubtitleOnly:    flags.subtitleOnly,
					VideoOnly:       flags.videoOnly,
					IncludeVideo:    flags.includeVideo,
					RemoveLetterbox: flags.removeLetterbox,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if flags.detach {
					fmt.Fprintf(out, "Submitted operation %s\n", resp.OperationID)
					return nil
				}
				return followOperation(client, resp.OperationID, out)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&maxWorkers, "workers", "w", 0, "Concurrent worker processes (defaults to the configured value)")
	return cmd
}
