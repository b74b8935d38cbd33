package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tracklift/internal/config"
	"tracklift/internal/ipc"
)

func newFindCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "find <path>...",
		Short: "List media files under the given paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := make([]string, 0, len(args))
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				paths = append(paths, path)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Find(paths)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				for _, file := range resp.Files {
					fmt.Fprintln(out, file)
				}
				fmt.Fprintf(out, "%d media file(s)\n", resp.Count)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the raw worker result as JSON")
	return cmd
}
