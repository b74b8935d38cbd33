package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	lang "golang.org/x/text/language"

	"tracklift/internal/config"
	"tracklift/internal/ipc"
	"tracklift/internal/language"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Inspect the track inventory of a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Analyze(path)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Result)
				}
				result := resp.Result
				if !result.Success {
					if strings.TrimSpace(result.Error) != "" {
						return errors.New(result.Error)
					}
					return errors.New("analysis failed")
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s\n", path)
				fmt.Fprintf(out, "Audio: %d  Subtitle: %d  Video: %d\n\n",
					result.AudioTracks, result.SubtitleTracks, result.VideoTracks)

				rows := make([][]string, 0, len(result.Tracks))
				title := cases.Title(lang.Und)
				for _, track := range result.Tracks {
					rows = append(rows, []string{
						strconv.Itoa(track.Index),
						title.String(track.Type),
						track.Codec,
						language.DisplayName(track.Language),
						track.Title,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Type", "Codec", "Language", "Title"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))

				if langs := summarizeLanguages(result.Languages.Audio); langs != "" {
					fmt.Fprintf(out, "Audio languages: %s\n", langs)
				}
				if langs := summarizeLanguages(result.Languages.Subtitle); langs != "" {
					fmt.Fprintf(out, "Subtitle languages: %s\n", langs)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the raw worker result as JSON")
	return cmd
}

func summarizeLanguages(codes []string) string {
	if len(codes) == 0 {
		return ""
	}
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, language.DisplayName(code))
	}
	return strings.Join(names, ", ")
}
