package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tracklift/internal/config"
	"tracklift/internal/ipc"
	"tracklift/internal/language"
)

type extractFlags struct {
	outputDir       string
	languages       []string
	audioOnly       bool
	subtitleOnly    bool
	videoOnly       bool
	includeVideo    bool
	removeLetterbox bool
	detach          bool
}

func (f *extractFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.outputDir, "output", "o", "", "Output directory (defaults to the configured one)")
	cmd.Flags().StringSliceVar(&f.languages, "lang", nil, "Language filter (ISO 639 codes or English names)")
	cmd.Flags().BoolVar(&f.audioOnly, "audio-only", false, "Extract audio tracks only")
	cmd.Flags().BoolVar(&f.subtitleOnly, "subtitle-only", false, "Extract subtitle tracks only")
	cmd.Flags().BoolVar(&f.videoOnly, "video-only", false, "Extract the video track only")
	cmd.Flags().BoolVar(&f.includeVideo, "include-video", false, "Also extract the video track")
	cmd.Flags().BoolVar(&f.removeLetterbox, "remove-letterbox", false, "Crop letterbox bars from extracted video")
	cmd.Flags().BoolVar(&f.detach, "detach", false, "Submit and exit without waiting for completion")
}

func (f *extractFlags) normalizedLanguages() []string {
	return language.NormalizeList(f.languages)
}

func (f *extractFlags) resolveOutputDir() (string, error) {
	if strings.TrimSpace(f.outputDir) == "" {
		return "", nil
	}
	return config.ExpandPath(f.outputDir)
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	flags := &extractFlags{}

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract tracks from a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			outputDir, err := flags.resolveOutputDir()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SubmitExtract(ipc.SubmitExtractRequest{
					Source:          source,
					OutputDir:       outputDir,
					Languages:       flags.normalizedLanguages(),
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
	return cmd
}
