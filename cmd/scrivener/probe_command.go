package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"scrivener/internal/export"
	"scrivener/internal/media/ffprobe"
	"scrivener/internal/pipeline"
	"scrivener/internal/services"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "probe <media>",
		Short: "Inspect a media file and preview how it will be windowed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			media, err := pipeline.CanonicalPath(args[0])
			if err != nil {
				return services.Wrap(services.ErrValidation, "cli", "probe", args[0], err)
			}
			prober := ffprobe.NewProber(cfg.Probe.FFprobeBinary, cfg.ProbeTimeout())
			result, err := prober.Inspect(cmd.Context(), media)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			duration := result.DurationSeconds()
			fmt.Fprintln(out, renderStatusLine("Media", statusInfo, media, colorize))
			fmt.Fprintln(out, renderStatusLine("Container", statusInfo, result.Format.FormatName, colorize))
			if math.IsNaN(duration) || duration <= 0 {
				fmt.Fprintln(out, renderStatusLine("Duration", statusWarn,
					fmt.Sprintf("unknown; %ds will be assumed", cfg.Pipeline.FallbackDurationSeconds), colorize))
			} else {
				windows := int(math.Ceil(duration / cfg.WindowDuration()))
				fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, export.ClockLabel(duration), colorize))
				fmt.Fprintln(out, renderStatusLine("Windows", statusInfo,
					fmt.Sprintf("%d of %ds", windows, cfg.Pipeline.WindowSeconds), colorize))
			}
			if result.AudioStreamCount() == 0 {
				fmt.Fprintln(out, renderStatusLine("Audio", statusWarn, "no audio stream; transcripts will be empty", colorize))
			}
			if result.VideoStreamCount() == 0 {
				fmt.Fprintln(out, renderStatusLine("Video", statusWarn, "no video stream; frame captures will fail", colorize))
			}

			if len(result.Streams) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(result.Streams))
			for _, stream := range result.Streams {
				detail := ""
				switch stream.CodecType {
				case "video":
					detail = fmt.Sprintf("%dx%d", stream.Width, stream.Height)
				case "audio":
					detail = fmt.Sprintf("%d ch", stream.Channels)
				}
				rows = append(rows, []string{strconv.Itoa(stream.Index), stream.CodecType, stream.CodecName, detail})
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable([]string{"#", "Type", "Codec", "Detail"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw ffprobe result as JSON")
	return cmd
}
