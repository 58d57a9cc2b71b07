package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-clipper/internal/config"
	"github.com/heimdex/heimdex-clipper/internal/export"
	"github.com/heimdex/heimdex-clipper/internal/logging"
	"github.com/heimdex/heimdex-clipper/internal/media"
	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

var (
	segDuration float64
	segFrames   int
	segSplits   string

	trimInput  string
	trimStart  float64
	trimEnd    float64
	trimOutput string
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Print the segments a set of split points produces",
	Long: `Print the segments a set of split points produces on a timeline.
Split points go through the same guards as the editor: edge guard, minimum
separation and the split limit.`,
	Example: "  clipper segments --duration 60 --split 10,40",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		splits, err := parseSplits(segSplits)
		if err != nil {
			return err
		}
		return printSegments(cmd.OutOrStdout(), segDuration, segFrames, splits, timeline.DefaultPolicy())
	},
}

var trimCmd = &cobra.Command{
	Use:     "trim",
	Short:   "Cut one clip out of a video with ffmpeg",
	Example: "  clipper trim --input talk.mp4 --start 12.5 --end 48",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrim(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	segmentsCmd.Flags().Float64Var(&segDuration, "duration", 0, "timeline duration in seconds (required)")
	segmentsCmd.Flags().IntVar(&segFrames, "frames", 0, "frame count of the strip (default: one per second)")
	segmentsCmd.Flags().StringVar(&segSplits, "split", "", "comma separated split times in seconds")
	segmentsCmd.MarkFlagRequired("duration")

	trimCmd.Flags().StringVarP(&trimInput, "input", "i", "", "source video (required)")
	trimCmd.Flags().Float64Var(&trimStart, "start", 0, "clip start in seconds")
	trimCmd.Flags().Float64Var(&trimEnd, "end", 0, "clip end in seconds (default: end of video)")
	trimCmd.Flags().StringVarP(&trimOutput, "output", "o", "", "output file (default: <input>_trim.<ext> next to the input)")
	trimCmd.MarkFlagRequired("input")
}

func parseSplits(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid split time %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

func printSegments(w io.Writer, duration float64, frames int, splits []float64, p timeline.Policy) error {
	if !(duration > 0) {
		return fmt.Errorf("--duration must be positive")
	}
	if frames <= 0 {
		frames = p.FrameCountFor(duration)
	}
	if err := timeline.Validate(frames, duration); err != nil {
		return err
	}

	var points []timeline.SplitPoint
	for i, t := range splits {
		next, err := timeline.InsertSplitPoint(points, strconv.Itoa(i+1), t, frames, duration, p)
		if err != nil {
			return fmt.Errorf("split at %s: %w", timeline.FormatSeconds(t), err)
		}
		points = next
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFRAMES\tSTART\tEND\tDURATION")
	for _, seg := range timeline.DeriveSegments(points, frames, duration) {
		fmt.Fprintf(tw, "%d\t%d-%d\t%s\t%s\t%s\n",
			seg.Index+1, seg.StartFrame, seg.EndFrame,
			timeline.FormatClock(seg.StartTime), timeline.FormatClock(seg.EndTime),
			timeline.FormatSeconds(seg.Duration()))
	}
	return tw.Flush()
}

func runTrim(ctx context.Context, w io.Writer) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.NewLogger(cfg.LogLevel())

	ff := media.NewRealFFmpeg(media.Config{
		FFmpegPath:   cfg.FFmpegPath(),
		FFprobePath:  cfg.FFprobePath(),
		ProbeTimeout: cfg.TimeoutProbe(),
		TrimTimeout:  cfg.TimeoutTrim(),
		Logger:       logger,
	})

	cmd, err := planTrim(ctx, ff, cfg.Policy(), trimInput, trimStart, trimEnd, trimOutput)
	if err != nil {
		return err
	}
	if _, err := ff.Trim(ctx, cmd); err != nil {
		return err
	}

	size := int64(0)
	if st, err := os.Stat(cmd.Output); err == nil {
		size = st.Size()
	}
	fmt.Fprintf(w, "%s (%ss, %s)\n", cmd.Output, timeline.FormatSeconds(cmd.Duration), logging.Bytes(size))
	return nil
}

// planTrim probes input and builds the cut for [start, end). An end of zero
// means the end of the video.
func planTrim(ctx context.Context, ff media.FFmpeg, p timeline.Policy, input string, start, end float64, output string) (media.TrimCommand, error) {
	probe, err := ff.Probe(ctx, input)
	if err != nil {
		return media.TrimCommand{}, err
	}
	if end == 0 {
		end = probe.Duration
	}

	r := timeline.Range{Start: start, End: end}
	if err := timeline.CheckRange(r, probe.Duration, min(p.MinTrimDuration, probe.Duration)); err != nil {
		return media.TrimCommand{}, err
	}

	plan, err := export.PlanTrim(input, filepath.Dir(input), r)
	if err != nil {
		return media.TrimCommand{}, err
	}
	cmd := plan.Commands[0]
	if output != "" {
		cmd.Output = output
	}
	return cmd, nil
}
