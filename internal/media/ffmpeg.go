package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/heimdex/heimdex-clipper/internal/logging"
	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

// FFmpeg is everything the agent asks of the media tools.
type FFmpeg interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
	ExtractFrames(ctx context.Context, req FrameRequest) ([]Frame, error)
	GenerateThumbnail(ctx context.Context, input, output string, t float64, width int) error
	Trim(ctx context.Context, cmd TrimCommand) (RunResult, error)
}

// Config holds the tool locations and per-operation timeouts.
type Config struct {
	FFmpegPath    string
	FFprobePath   string
	ProbeTimeout  time.Duration
	FramesTimeout time.Duration
	TrimTimeout   time.Duration
	Logger        *slog.Logger
}

// RealFFmpeg runs the ffmpeg and ffprobe executables.
type RealFFmpeg struct {
	cfg    Config
	logger *slog.Logger
}

func NewRealFFmpeg(cfg Config) *RealFFmpeg {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &RealFFmpeg{cfg: cfg, logger: logging.WithComponent(logger, "ffmpeg")}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (f *RealFFmpeg) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	ctx, cancel := withTimeout(ctx, f.cfg.ProbeTimeout)
	defer cancel()

	var stdout bytes.Buffer
	res := runTool(ctx, f.logger, f.cfg.FFprobePath, probeArgs(path), &stdout)
	if !res.IsSuccess() {
		return nil, fmt.Errorf("ffprobe exited %d: %s", res.ExitCode, res.StderrTail)
	}

	probe, err := ParseProbe(stdout.Bytes())
	if err != nil {
		return probe, fmt.Errorf("probe %s: %w", filepath.Base(path), err)
	}

	f.logger.Info("probed media",
		"path", logging.SanitizePath(path),
		"duration", probe.Duration,
		"size", logging.Bytes(probe.Size),
		"resolution", fmt.Sprintf("%dx%d", probe.Width, probe.Height),
	)
	return probe, nil
}

// ExtractFrames renders the thumbnail strip and returns the frames it wrote,
// in index order, timestamped on the frame grid.
func (f *RealFFmpeg) ExtractFrames(ctx context.Context, req FrameRequest) ([]Frame, error) {
	if err := timeline.Validate(req.Count, req.Duration); err != nil {
		return nil, fmt.Errorf("extract frames: %w", err)
	}
	if req.Width <= 0 {
		req.Width = DefaultFrameWidth
	}
	if req.SamplesPerSecond <= 0 {
		req.SamplesPerSecond = timeline.DefaultSamplesPerSecond
	}
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create frames dir: %w", err)
	}

	ctx, cancel := withTimeout(ctx, f.cfg.FramesTimeout)
	defer cancel()

	res := runTool(ctx, f.logger, f.cfg.FFmpegPath, frameArgs(req), nil)
	if !res.IsSuccess() {
		return nil, fmt.Errorf("ffmpeg frames exited %d: %s", res.ExitCode, res.StderrTail)
	}

	return CollectFrames(req.OutputDir, req.Count, req.Duration)
}

// CollectFrames lists the strip files in dir and maps them onto the frame
// grid of a count/duration timeline. Extra files beyond count are ignored.
func CollectFrames(dir string, count int, duration float64) ([]Frame, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "frame_*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	if len(paths) > count {
		paths = paths[:count]
	}

	frames := make([]Frame, len(paths))
	for i, p := range paths {
		frames[i] = Frame{
			Index:     i,
			Path:      p,
			Timestamp: timeline.Round3(timeline.FrameToTime(i, count, duration)),
		}
	}
	return frames, nil
}

func (f *RealFFmpeg) GenerateThumbnail(ctx context.Context, input, output string, t float64, width int) error {
	if width <= 0 {
		width = DefaultPreviewWidth
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}

	ctx, cancel := withTimeout(ctx, f.cfg.ProbeTimeout)
	defer cancel()

	res := runTool(ctx, f.logger, f.cfg.FFmpegPath, thumbnailArgs(input, output, t, width), nil)
	if !res.IsSuccess() {
		return fmt.Errorf("ffmpeg thumbnail exited %d: %s", res.ExitCode, res.StderrTail)
	}
	return nil
}

func (f *RealFFmpeg) Trim(ctx context.Context, cmd TrimCommand) (RunResult, error) {
	if err := cmd.Validate(); err != nil {
		return RunResult{ExitCode: -1}, err
	}
	if err := os.MkdirAll(filepath.Dir(cmd.Output), 0755); err != nil {
		return RunResult{ExitCode: -1}, fmt.Errorf("create output dir: %w", err)
	}

	ctx, cancel := withTimeout(ctx, f.cfg.TrimTimeout)
	defer cancel()

	res := runTool(ctx, f.logger, f.cfg.FFmpegPath, cmd.Args(), nil)
	res.OutputPath = cmd.Output
	if !res.IsSuccess() {
		return res, fmt.Errorf("ffmpeg trim exited %d: %s", res.ExitCode, truncate(res.StderrTail, 512))
	}

	var size int64 = -1
	if st, err := os.Stat(cmd.Output); err == nil {
		size = st.Size()
	}
	f.logger.Info("clip written",
		"output", logging.SanitizePath(cmd.Output),
		"start", cmd.Start,
		"duration", cmd.Duration,
		"size", logging.Bytes(size),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
