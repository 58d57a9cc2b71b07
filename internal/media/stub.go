package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

// StubFFmpeg stands in when ffmpeg is not installed. It reports a fixed
// duration and writes empty placeholder files so the rest of the agent keeps
// working.
type StubFFmpeg struct {
	logger   *slog.Logger
	duration float64
}

func NewStubFFmpeg(logger *slog.Logger, duration float64) *StubFFmpeg {
	if !(duration > 0) {
		duration = 60
	}
	return &StubFFmpeg{logger: logger, duration: duration}
}

func (f *StubFFmpeg) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	f.logger.Info("ffmpeg stub: probe requested", "path", path)
	var size int64
	if st, err := os.Stat(path); err == nil {
		size = st.Size()
	}
	return &ProbeResult{Duration: f.duration, Size: size}, nil
}

func (f *StubFFmpeg) ExtractFrames(ctx context.Context, req FrameRequest) ([]Frame, error) {
	f.logger.Info("ffmpeg stub: frames requested", "input", req.Input, "count", req.Count)
	if err := timeline.Validate(req.Count, req.Duration); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, err
	}
	for i := 1; i <= req.Count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := filepath.Join(req.OutputDir, fmt.Sprintf(FramePattern, i))
		if err := os.WriteFile(p, nil, 0644); err != nil {
			return nil, err
		}
	}
	return CollectFrames(req.OutputDir, req.Count, req.Duration)
}

func (f *StubFFmpeg) GenerateThumbnail(ctx context.Context, input, output string, t float64, width int) error {
	f.logger.Info("ffmpeg stub: thumbnail requested", "input", input, "output", output, "offset", t)
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return err
	}
	return os.WriteFile(output, nil, 0644)
}

func (f *StubFFmpeg) Trim(ctx context.Context, cmd TrimCommand) (RunResult, error) {
	f.logger.Info("ffmpeg stub: trim requested", "args", cmd.Args())
	if err := cmd.Validate(); err != nil {
		return RunResult{ExitCode: -1}, err
	}
	if err := os.MkdirAll(filepath.Dir(cmd.Output), 0755); err != nil {
		return RunResult{ExitCode: -1}, err
	}
	if err := os.WriteFile(cmd.Output, nil, 0644); err != nil {
		return RunResult{ExitCode: -1}, err
	}
	return RunResult{OutputPath: cmd.Output}, nil
}
