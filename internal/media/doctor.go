package media

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// ProbeTools locates ffmpeg and ffprobe and reads their version banners.
func ProbeTools(ctx context.Context, ffmpegPath, ffprobePath string, logger *slog.Logger) (*Capabilities, error) {
	caps := &Capabilities{
		FFmpeg:   probeTool(ctx, ffmpegPath, logger),
		FFprobe:  probeTool(ctx, ffprobePath, logger),
		ProbedAt: time.Now(),
	}
	logger.Info("media tools probed",
		"ffmpeg", caps.FFmpeg.Available,
		"ffprobe", caps.FFprobe.Available,
	)
	return caps, nil
}

func probeTool(ctx context.Context, name string, logger *slog.Logger) ToolInfo {
	path, err := exec.LookPath(name)
	if err != nil {
		return ToolInfo{Error: err.Error()}
	}

	var out bytes.Buffer
	res := runTool(ctx, logger, path, []string{"-version"}, &out)
	if !res.IsSuccess() {
		return ToolInfo{Path: path, Error: truncate(res.StderrTail, 256)}
	}
	line, _, _ := strings.Cut(out.String(), "\n")
	return ToolInfo{Available: true, Path: path, Version: strings.TrimSpace(line)}
}

// ProbeFunc produces a fresh capabilities report.
type ProbeFunc func(ctx context.Context) (*Capabilities, error)

// CachedDoctor caches tool probes with a TTL so status requests do not spawn
// processes every time.
type CachedDoctor struct {
	probe  ProbeFunc
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

func NewCachedDoctor(probe ProbeFunc, ttl time.Duration, logger *slog.Logger) *CachedDoctor {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedDoctor{probe: probe, ttl: ttl, logger: logger}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) (*Capabilities, error) {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps, nil
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh forces a new probe regardless of cache freshness.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := d.probe(ctx)
	if err != nil {
		d.logger.Warn("media tool probe failed", "error", err)
		// Return stale cache if available
		if d.cached != nil {
			d.logger.Info("returning stale capabilities cache")
			return d.cached, nil
		}
		return nil, err
	}

	d.cached = caps
	return caps, nil
}

func (d *CachedDoctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}
