package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/heimdex/heimdex-clipper/internal/export"
	"github.com/heimdex/heimdex-clipper/internal/logging"
	"github.com/heimdex/heimdex-clipper/internal/media"
	"github.com/heimdex/heimdex-clipper/internal/session"
	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

var (
	ErrMediaNotFound = errors.New("media not found")
	ErrNotVideo      = errors.New("not a supported video file")
	ErrMediaFailed   = errors.New("media could not be prepared")
)

type CatalogService interface {
	AddMedia(ctx context.Context, path string) (*Media, error)
	GetMedia(ctx context.Context, id string) (*Media, error)
	EditableMedia(ctx context.Context, id string) (*Media, error)
	ListMedia(ctx context.Context) ([]*Media, error)
	RemoveMedia(ctx context.Context, id string) error
	GetFrames(ctx context.Context, id string) ([]FrameRecord, error)
	CountMedia(ctx context.Context) (int, error)
	QueueExport(ctx context.Context, st session.State, mode export.Mode, outputDir string) (*Job, error)
	WriteEDL(ctx context.Context, st session.State, outputDir string) (string, error)
	Preview(ctx context.Context, mediaID string, t float64) (string, error)
	Policy() timeline.Policy
}

// Dirs are where the service keeps generated files.
type Dirs struct {
	Frames  string
	Preview string
	Export  string
}

var _ session.Previewer = (*Service)(nil)

type Service struct {
	repo   Repository
	ffmpeg media.FFmpeg
	policy timeline.Policy
	dirs   Dirs
	logger *slog.Logger
}

func NewService(repo Repository, ffmpeg media.FFmpeg, policy timeline.Policy, dirs Dirs, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{repo: repo, ffmpeg: ffmpeg, policy: policy, dirs: dirs, logger: logger}
}

func (s *Service) Policy() timeline.Policy {
	return s.policy
}

// AddMedia registers a video file, probes it and queues its thumbnail strip.
// Adding the same path twice returns the existing item.
func (s *Service) AddMedia(ctx context.Context, path string) (*Media, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: path is a directory", ErrNotVideo)
	}
	if !IsVideoFile(absPath) {
		return nil, fmt.Errorf("%w: %s", ErrNotVideo, filepath.Ext(absPath))
	}

	existing, err := s.repo.GetMediaByPath(ctx, absPath)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	probe, err := s.ffmpeg.Probe(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("probe failed: %w", err)
	}
	if !(probe.Duration > 0) {
		return nil, media.ErrNoDuration
	}

	now := time.Now()
	m := &Media{
		ID:         NewID(),
		Path:       absPath,
		Filename:   filepath.Base(absPath),
		Size:       info.Size(),
		Duration:   probe.Duration,
		FrameCount: s.policy.FrameCountFor(probe.Duration),
		Width:      probe.Width,
		Height:     probe.Height,
		FrameRate:  probe.FrameRate,
		Status:     MediaStatusProcessing,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateMedia(ctx, m); err != nil {
		return nil, err
	}

	job := &Job{
		ID:        NewID(),
		Type:      JobTypeFrames,
		Status:    JobStatusPending,
		MediaID:   m.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("media added",
		"media_id", m.ID,
		"path", logging.SanitizePath(absPath),
		"duration", m.Duration,
		"frame_count", m.FrameCount,
		"size", logging.Bytes(m.Size),
		"job_id", job.ID,
	)
	return m, nil
}

func (s *Service) GetMedia(ctx context.Context, id string) (*Media, error) {
	m, err := s.repo.GetMedia(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMediaNotFound
	}
	return m, nil
}

func (s *Service) ListMedia(ctx context.Context) ([]*Media, error) {
	return s.repo.ListMedia(ctx)
}

func (s *Service) CountMedia(ctx context.Context) (int, error) {
	return s.repo.CountMedia(ctx)
}

// RemoveMedia forgets a media item and its generated stills. Exported clips
// are left alone.
func (s *Service) RemoveMedia(ctx context.Context, id string) error {
	if _, err := s.GetMedia(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteMedia(ctx, id); err != nil {
		return err
	}
	for _, dir := range []string{s.dirs.Frames, s.dirs.Preview} {
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, id)); err != nil {
			s.logger.Warn("failed to remove generated files", "media_id", id, "error", err)
		}
	}
	s.logger.Info("media removed", "media_id", id)
	return nil
}

func (s *Service) GetFrames(ctx context.Context, id string) ([]FrameRecord, error) {
	if _, err := s.GetMedia(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListFrames(ctx, id)
}

// EditableMedia returns the item unless its preparation failed.
func (s *Service) EditableMedia(ctx context.Context, id string) (*Media, error) {
	m, err := s.GetMedia(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status == MediaStatusFailed {
		return nil, ErrMediaFailed
	}
	return m, nil
}

// QueueExport records a trim or split job for the session snapshot st.
// An empty outputDir writes into the agent's export directory.
func (s *Service) QueueExport(ctx context.Context, st session.State, mode export.Mode, outputDir string) (*Job, error) {
	m, err := s.GetMedia(ctx, st.MediaID)
	if err != nil {
		return nil, err
	}

	dir, err := s.resolveOutputDir(outputDir)
	if err != nil {
		return nil, err
	}

	var plan export.Plan
	switch mode {
	case export.ModeTrim:
		if err := timeline.CheckRange(st.Trim, st.Duration, st.MinTrim); err != nil {
			return nil, err
		}
		plan, err = export.PlanTrim(m.Path, dir, st.Trim)
	case export.ModeSplit:
		plan, err = export.PlanSplit(m.Path, dir, st.Segments())
	default:
		return nil, fmt.Errorf("unknown export mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(ExportPayload{
		SessionID: st.ID,
		Mode:      plan.Mode,
		OutputDir: dir,
		Commands:  plan.Commands,
	})
	if err != nil {
		return nil, fmt.Errorf("encode export payload: %w", err)
	}

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      string(plan.Mode),
		Status:    JobStatusPending,
		MediaID:   m.ID,
		Payload:   string(payload),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("export queued",
		"job_id", job.ID,
		"session_id", st.ID,
		"mode", plan.Mode,
		"clips", len(plan.Commands),
		"output_dir", logging.SanitizePath(dir),
	)
	return job, nil
}

// WriteEDL writes an edit decision list of the session's segments and
// returns its path.
func (s *Service) WriteEDL(ctx context.Context, st session.State, outputDir string) (string, error) {
	m, err := s.GetMedia(ctx, st.MediaID)
	if err != nil {
		return "", err
	}
	dir, err := s.resolveOutputDir(outputDir)
	if err != nil {
		return "", err
	}

	base := export.BaseName(m.Path)
	content := export.GenerateEDL(export.SegmentClips(m.Path, st.Segments()), base, m.FrameRate)
	out := filepath.Join(dir, base+".edl")
	if err := os.WriteFile(out, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write edl: %w", err)
	}

	s.logger.Info("edl written", "session_id", st.ID, "path", logging.SanitizePath(out))
	return out, nil
}

// Preview renders a still of the media at t, reusing an earlier render of
// the same millisecond.
func (s *Service) Preview(ctx context.Context, mediaID string, t float64) (string, error) {
	m, err := s.GetMedia(ctx, mediaID)
	if err != nil {
		return "", err
	}
	t = max(0, min(t, m.Duration))
	out := filepath.Join(s.dirs.Preview, mediaID, fmt.Sprintf("%d.jpg", int64(math.Round(t*1000))))
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}
	if err := s.ffmpeg.GenerateThumbnail(ctx, m.Path, out, t, media.DefaultPreviewWidth); err != nil {
		return "", err
	}
	return out, nil
}

func (s *Service) resolveOutputDir(outputDir string) (string, error) {
	if outputDir == "" {
		if err := os.MkdirAll(s.dirs.Export, 0755); err != nil {
			return "", fmt.Errorf("create export dir: %w", err)
		}
		return s.dirs.Export, nil
	}
	if err := export.ValidateOutputDir(outputDir); err != nil {
		return "", err
	}
	return outputDir, nil
}
