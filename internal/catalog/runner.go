package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/heimdex/heimdex-clipper/internal/cloud"
	"github.com/heimdex/heimdex-clipper/internal/logging"
	"github.com/heimdex/heimdex-clipper/internal/media"
)

const defaultPollInterval = 2 * time.Second

// Runner executes queued jobs one at a time: thumbnail strips for newly
// added media and the clip cuts of exports.
type Runner struct {
	service      *Service
	repo         Repository
	publisher    cloud.Publisher
	keyPrefix    string
	doctor       *media.CachedDoctor
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
	busy         atomic.Bool
}

func NewRunner(service *Service, repo Repository, doctor *media.CachedDoctor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{
		service:      service,
		repo:         repo,
		doctor:       doctor,
		logger:       logging.WithComponent(logger, "runner"),
		pollInterval: defaultPollInterval,
	}
}

// SetPublisher uploads every exported clip under keyPrefix once it is cut.
func (r *Runner) SetPublisher(p cloud.Publisher, keyPrefix string) {
	r.publisher = p
	r.keyPrefix = keyPrefix
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// IsBusy reports whether a job is executing right now.
func (r *Runner) IsBusy() bool {
	return r.busy.Load()
}

// processNextJob runs the oldest pending job and reports whether there was one.
func (r *Runner) processNextJob(ctx context.Context) bool {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return false
	}
	if len(jobs) == 0 {
		return false
	}

	r.busy.Store(true)
	defer r.busy.Store(false)

	job := jobs[0]
	logger := logging.WithJobID(r.logger, job.ID)
	logger.Info("processing job", "type", job.Type, "media_id", job.MediaID)

	switch job.Type {
	case JobTypeFrames:
		r.processFramesJob(ctx, job, logger)
	case JobTypeTrim, JobTypeSplit:
		r.processExportJob(ctx, job, logger)
	default:
		logger.Warn("unknown job type", "type", job.Type)
		r.fail(ctx, job, "unknown job type")
	}
	return true
}

func (r *Runner) fail(ctx context.Context, job *Job, msg string) {
	if err := r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, msg); err != nil {
		r.logger.Error("failed to record job failure", "job_id", job.ID, "error", err)
	}
}

func (r *Runner) checkTools(ctx context.Context) error {
	if r.doctor == nil {
		return nil
	}
	caps, err := r.doctor.Get(ctx)
	if err != nil {
		return fmt.Errorf("doctor probe failed: %w", err)
	}
	if !caps.FFmpeg.Available {
		return fmt.Errorf("ffmpeg is not available: %s", caps.FFmpeg.Error)
	}
	return nil
}

func (r *Runner) processFramesJob(ctx context.Context, job *Job, logger *slog.Logger) {
	m, err := r.repo.GetMedia(ctx, job.MediaID)
	if err != nil || m == nil {
		r.fail(ctx, job, "media not found")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	failMedia := func(msg string) {
		r.fail(ctx, job, msg)
		r.repo.UpdateMediaStatus(ctx, m.ID, MediaStatusFailed)
		logger.Error("frame strip failed", "media_id", m.ID, "error", msg)
	}

	if err := r.checkTools(ctx); err != nil {
		failMedia(err.Error())
		return
	}

	dir := filepath.Join(r.service.dirs.Frames, m.ID)
	if err := os.RemoveAll(dir); err != nil {
		failMedia(fmt.Sprintf("clear frames dir: %v", err))
		return
	}

	start := time.Now()
	frames, err := r.service.ffmpeg.ExtractFrames(ctx, media.FrameRequest{
		Input:            m.Path,
		OutputDir:        dir,
		Duration:         m.Duration,
		Count:            m.FrameCount,
		SamplesPerSecond: r.service.policy.SamplesPerSecond,
		Width:            media.DefaultFrameWidth,
	})
	if err != nil {
		failMedia(fmt.Sprintf("extract frames: %v", err))
		return
	}
	if len(frames) == 0 {
		failMedia("ffmpeg produced no frames")
		return
	}

	records := make([]FrameRecord, len(frames))
	for i, f := range frames {
		records[i] = FrameRecord{MediaID: m.ID, Index: f.Index, URI: f.Path, Timestamp: f.Timestamp}
	}
	if err := r.repo.ReplaceFrames(ctx, m.ID, records); err != nil {
		failMedia(fmt.Sprintf("store frames: %v", err))
		return
	}

	r.repo.UpdateJobProgress(ctx, job.ID, 100)
	r.repo.UpdateMediaStatus(ctx, m.ID, MediaStatusReady)
	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	logger.Info("frame strip ready",
		"media_id", m.ID,
		"frames", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

func (r *Runner) processExportJob(ctx context.Context, job *Job, logger *slog.Logger) {
	var payload ExportPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		r.fail(ctx, job, fmt.Sprintf("invalid export payload: %v", err))
		return
	}
	if len(payload.Commands) == 0 {
		r.fail(ctx, job, "export has no clips")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	if err := r.checkTools(ctx); err != nil {
		r.fail(ctx, job, err.Error())
		return
	}

	total := len(payload.Commands)
	out := ExportOutput{Files: make([]string, 0, total)}
	publish := r.publisher != nil && r.publisher.Enabled()

	for i, cmd := range payload.Commands {
		select {
		case <-ctx.Done():
			r.fail(ctx, job, "cancelled")
			return
		default:
		}

		res, err := r.service.ffmpeg.Trim(ctx, cmd)
		if err != nil {
			r.fail(ctx, job, fmt.Sprintf("clip %d of %d: %v", i+1, total, err))
			return
		}
		out.Files = append(out.Files, res.OutputPath)

		if publish {
			key := cloud.ObjectKey(r.keyPrefix, job.MediaID, res.OutputPath)
			url, err := r.publisher.Publish(ctx, res.OutputPath, key)
			if err != nil {
				r.fail(ctx, job, fmt.Sprintf("publish clip %d of %d: %v", i+1, total, err))
				return
			}
			out.Published = append(out.Published, url)
		}

		r.repo.UpdateJobProgress(ctx, job.ID, (i+1)*100/total)
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		r.fail(ctx, job, fmt.Sprintf("encode output: %v", err))
		return
	}
	if err := r.repo.SetJobOutput(ctx, job.ID, string(encoded)); err != nil {
		r.fail(ctx, job, fmt.Sprintf("store output: %v", err))
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	logger.Info("export completed", "mode", payload.Mode, "clips", total, "published", len(out.Published))
}

// GetActiveJobCount counts jobs that are running.
func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	n, err := r.repo.CountJobsByStatus(ctx, JobStatusRunning)
	if err != nil {
		return 0
	}
	return n
}

// Drain runs pending jobs until none are left or ctx ends.
func (r *Runner) Drain(ctx context.Context) {
	for ctx.Err() == nil && r.processNextJob(ctx) {
	}
}
