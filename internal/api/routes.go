package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/heimdex/heimdex-clipper/internal/catalog"
	"github.com/heimdex/heimdex-clipper/internal/playback"
	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Post("/media", addMediaHandler(cfg))
		r.Get("/media", listMediaHandler(cfg))
		r.Get("/media/{id}", getMediaHandler(cfg))
		r.Delete("/media/{id}", deleteMediaHandler(cfg))
		r.Get("/media/{id}/frames", listFramesHandler(cfg))

		r.Get("/sessions", listSessionsHandler(cfg))
		r.Post("/sessions", openSessionHandler(cfg))
		r.Get("/sessions/{id}", getSessionHandler(cfg))
		r.Delete("/sessions/{id}", closeSessionHandler(cfg))
		r.Post("/sessions/{id}/splits", addSplitHandler(cfg))
		r.Delete("/sessions/{id}/splits/{splitID}", removeSplitHandler(cfg))
		r.Post("/sessions/{id}/reset", resetSessionHandler(cfg))
		r.Put("/sessions/{id}/trim", trimHandler(cfg))
		r.Post("/sessions/{id}/seek", seekHandler(cfg))
		r.Post("/sessions/{id}/drag", dragHandler(cfg))
		r.Get("/sessions/{id}/segments", segmentsHandler(cfg))
		r.Post("/sessions/{id}/export", exportHandler(cfg))
		r.Post("/sessions/{id}/edl", edlHandler(cfg))

		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
	})

	// <video> and <img> elements cannot send a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(LoopbackGuard())

		r.Get("/playback/file", playbackHandler(cfg))
		r.Head("/playback/file", playbackHandler(cfg))
		r.Get("/media/{id}/frames/{index}", frameImageHandler(cfg))
		r.Get("/sessions/{id}/preview", previewImageHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := cfg.Version
		if version == "" {
			version = "dev"
		}
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  version,
			UptimeS:  int64(time.Since(cfg.StartTime).Seconds()),
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		mediaCount, _ := cfg.CatalogService.CountMedia(ctx)
		jobs, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning, jobsPending := 0, 0
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range jobs {
			switch j.Status {
			case catalog.JobStatusRunning:
				if state != "paused" {
					state = "exporting"
					if j.Type == catalog.JobTypeFrames {
						state = "preparing"
					}
				}
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			case catalog.JobStatusPending:
				jobsPending++
			case catalog.JobStatusFailed:
				if lastError == "" {
					lastError = j.Error
				}
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		p := cfg.CatalogService.Policy()
		resp := StatusResponse{
			State:       state,
			LastError:   lastError,
			MediaCount:  mediaCount,
			JobsRunning: jobsRunning,
			JobsPending: jobsPending,
			ActiveJob:   activeJob,
			Policy: PolicyResponse{
				MinSplitSeparation: p.MinSplitSeparation,
				EdgeGuard:          p.EdgeGuard,
				MaxSplitPoints:     p.MaxSplitPoints,
				MinTrimDuration:    p.MinTrimDuration,
			},
		}
		if cfg.Sessions != nil {
			resp.SessionCount = cfg.Sessions.Count()
		}

		// Peek never blocks on a tool probe.
		if cfg.Doctor != nil {
			if caps := cfg.Doctor.Peek(); caps != nil {
				resp.Tools = &ToolsResponse{
					FFmpeg:      caps.FFmpeg.Available,
					FFprobe:     caps.FFprobe.Available,
					FFmpegVer:   caps.FFmpeg.Version,
					LastProbeAt: caps.ProbedAt.Format(time.RFC3339),
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func addMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddMediaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		m, err := cfg.CatalogService.AddMedia(r.Context(), req.Path)
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, MediaToResponse(m))
	}
}

func listMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := cfg.CatalogService.ListMedia(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list media", "INTERNAL_ERROR")
			return
		}

		resp := MediaListResponse{Media: make([]MediaResponse, len(items))}
		for i, m := range items {
			resp.Media[i] = MediaToResponse(m)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := cfg.CatalogService.GetMedia(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, MediaToResponse(m))
	}
}

func deleteMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.CatalogService.RemoveMedia(r.Context(), id); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		if cfg.Sessions != nil {
			cfg.Sessions.CloseMedia(id)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listFramesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		frames, err := cfg.CatalogService.GetFrames(r.Context(), id)
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}

		resp := FramesResponse{MediaID: id, Frames: make([]FrameResponse, len(frames))}
		for i, f := range frames {
			resp.Frames[i] = FrameResponse{
				Index:     f.Index,
				Timestamp: f.Timestamp,
				URL:       fmt.Sprintf("/media/%s/frames/%d", id, f.Index),
			}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func frameImageHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil || index < 0 {
			WriteError(w, http.StatusBadRequest, "invalid frame index", "BAD_REQUEST")
			return
		}

		frames, err := cfg.CatalogService.GetFrames(r.Context(), id)
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		for _, f := range frames {
			if f.Index == index {
				serveImage(w, r, f.URI)
				return
			}
		}
		WriteError(w, http.StatusNotFound, "frame not found", "NOT_FOUND")
	}
}

func serveImage(w http.ResponseWriter, r *http.Request, path string) {
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeFile(w, r, path)
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Repository.GetJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

// playbackHandler serves a source video (media_id) or an exported clip
// (job_id and clip, 1-based). A t= media fragment on a source video is
// echoed back as the clip to play.
func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var (
			path string
			clip *timeline.Range
		)
		switch {
		case q.Get("media_id") != "":
			m, err := cfg.CatalogService.GetMedia(r.Context(), q.Get("media_id"))
			if err != nil {
				writeDomainError(w, cfg.Logger, err)
				return
			}
			path = m.Path
			if t := q.Get("t"); t != "" {
				rng, err := playback.ParseFragment(t, m.Duration)
				if err != nil {
					WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
					return
				}
				clip = &rng
			}
		case q.Get("job_id") != "":
			p, status, code, msg := exportedClipPath(cfg, r, q.Get("job_id"), q.Get("clip"))
			if status != 0 {
				WriteError(w, status, msg, code)
				return
			}
			path = p
		default:
			WriteError(w, http.StatusBadRequest, "media_id or job_id is required", "BAD_REQUEST")
			return
		}

		if err := cfg.PlaybackServer.ServeFile(w, r, path, clip); err != nil {
			cfg.Logger.Error("playback error", "error", err)
		}
	}
}

func exportedClipPath(cfg ServerConfig, r *http.Request, jobID, clipParam string) (path string, status int, code, msg string) {
	job, err := cfg.Repository.GetJob(r.Context(), jobID)
	if err != nil {
		return "", http.StatusInternalServerError, "INTERNAL_ERROR", err.Error()
	}
	if job == nil {
		return "", http.StatusNotFound, "NOT_FOUND", "job not found"
	}
	if job.Status != catalog.JobStatusCompleted || job.Output == "" {
		return "", http.StatusConflict, "JOB_NOT_COMPLETE", "job has no output yet"
	}

	var out catalog.ExportOutput
	if err := json.Unmarshal([]byte(job.Output), &out); err != nil {
		return "", http.StatusInternalServerError, "INTERNAL_ERROR", "corrupt job output"
	}

	n := 1
	if clipParam != "" {
		if n, err = strconv.Atoi(clipParam); err != nil {
			return "", http.StatusBadRequest, "BAD_REQUEST", "invalid clip number"
		}
	}
	if n < 1 || n > len(out.Files) {
		return "", http.StatusNotFound, "NOT_FOUND", "clip not found"
	}
	return out.Files[n-1], 0, "", ""
}
