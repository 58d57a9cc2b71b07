package api

import (
	"encoding/json"
	"time"

	"github.com/heimdex/heimdex-clipper/internal/catalog"
	"github.com/heimdex/heimdex-clipper/internal/session"
	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State        string         `json:"state"`
	LastError    string         `json:"last_error,omitempty"`
	MediaCount   int            `json:"media_count"`
	SessionCount int            `json:"session_count"`
	JobsRunning  int            `json:"jobs_running"`
	JobsPending  int            `json:"jobs_pending"`
	ActiveJob    *JobResponse   `json:"active_job,omitempty"`
	Tools        *ToolsResponse `json:"tools,omitempty"`
	Policy       PolicyResponse `json:"policy"`
}

type ToolsResponse struct {
	FFmpeg      bool   `json:"ffmpeg"`
	FFprobe     bool   `json:"ffprobe"`
	FFmpegVer   string `json:"ffmpeg_version,omitempty"`
	LastProbeAt string `json:"last_probe_at,omitempty"`
}

type PolicyResponse struct {
	MinSplitSeparation float64 `json:"min_split_separation"`
	EdgeGuard          float64 `json:"edge_guard"`
	MaxSplitPoints     int     `json:"max_split_points"`
	MinTrimDuration    float64 `json:"min_trim_duration"`
}

type AddMediaRequest struct {
	Path string `json:"path"`
}

type MediaResponse struct {
	ID         string  `json:"id"`
	Path       string  `json:"path"`
	Filename   string  `json:"filename"`
	Size       int64   `json:"size"`
	Duration   float64 `json:"duration"`
	DurationS  string  `json:"duration_label"`
	FrameCount int     `json:"frame_count"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	FrameRate  float64 `json:"frame_rate,omitempty"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
}

type MediaListResponse struct {
	Media []MediaResponse `json:"media"`
}

type FrameResponse struct {
	Index     int     `json:"index"`
	Timestamp float64 `json:"timestamp"`
	URL       string  `json:"url"`
}

type FramesResponse struct {
	MediaID string          `json:"media_id"`
	Frames  []FrameResponse `json:"frames"`
}

type OpenSessionRequest struct {
	MediaID string `json:"media_id"`
}

type AddSplitRequest struct {
	// Time is optional; the split goes at the playhead when it is absent.
	Time *float64 `json:"time,omitempty"`
}

type TrimRequest struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Handle string  `json:"handle,omitempty"`
}

type SeekRequest struct {
	Time float64 `json:"time"`
}

const (
	DragBegin = "begin"
	DragMove  = "move"
	DragEnd   = "end"
)

type DragRequest struct {
	Action   string           `json:"action"`
	Handle   string           `json:"handle,omitempty"`
	Viewport session.Viewport `json:"viewport"`
	PointerX float64          `json:"pointer_x"`
}

type ExportRequest struct {
	Mode      string `json:"mode,omitempty"`
	OutputDir string `json:"output_dir,omitempty"`
}

type ExportResponse struct {
	JobID string `json:"job_id"`
	Mode  string `json:"mode"`
}

type EDLRequest struct {
	OutputDir string `json:"output_dir,omitempty"`
}

type EDLResponse struct {
	Status     string `json:"status"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
	ClipCount  int    `json:"clip_count"`
}

type RangeResponse struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
	Label    string  `json:"label"`
}

type SegmentResponse struct {
	Index      int     `json:"index"`
	StartFrame int     `json:"start_frame"`
	EndFrame   int     `json:"end_frame"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Duration   float64 `json:"duration"`
	Label      string  `json:"label"`
}

type SegmentsResponse struct {
	SessionID string            `json:"session_id"`
	Segments  []SegmentResponse `json:"segments"`
}

type SessionResponse struct {
	ID             string                `json:"id"`
	MediaID        string                `json:"media_id"`
	Duration       float64               `json:"duration"`
	FrameCount     int                   `json:"frame_count"`
	MinTrim        float64               `json:"min_trim"`
	SplitPoints    []timeline.SplitPoint `json:"split_points"`
	Trim           RangeResponse         `json:"trim"`
	PlaybackTime   float64               `json:"playback_time"`
	Drag           *session.DragState    `json:"drag,omitempty"`
	Preview        *session.Preview      `json:"preview,omitempty"`
	Segments       []SegmentResponse     `json:"segments"`
	CurrentSegment int                   `json:"current_segment"`
	Version        int                   `json:"version"`
}

type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type JobResponse struct {
	ID        string                `json:"id"`
	Type      string                `json:"type"`
	Status    string                `json:"status"`
	MediaID   string                `json:"media_id,omitempty"`
	Progress  int                   `json:"progress"`
	Error     string                `json:"error,omitempty"`
	Output    *catalog.ExportOutput `json:"output,omitempty"`
	CreatedAt string                `json:"created_at"`
	UpdatedAt string                `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func rangeLabel(start, end float64) string {
	return timeline.FormatClock(start) + " - " + timeline.FormatClock(end)
}

func MediaToResponse(m *catalog.Media) MediaResponse {
	return MediaResponse{
		ID:         m.ID,
		Path:       m.Path,
		Filename:   m.Filename,
		Size:       m.Size,
		Duration:   m.Duration,
		DurationS:  timeline.FormatClock(m.Duration),
		FrameCount: m.FrameCount,
		Width:      m.Width,
		Height:     m.Height,
		FrameRate:  m.FrameRate,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
	}
}

func SegmentToResponse(s timeline.Segment) SegmentResponse {
	return SegmentResponse{
		Index:      s.Index,
		StartFrame: s.StartFrame,
		EndFrame:   s.EndFrame,
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		Duration:   s.Duration(),
		Label:      rangeLabel(s.StartTime, s.EndTime),
	}
}

func segmentsToResponse(segs []timeline.Segment) []SegmentResponse {
	out := make([]SegmentResponse, len(segs))
	for i, s := range segs {
		out[i] = SegmentToResponse(s)
	}
	return out
}

func SessionToResponse(st session.State) SessionResponse {
	return SessionResponse{
		ID:          st.ID,
		MediaID:     st.MediaID,
		Duration:    st.Duration,
		FrameCount:  st.FrameCount,
		MinTrim:     st.MinTrim,
		SplitPoints: st.SplitPoints,
		Trim: RangeResponse{
			Start:    st.Trim.Start,
			End:      st.Trim.End,
			Duration: st.Trim.Duration(),
			Label:    rangeLabel(st.Trim.Start, st.Trim.End),
		},
		PlaybackTime:   st.PlaybackTime,
		Drag:           st.Drag,
		Preview:        st.Preview,
		Segments:       segmentsToResponse(st.Segments()),
		CurrentSegment: st.CurrentSegment(),
		Version:        st.Version,
	}
}

func JobToResponse(j *catalog.Job) JobResponse {
	resp := JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		MediaID:   j.MediaID,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
	if j.Output != "" {
		var out catalog.ExportOutput
		if err := json.Unmarshal([]byte(j.Output), &out); err == nil {
			resp.Output = &out
		}
	}
	return resp
}
