// Package media drives the external ffmpeg and ffprobe tools: probing a
// source, sampling the thumbnail strip, rendering preview stills and
// cutting clips.
package media

import (
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// ProbeResult is what the agent keeps from ffprobe.
type ProbeResult struct {
	Duration    float64 `json:"duration"`
	Size        int64   `json:"size"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Codec       string  `json:"codec"`
	Bitrate     int64   `json:"bitrate"`
	FrameRate   float64 `json:"frame_rate"`
	AudioCodec  string  `json:"audio_codec,omitempty"`
	AudioSample int     `json:"audio_sample,omitempty"`
}

// FrameRequest asks for Count evenly spaced stills of Input, Width pixels
// wide, written into OutputDir.
type FrameRequest struct {
	Input            string
	OutputDir        string
	Duration         float64
	Count            int
	SamplesPerSecond float64
	Width            int
}

// Frame is one generated still of the thumbnail strip.
type Frame struct {
	Index     int     `json:"index"`
	Path      string  `json:"path"`
	Timestamp float64 `json:"timestamp"`
}

// RunResult is the outcome of one tool invocation.
type RunResult struct {
	ExitCode   int           `json:"exit_code"`
	OutputPath string        `json:"output_path,omitempty"`
	StderrTail string        `json:"stderr_tail,omitempty"` // last N bytes of stderr
	Duration   time.Duration `json:"duration"`
}

// IsSuccess returns true when the subprocess exited cleanly.
func (r RunResult) IsSuccess() bool { return r.ExitCode == 0 }

// ToolInfo describes one located executable.
type ToolInfo struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Capabilities reports which media tools the agent can use.
type Capabilities struct {
	FFmpeg   ToolInfo  `json:"ffmpeg"`
	FFprobe  ToolInfo  `json:"ffprobe"`
	ProbedAt time.Time `json:"probed_at"`
}

// CanEdit is true when both probing and cutting are possible.
func (c Capabilities) CanEdit() bool {
	return c.FFmpeg.Available && c.FFprobe.Available
}

// Default rendering sizes, in pixels.
const (
	DefaultFrameWidth   = 60
	DefaultPreviewWidth = 320
)

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".edl":  "text/plain; charset=utf-8",
}

// ContentType returns the MIME type of a media or export file. The system
// table is consulted for anything else.
func ContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
