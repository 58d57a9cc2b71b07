package catalog

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heimdex/heimdex-clipper/internal/export"
	"github.com/heimdex/heimdex-clipper/internal/media"
)

const (
	MediaStatusPending    = "pending"
	MediaStatusProcessing = "processing"
	MediaStatusReady      = "ready"
	MediaStatusFailed     = "failed"
)

// Media is a source video loaded for editing.
type Media struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	Duration   float64   `json:"duration"`
	FrameCount int       `json:"frame_count"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	FrameRate  float64   `json:"frame_rate"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FrameRecord is one stored still of a media item's thumbnail strip.
type FrameRecord struct {
	MediaID   string  `json:"media_id"`
	Index     int     `json:"index"`
	URI       string  `json:"uri"`
	Timestamp float64 `json:"timestamp"`
}

const (
	JobTypeFrames = "frames"
	JobTypeTrim   = "trim"
	JobTypeSplit  = "split"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	MediaID   string    `json:"media_id,omitempty"`
	Payload   string    `json:"-"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	Output    string    `json:"output,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExportPayload is stored with trim and split jobs.
type ExportPayload struct {
	SessionID string              `json:"session_id,omitempty"`
	Mode      export.Mode         `json:"mode"`
	OutputDir string              `json:"output_dir"`
	Commands  []media.TrimCommand `json:"commands"`
}

// ExportOutput is recorded on a finished export job.
type ExportOutput struct {
	Files     []string `json:"files"`
	Published []string `json:"published,omitempty"`
}

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".m4v":  true,
	".webm": true,
}

func NewID() string {
	return uuid.NewString()
}

func IsVideoFile(filename string) bool {
	return VideoExtensions[strings.ToLower(filepath.Ext(filename))]
}
