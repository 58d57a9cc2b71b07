// Package config provides configuration management for the clipper agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

const (
	// Default values
	DefaultPort     = 8790
	DefaultLogLevel = "info"
	DefaultDataDir  = ".clipper"
	DefaultFFmpeg   = "ffmpeg"
	DefaultFFprobe  = "ffprobe"
	DefaultS3Region = "us-east-1"

	// Environment variable names
	EnvPort     = "CLIPPER_PORT"
	EnvLogLevel = "CLIPPER_LOG_LEVEL"
	EnvDataDir  = "CLIPPER_DATA_DIR"
	EnvFFmpeg   = "CLIPPER_FFMPEG"
	EnvFFprobe  = "CLIPPER_FFPROBE"
	EnvHeadless = "CLIPPER_HEADLESS"
	EnvS3Bucket = "CLIPPER_S3_BUCKET"
	EnvS3Region = "CLIPPER_S3_REGION"

	// Editing policy overrides
	EnvMinSplitSeparation = "CLIPPER_MIN_SPLIT_SEPARATION"
	EnvEdgeGuard          = "CLIPPER_EDGE_GUARD"
	EnvMaxSplits          = "CLIPPER_MAX_SPLITS"
	EnvMinTrimDuration    = "CLIPPER_MIN_TRIM_DURATION"
	EnvSamplesPerSecond   = "CLIPPER_SAMPLES_PER_SECOND"

	// Database filename
	DBFilename = "clipper.db"

	// Media tool timeouts
	DefaultTimeoutDoctor = 10  // seconds
	DefaultTimeoutProbe  = 30  // seconds
	DefaultTimeoutFrames = 600 // 10 minutes
	DefaultTimeoutTrim   = 900 // 15 minutes
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	FramesDir() string
	PreviewDir() string
	ExportDir() string
	FFmpegPath() string
	FFprobePath() string
	Headless() bool
	S3Bucket() string
	S3Region() string
	Policy() timeline.Policy
	TimeoutDoctor() time.Duration
	TimeoutProbe() time.Duration
	TimeoutFrames() time.Duration
	TimeoutTrim() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	ffmpeg   string
	ffprobe  string
	headless bool
	s3Bucket string
	s3Region string
	policy   timeline.Policy
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
		ffmpeg:   DefaultFFmpeg,
		ffprobe:  DefaultFFprobe,
		s3Region: DefaultS3Region,
		policy:   timeline.DefaultPolicy(),
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}
	if v := os.Getenv(EnvFFmpeg); v != "" {
		cfg.ffmpeg = v
	}
	if v := os.Getenv(EnvFFprobe); v != "" {
		cfg.ffprobe = v
	}
	if v := os.Getenv(EnvHeadless); v != "" {
		b, err := parseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = b
	}
	cfg.s3Bucket = os.Getenv(EnvS3Bucket)
	if v := os.Getenv(EnvS3Region); v != "" {
		cfg.s3Region = v
	}

	if err := cfg.loadPolicy(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EnvConfig) loadPolicy() error {
	floats := []struct {
		env string
		dst *float64
	}{
		{EnvMinSplitSeparation, &c.policy.MinSplitSeparation},
		{EnvEdgeGuard, &c.policy.EdgeGuard},
		{EnvMinTrimDuration, &c.policy.MinTrimDuration},
		{EnvSamplesPerSecond, &c.policy.SamplesPerSecond},
	}
	for _, f := range floats {
		v := os.Getenv(f.env)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.env, err)
		}
		*f.dst = n
	}

	if v := os.Getenv(EnvMaxSplits); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxSplits, err)
		}
		c.policy.MaxSplitPoints = n
	}

	if err := c.policy.Validate(); err != nil {
		return fmt.Errorf("invalid editing policy: %w", err)
	}
	return nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", v)
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// FramesDir holds the generated thumbnail strips, one directory per media item.
func (c *EnvConfig) FramesDir() string {
	return filepath.Join(c.dataDir, "frames")
}

func (c *EnvConfig) PreviewDir() string {
	return filepath.Join(c.dataDir, "previews")
}

// ExportDir is where clips go when an export request names no directory.
func (c *EnvConfig) ExportDir() string {
	return filepath.Join(c.dataDir, "exports")
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpeg
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobe
}

// Headless disables the system tray.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// S3Bucket is empty when exported clips are not published.
func (c *EnvConfig) S3Bucket() string {
	return c.s3Bucket
}

func (c *EnvConfig) S3Region() string {
	return c.s3Region
}

func (c *EnvConfig) Policy() timeline.Policy {
	return c.policy
}

func (c *EnvConfig) TimeoutDoctor() time.Duration {
	return time.Duration(DefaultTimeoutDoctor) * time.Second
}

func (c *EnvConfig) TimeoutProbe() time.Duration {
	return time.Duration(DefaultTimeoutProbe) * time.Second
}

func (c *EnvConfig) TimeoutFrames() time.Duration {
	return time.Duration(DefaultTimeoutFrames) * time.Second
}

func (c *EnvConfig) TimeoutTrim() time.Duration {
	return time.Duration(DefaultTimeoutTrim) * time.Second
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
