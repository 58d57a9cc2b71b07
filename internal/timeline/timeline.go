// Package timeline implements the arithmetic behind the trim and split
// editors: frame/time/pixel conversions, trim range clamping, split point
// bookkeeping and auto-scroll decisions.
//
// Every function is pure. Inputs that break a precondition (no frames, a
// negative duration, a zero-width slider) panic instead of being clamped,
// so caller bugs surface at the call site. Use Validate at trust boundaries.
package timeline

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultMinSplitSeparation  = 0.5 // seconds
	DefaultEdgeGuard           = 1.0 // seconds
	DefaultMaxSplitPoints      = 10
	DefaultMinTrimDuration     = 0.5 // seconds
	DefaultAutoScrollThreshold = 0.2 // fraction of viewport width
	DefaultAutoScrollStep      = 3.0 // pixels per tick
	DefaultAutoScrollTick      = 16 * time.Millisecond
	DefaultPreviewDebounce     = 50 * time.Millisecond
	DefaultSamplesPerSecond    = 1.0
)

// Policy holds the guard values applied while editing. Every field can be
// overridden from configuration.
type Policy struct {
	MinSplitSeparation  float64
	EdgeGuard           float64
	MaxSplitPoints      int
	MinTrimDuration     float64
	AutoScrollThreshold float64
	AutoScrollStep      float64
	AutoScrollTick      time.Duration
	PreviewDebounce     time.Duration
	SamplesPerSecond    float64
}

func DefaultPolicy() Policy {
	return Policy{
		MinSplitSeparation:  DefaultMinSplitSeparation,
		EdgeGuard:           DefaultEdgeGuard,
		MaxSplitPoints:      DefaultMaxSplitPoints,
		MinTrimDuration:     DefaultMinTrimDuration,
		AutoScrollThreshold: DefaultAutoScrollThreshold,
		AutoScrollStep:      DefaultAutoScrollStep,
		AutoScrollTick:      DefaultAutoScrollTick,
		PreviewDebounce:     DefaultPreviewDebounce,
		SamplesPerSecond:    DefaultSamplesPerSecond,
	}
}

// Validate reports whether the policy values are usable.
func (p Policy) Validate() error {
	switch {
	case p.MinSplitSeparation < 0:
		return fmt.Errorf("min split separation must not be negative")
	case p.EdgeGuard < 0:
		return fmt.Errorf("edge guard must not be negative")
	case p.MaxSplitPoints < 0:
		return fmt.Errorf("max split points must not be negative")
	case p.MinTrimDuration < 0:
		return fmt.Errorf("min trim duration must not be negative")
	case p.AutoScrollThreshold < 0 || p.AutoScrollThreshold > 0.5:
		return fmt.Errorf("auto-scroll threshold must be within [0, 0.5]")
	case p.AutoScrollStep <= 0:
		return fmt.Errorf("auto-scroll step must be positive")
	case p.AutoScrollTick <= 0:
		return fmt.Errorf("auto-scroll tick must be positive")
	case p.PreviewDebounce < 0:
		return fmt.Errorf("preview debounce must not be negative")
	case p.SamplesPerSecond <= 0:
		return fmt.Errorf("samples per second must be positive")
	}
	return nil
}

// FrameCountFor returns how many thumbnail samples represent duration.
// A loaded item always gets at least one sample.
func (p Policy) FrameCountFor(duration float64) int {
	mustDuration(duration)
	n := int(math.Ceil(duration * p.SamplesPerSecond))
	if n < 1 {
		return 1
	}
	return n
}

// Validate checks the frameCount/duration pair that every conversion divides by.
func Validate(frameCount int, duration float64) error {
	if frameCount < 1 {
		return fmt.Errorf("frame count must be at least 1, got %d", frameCount)
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return fmt.Errorf("duration must be a positive number, got %v", duration)
	}
	return nil
}

func FrameToTime(frameIndex, frameCount int, duration float64) float64 {
	mustTimeline(frameCount, duration)
	return float64(frameIndex) / float64(frameCount) * duration
}

func TimeToFrame(t float64, frameCount int, duration float64) int {
	mustTimeline(frameCount, duration)
	return int(math.Round(t / duration * float64(frameCount)))
}

// PositionToTime maps a pixel offset on a slider of the given width onto
// the media's time axis.
func PositionToTime(pos, width, duration float64) float64 {
	if !(width > 0) {
		panic(fmt.Sprintf("timeline: slider width must be positive, got %v", width))
	}
	mustDuration(duration)
	return pos / width * duration
}

// TimeToPosition is the inverse of PositionToTime.
func TimeToPosition(t, width, duration float64) float64 {
	mustTimeline(1, duration)
	return t / duration * width
}

// Round3 rounds to millisecond precision, the precision of the trim command.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func mustTimeline(frameCount int, duration float64) {
	if err := Validate(frameCount, duration); err != nil {
		panic("timeline: " + err.Error())
	}
}

func mustDuration(duration float64) {
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		panic(fmt.Sprintf("timeline: duration must be a non-negative number, got %v", duration))
	}
}
