package timeline

import (
	"errors"
	"math"
	"sort"
)

var (
	ErrTooClose       = errors.New("split point too close to an existing split")
	ErrFrameCollision = errors.New("split point maps onto an existing split's frame")
	ErrNearBoundary   = errors.New("split point too close to the start or end")
	ErrTooManySplits  = errors.New("maximum number of split points reached")
)

// SplitPoint is a user-chosen cut boundary.
type SplitPoint struct {
	ID         string  `json:"id"`
	Time       float64 `json:"time"`
	FrameIndex int     `json:"frame_index"`
}

// InsertSplitPoint returns a new, time-sorted list with a split at t, or one
// of ErrTooClose, ErrFrameCollision, ErrNearBoundary, ErrTooManySplits.
// points is not modified.
func InsertSplitPoint(points []SplitPoint, id string, t float64, frameCount int, duration float64, p Policy) ([]SplitPoint, error) {
	mustTimeline(frameCount, duration)

	if len(points) >= p.MaxSplitPoints {
		return nil, ErrTooManySplits
	}
	if t < p.EdgeGuard || t > duration-p.EdgeGuard || t <= 0 || t >= duration {
		return nil, ErrNearBoundary
	}

	frame := TimeToFrame(t, frameCount, duration)
	if frame <= 0 || frame >= frameCount {
		return nil, ErrNearBoundary
	}

	for _, existing := range points {
		if math.Abs(existing.Time-t) < p.MinSplitSeparation {
			return nil, ErrTooClose
		}
		if existing.FrameIndex == frame {
			return nil, ErrFrameCollision
		}
	}

	out := make([]SplitPoint, 0, len(points)+1)
	out = append(out, points...)
	out = append(out, SplitPoint{ID: id, Time: t, FrameIndex: frame})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

// RemoveSplitPoint drops the split with the given id. Unknown ids are a no-op;
// the result is always a fresh slice.
func RemoveSplitPoint(points []SplitPoint, id string) []SplitPoint {
	out := make([]SplitPoint, 0, len(points))
	for _, sp := range points {
		if sp.ID != id {
			out = append(out, sp)
		}
	}
	return out
}

// FindSplitPoint returns the index of id in points, or -1.
func FindSplitPoint(points []SplitPoint, id string) int {
	for i, sp := range points {
		if sp.ID == id {
			return i
		}
	}
	return -1
}
