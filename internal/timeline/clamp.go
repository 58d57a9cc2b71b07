package timeline

import (
	"fmt"
	"math"
)

// Handle identifies which trim handle a gesture is moving.
type Handle string

const (
	HandleNone  Handle = ""
	HandleStart Handle = "start"
	HandleEnd   Handle = "end"
)

func ParseHandle(s string) (Handle, error) {
	switch Handle(s) {
	case HandleStart, HandleEnd, HandleNone:
		return Handle(s), nil
	}
	return HandleNone, fmt.Errorf("unknown handle %q", s)
}

// Range is a trim selection in seconds.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r Range) Duration() float64 {
	return r.End - r.Start
}

func (r Range) Contains(t float64) bool {
	return t >= r.Start && t < r.End
}

// FullRange selects the whole media item.
func FullRange(duration float64) Range {
	mustDuration(duration)
	return Range{Start: 0, End: duration}
}

// ClampRange turns a candidate selection into one that satisfies
// 0 <= start, end <= duration and end-start >= minSeg.
//
// When the candidate is too short the handle that is not being dragged is
// pushed first. If that handle is pinned at a boundary the dragged handle
// is pulled back instead. With HandleNone the end handle yields first.
func ClampRange(start, end, duration, minSeg float64, active Handle) Range {
	mustDuration(duration)
	if !(minSeg >= 0) || minSeg > duration {
		panic(fmt.Sprintf("timeline: min segment %v outside [0, %v]", minSeg, duration))
	}

	start = clamp(start, 0, duration)
	end = clamp(end, 0, duration)

	if active == HandleNone && start > end {
		start, end = end, start
	}

	if end-start >= minSeg {
		return Range{Start: start, End: end}
	}

	pushEnd := active != HandleEnd
	if pushEnd {
		end = min(start+minSeg, duration)
		if end-start < minSeg {
			start = max(end-minSeg, 0)
		}
	} else {
		start = max(end-minSeg, 0)
		if end-start < minSeg {
			end = min(start+minSeg, duration)
		}
	}

	return widen(start, end, duration, minSeg, pushEnd)
}

// widen moves the pushed handle outward one ulp at a time until end-start
// reaches minSeg in float arithmetic. A handle pinned at a boundary hands the
// remainder to the other one; [0, duration] always satisfies minSeg.
func widen(start, end, duration, minSeg float64, pushEnd bool) Range {
	for end-start < minSeg {
		switch {
		case pushEnd && end < duration, !pushEnd && start == 0:
			end = min(math.Nextafter(end, math.Inf(1)), duration)
		default:
			start = max(math.Nextafter(start, math.Inf(-1)), 0)
		}
	}
	return Range{Start: start, End: end}
}

// MoveHandle applies a drag of one handle to an existing range.
func MoveHandle(r Range, handle Handle, t, duration, minSeg float64) Range {
	switch handle {
	case HandleStart:
		return ClampRange(t, r.End, duration, minSeg, HandleStart)
	case HandleEnd:
		return ClampRange(r.Start, t, duration, minSeg, HandleEnd)
	}
	return ClampRange(r.Start, r.End, duration, minSeg, HandleNone)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
