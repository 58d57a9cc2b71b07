// Package session holds the state of one editing session as a sequence of
// immutable snapshots. Every gesture produces a new State; a State that has
// been published is never modified.
package session

import (
	"errors"

	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

var (
	ErrNoDrag       = errors.New("no drag in progress")
	ErrInvalidDrag  = errors.New("drag requires the start or end handle")
	ErrBadViewport  = errors.New("viewport width and track width must be positive")
	ErrUnknownSplit = errors.New("split point not found")
)

// Viewport describes the scrolling timeline a handle is dragged across.
// The time track starts LeadingInset pixels into the scrollable content.
type Viewport struct {
	PointerX     float64 `json:"pointer_x"`
	ScrollOffset float64 `json:"scroll_offset"`
	Width        float64 `json:"width"`
	TrackWidth   float64 `json:"track_width"`
	LeadingInset float64 `json:"leading_inset"`
}

func (v Viewport) ContentWidth() float64 {
	return v.TrackWidth + 2*v.LeadingInset
}

func (v Viewport) trackPosition() float64 {
	return v.ScrollOffset + v.PointerX - v.LeadingInset
}

type DragState struct {
	Handle   timeline.Handle     `json:"handle"`
	Viewport Viewport            `json:"viewport"`
	Scroll   timeline.ScrollStep `json:"scroll"`
	Time     float64             `json:"time"`
	Position float64             `json:"position"` // handle offset along the track, px
}

type Preview struct {
	Time float64 `json:"time"`
	URI  string  `json:"uri"`
}

// State is one snapshot of an editing session.
type State struct {
	ID           string                `json:"id"`
	MediaID      string                `json:"media_id"`
	Duration     float64               `json:"duration"`
	FrameCount   int                   `json:"frame_count"`
	MinTrim      float64               `json:"min_trim"`
	SplitPoints  []timeline.SplitPoint `json:"split_points"`
	Trim         timeline.Range        `json:"trim"`
	PlaybackTime float64               `json:"playback_time"`
	Drag         *DragState            `json:"drag,omitempty"`
	Preview      *Preview              `json:"preview,omitempty"`
	Version      int                   `json:"version"`
}

// New creates the initial snapshot for a freshly loaded media item.
func New(id, mediaID string, duration float64, frameCount int, p timeline.Policy) (State, error) {
	if err := timeline.Validate(frameCount, duration); err != nil {
		return State{}, err
	}
	return State{
		ID:          id,
		MediaID:     mediaID,
		Duration:    duration,
		FrameCount:  frameCount,
		MinTrim:     min(p.MinTrimDuration, duration),
		SplitPoints: []timeline.SplitPoint{},
		Trim:        timeline.FullRange(duration),
	}, nil
}

func (s State) next() State {
	s.Version++
	return s
}

func (s State) AddSplit(id string, t float64, p timeline.Policy) (State, error) {
	points, err := timeline.InsertSplitPoint(s.SplitPoints, id, t, s.FrameCount, s.Duration, p)
	if err != nil {
		return s, err
	}
	n := s.next()
	n.SplitPoints = points
	return n, nil
}

// AddSplitAtPlayhead splits at the current playback position.
func (s State) AddSplitAtPlayhead(id string, p timeline.Policy) (State, error) {
	return s.AddSplit(id, s.PlaybackTime, p)
}

func (s State) RemoveSplit(id string) (State, error) {
	if timeline.FindSplitPoint(s.SplitPoints, id) < 0 {
		return s, ErrUnknownSplit
	}
	n := s.next()
	n.SplitPoints = timeline.RemoveSplitPoint(s.SplitPoints, id)
	return n, nil
}

// Reset drops every split point, restores the full trim range and any drag.
func (s State) Reset() State {
	n := s.next()
	n.SplitPoints = []timeline.SplitPoint{}
	n.Trim = timeline.FullRange(s.Duration)
	n.Drag = nil
	return n
}

func (s State) Seek(t float64) State {
	n := s.next()
	n.PlaybackTime = max(0, min(t, s.Duration))
	return n
}

func (s State) SetTrim(start, end float64, handle timeline.Handle) State {
	n := s.next()
	n.Trim = timeline.ClampRange(start, end, s.Duration, s.MinTrim, handle)
	return n
}

func (s State) Segments() []timeline.Segment {
	return timeline.DeriveSegments(s.SplitPoints, s.FrameCount, s.Duration)
}

// CurrentSegment is the index of the segment under the playhead.
func (s State) CurrentSegment() int {
	return timeline.SegmentAt(s.Segments(), s.PlaybackTime)
}

func (s State) WithPreview(t float64, uri string) State {
	n := s.next()
	n.Preview = &Preview{Time: t, URI: uri}
	return n
}

// BeginDrag grabs a trim handle at the viewport position.
func (s State) BeginDrag(handle timeline.Handle, vp Viewport, p timeline.Policy) (State, error) {
	if handle != timeline.HandleStart && handle != timeline.HandleEnd {
		return s, ErrInvalidDrag
	}
	if !(vp.Width > 0) || !(vp.TrackWidth > 0) {
		return s, ErrBadViewport
	}
	n := s.next()
	n.Drag = &DragState{Handle: handle, Viewport: vp}
	n.applyDrag(p)
	return n, nil
}

// MoveDrag follows the pointer to a new x within the viewport.
func (s State) MoveDrag(pointerX float64, p timeline.Policy) (State, error) {
	if s.Drag == nil {
		return s, ErrNoDrag
	}
	n := s.next()
	d := *s.Drag
	d.Viewport.PointerX = pointerX
	n.Drag = &d
	n.applyDrag(p)
	return n, nil
}

// TickDrag advances one auto-scroll tick and re-derives the dragged handle
// from the new scroll offset. The bool reports whether scrolling continues.
func (s State) TickDrag(p timeline.Policy) (State, bool) {
	if s.Drag == nil || s.Drag.Scroll.Direction == timeline.ScrollNone {
		return s, false
	}
	n := s.next()
	d := *s.Drag
	d.Viewport.ScrollOffset += d.Scroll.Delta
	n.Drag = &d
	n.applyDrag(p)
	return n, n.Drag.Scroll.Direction != timeline.ScrollNone
}

func (s State) EndDrag() State {
	n := s.next()
	n.Drag = nil
	return n
}

// applyDrag must only be called on a State that has not been published.
func (s *State) applyDrag(p timeline.Policy) {
	vp := s.Drag.Viewport
	t := timeline.PositionToTime(vp.trackPosition(), vp.TrackWidth, s.Duration)
	t = max(0, min(t, s.Duration))

	s.Trim = timeline.MoveHandle(s.Trim, s.Drag.Handle, t, s.Duration, s.MinTrim)
	s.Drag.Scroll = timeline.AutoScroll(vp.PointerX, vp.ScrollOffset, vp.Width, vp.ContentWidth(), p)
	if s.Drag.Handle == timeline.HandleStart {
		s.Drag.Time = s.Trim.Start
	} else {
		s.Drag.Time = s.Trim.End
	}
	s.Drag.Position = timeline.TimeToPosition(s.Drag.Time, vp.TrackWidth, s.Duration)
	s.PlaybackTime = s.Drag.Time
}
