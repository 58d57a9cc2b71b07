package session

import (
	"errors"
	"math"
	"testing"

	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

func newTestState(t *testing.T) State {
	t.Helper()
	st, err := New("s1", "m1", 60, 60, timeline.DefaultPolicy())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return st
}

func testViewport(pointerX float64) Viewport {
	// 10px per second, 200px of padding before zero.
	return Viewport{PointerX: pointerX, Width: 400, TrackWidth: 600, LeadingInset: 200}
}

func TestNew(t *testing.T) {
	st := newTestState(t)
	if st.Trim != (timeline.Range{Start: 0, End: 60}) {
		t.Errorf("initial trim = %+v, want full range", st.Trim)
	}
	if st.SplitPoints == nil || len(st.SplitPoints) != 0 {
		t.Errorf("initial split points = %#v, want empty non-nil", st.SplitPoints)
	}
	if st.MinTrim != timeline.DefaultMinTrimDuration {
		t.Errorf("MinTrim = %v", st.MinTrim)
	}

	short, err := New("s2", "m2", 0.3, 1, timeline.DefaultPolicy())
	if err != nil {
		t.Fatalf("New(short) error = %v", err)
	}
	if short.MinTrim != 0.3 {
		t.Errorf("MinTrim for 0.3s media = %v, want 0.3", short.MinTrim)
	}

	if _, err := New("s3", "m3", 0, 1, timeline.DefaultPolicy()); err == nil {
		t.Error("New with zero duration expected error")
	}
}

func TestState_AddSplitIsCopyOnWrite(t *testing.T) {
	st := newTestState(t)
	p := timeline.DefaultPolicy()

	s1, err := st.AddSplit("a", 40, p)
	if err != nil {
		t.Fatalf("AddSplit(40) error = %v", err)
	}
	s2, err := s1.AddSplit("b", 10, p)
	if err != nil {
		t.Fatalf("AddSplit(10) error = %v", err)
	}

	if len(st.SplitPoints) != 0 || len(s1.SplitPoints) != 1 || len(s2.SplitPoints) != 2 {
		t.Fatalf("snapshots share state: %d/%d/%d", len(st.SplitPoints), len(s1.SplitPoints), len(s2.SplitPoints))
	}
	if s2.SplitPoints[0].ID != "b" {
		t.Errorf("split points not sorted: %+v", s2.SplitPoints)
	}
	if s2.Version != st.Version+2 {
		t.Errorf("Version = %d, want %d", s2.Version, st.Version+2)
	}

	if _, err := s2.AddSplit("c", 10.2, p); !errors.Is(err, timeline.ErrTooClose) {
		t.Errorf("AddSplit(10.2) error = %v, want ErrTooClose", err)
	}
}

func TestState_AddSplitAtPlayhead(t *testing.T) {
	st := newTestState(t).Seek(25)
	out, err := st.AddSplitAtPlayhead("a", timeline.DefaultPolicy())
	if err != nil {
		t.Fatalf("AddSplitAtPlayhead error = %v", err)
	}
	if out.SplitPoints[0].Time != 25 {
		t.Errorf("split time = %v, want 25", out.SplitPoints[0].Time)
	}
}

func TestState_RemoveSplit(t *testing.T) {
	st, _ := newTestState(t).AddSplit("a", 30, timeline.DefaultPolicy())

	out, err := st.RemoveSplit("a")
	if err != nil {
		t.Fatalf("RemoveSplit error = %v", err)
	}
	if len(out.SplitPoints) != 0 || len(st.SplitPoints) != 1 {
		t.Fatalf("RemoveSplit did not copy: %+v / %+v", out.SplitPoints, st.SplitPoints)
	}

	if _, err := out.RemoveSplit("a"); !errors.Is(err, ErrUnknownSplit) {
		t.Errorf("RemoveSplit(unknown) error = %v, want ErrUnknownSplit", err)
	}
}

func TestState_Reset(t *testing.T) {
	p := timeline.DefaultPolicy()
	st, _ := newTestState(t).AddSplit("a", 30, p)
	st = st.SetTrim(10, 20, timeline.HandleNone)

	out := st.Reset()
	if len(out.SplitPoints) != 0 {
		t.Errorf("Reset kept split points: %+v", out.SplitPoints)
	}
	if out.Trim != timeline.FullRange(60) {
		t.Errorf("Reset trim = %+v", out.Trim)
	}
}

func TestState_SeekClamps(t *testing.T) {
	st := newTestState(t)
	if got := st.Seek(-4).PlaybackTime; got != 0 {
		t.Errorf("Seek(-4) = %v, want 0", got)
	}
	if got := st.Seek(99).PlaybackTime; got != 60 {
		t.Errorf("Seek(99) = %v, want 60", got)
	}
}

func TestState_SetTrimClamps(t *testing.T) {
	p := timeline.DefaultPolicy()
	p.MinTrimDuration = 10
	st, _ := New("s", "m", 60, 60, p)

	out := st.SetTrim(55, 60, timeline.HandleStart)
	if out.Trim != (timeline.Range{Start: 50, End: 60}) {
		t.Errorf("SetTrim(55, 60, start) = %+v, want {50 60}", out.Trim)
	}
}

func TestState_Segments(t *testing.T) {
	p := timeline.DefaultPolicy()
	st, _ := newTestState(t).AddSplit("a", 10, p)
	st, _ = st.AddSplit("b", 40, p)

	segs := st.Segments()
	if len(segs) != 3 {
		t.Fatalf("len(segments) = %d, want 3", len(segs))
	}
	if segs[1].StartTime != 10 || segs[1].EndTime != 40 {
		t.Errorf("middle segment = %+v", segs[1])
	}
}

func TestState_DragLifecycle(t *testing.T) {
	p := timeline.DefaultPolicy()
	st := newTestState(t)

	if _, err := st.MoveDrag(10, p); !errors.Is(err, ErrNoDrag) {
		t.Fatalf("MoveDrag without drag error = %v, want ErrNoDrag", err)
	}
	if _, err := st.BeginDrag(timeline.HandleNone, testViewport(200), p); !errors.Is(err, ErrInvalidDrag) {
		t.Fatalf("BeginDrag(none) error = %v, want ErrInvalidDrag", err)
	}
	if _, err := st.BeginDrag(timeline.HandleStart, Viewport{PointerX: 1}, p); !errors.Is(err, ErrBadViewport) {
		t.Fatalf("BeginDrag(zero viewport) error = %v, want ErrBadViewport", err)
	}

	st, err := st.BeginDrag(timeline.HandleStart, testViewport(200), p)
	if err != nil {
		t.Fatalf("BeginDrag error = %v", err)
	}
	if st.Drag.Time != 0 || st.Drag.Scroll.Direction != timeline.ScrollNone {
		t.Fatalf("drag after begin = %+v", st.Drag)
	}

	moved, err := st.MoveDrag(350, p)
	if err != nil {
		t.Fatalf("MoveDrag error = %v", err)
	}
	if math.Abs(moved.Trim.Start-15) > 1e-9 || moved.Trim.End != 60 {
		t.Errorf("trim after move = %+v, want {15 60}", moved.Trim)
	}
	if math.Abs(moved.Drag.Position-150) > 1e-9 {
		t.Errorf("handle position = %v, want 150px", moved.Drag.Position)
	}
	if moved.Drag.Scroll.Direction != timeline.ScrollRight {
		t.Errorf("pointer in right zone should auto-scroll, got %+v", moved.Drag.Scroll)
	}
	if moved.PlaybackTime != moved.Trim.Start {
		t.Errorf("playback should follow the dragged handle")
	}
	if st.Drag.Viewport.PointerX != 200 {
		t.Error("MoveDrag mutated the previous snapshot's drag state")
	}

	ticked, scrolling := moved.TickDrag(p)
	if !scrolling {
		t.Fatal("TickDrag stopped scrolling unexpectedly")
	}
	if ticked.Drag.Viewport.ScrollOffset != 3 {
		t.Errorf("ScrollOffset after tick = %v, want 3", ticked.Drag.Viewport.ScrollOffset)
	}
	if math.Abs(ticked.Trim.Start-15.3) > 1e-9 {
		t.Errorf("trim start after tick = %v, want 15.3", ticked.Trim.Start)
	}
	if moved.Drag.Viewport.ScrollOffset != 0 {
		t.Error("TickDrag mutated the previous snapshot")
	}

	released := ticked.EndDrag()
	if released.Drag != nil {
		t.Error("EndDrag left drag state behind")
	}
	if _, scrolling := released.TickDrag(p); scrolling {
		t.Error("TickDrag after release should not scroll")
	}
}

func TestState_CurrentSegment(t *testing.T) {
	p := timeline.DefaultPolicy()
	st := newTestState(t)
	st, _ = st.AddSplit("a", 10, p)
	st, _ = st.AddSplit("b", 40, p)

	tests := []struct {
		at   float64
		want int
	}{
		{0, 0},
		{9.9, 0},
		{10, 1},
		{39.9, 1},
		{40, 2},
		{60, 2},
	}
	for _, tt := range tests {
		if got := st.Seek(tt.at).CurrentSegment(); got != tt.want {
			t.Errorf("CurrentSegment() at %v = %d, want %d", tt.at, got, tt.want)
		}
	}
}

func TestState_DragRespectsMinimum(t *testing.T) {
	p := timeline.DefaultPolicy()
	p.MinTrimDuration = 10
	st, _ := New("s", "m", 60, 60, p)

	st, _ = st.BeginDrag(timeline.HandleStart, testViewport(200), p)
	// pointer at 750px content => 55s
	st, _ = st.MoveDrag(750, p)
	if st.Trim != (timeline.Range{Start: 50, End: 60}) {
		t.Errorf("trim = %+v, want {50 60}", st.Trim)
	}
}

func TestState_TickDragStopsAtContentEnd(t *testing.T) {
	p := timeline.DefaultPolicy()
	st := newTestState(t)
	vp := testViewport(390)
	vp.ScrollOffset = 598 // content 1000px, viewport 400px => max offset 600

	st, err := st.BeginDrag(timeline.HandleEnd, vp, p)
	if err != nil {
		t.Fatalf("BeginDrag error = %v", err)
	}
	st, scrolling := st.TickDrag(p)
	if scrolling {
		t.Fatalf("expected scrolling to stop at content end, drag = %+v", st.Drag)
	}
	if st.Drag.Viewport.ScrollOffset != 600 {
		t.Errorf("ScrollOffset = %v, want 600", st.Drag.Viewport.ScrollOffset)
	}
	if st.Trim.End != 60 {
		t.Errorf("end handle = %v, want clamped to 60", st.Trim.End)
	}
}
