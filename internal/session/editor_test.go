package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

type fakePreviewer struct {
	mu    sync.Mutex
	times []float64
	err   error
}

func (f *fakePreviewer) Preview(ctx context.Context, mediaID string, t float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.times = append(f.times, t)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("/previews/%s/%.3f.jpg", mediaID, t), nil
}

func (f *fakePreviewer) calls() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.times...)
}

func testPolicy() timeline.Policy {
	p := timeline.DefaultPolicy()
	p.AutoScrollTick = 2 * time.Millisecond
	p.PreviewDebounce = 25 * time.Millisecond
	return p
}

func newTestEditor(t *testing.T, prev Previewer) *Editor {
	t.Helper()
	p := testPolicy()
	st, err := New("s1", "m1", 60, 60, p)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ed := NewEditor(st, p, prev, nil)
	t.Cleanup(ed.Close)
	return ed
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEditor_Splits(t *testing.T) {
	ed := newTestEditor(t, nil)

	st, err := ed.AddSplit(30)
	if err != nil {
		t.Fatalf("AddSplit error = %v", err)
	}
	if len(st.SplitPoints) != 1 || st.SplitPoints[0].ID == "" {
		t.Fatalf("split points = %+v", st.SplitPoints)
	}

	before := ed.Snapshot()
	if _, err := ed.AddSplit(0.1); !errors.Is(err, timeline.ErrNearBoundary) {
		t.Errorf("AddSplit(0.1) error = %v, want ErrNearBoundary", err)
	}
	if ed.Snapshot().Version != before.Version {
		t.Error("rejected split changed the published state")
	}

	ed.Seek(45)
	st, err = ed.AddSplitAtPlayhead()
	if err != nil {
		t.Fatalf("AddSplitAtPlayhead error = %v", err)
	}
	if len(st.SplitPoints) != 2 || st.SplitPoints[1].Time != 45 {
		t.Errorf("split points = %+v", st.SplitPoints)
	}

	st, err = ed.RemoveSplit(st.SplitPoints[0].ID)
	if err != nil {
		t.Fatalf("RemoveSplit error = %v", err)
	}
	if len(st.SplitPoints) != 1 {
		t.Errorf("split points after remove = %+v", st.SplitPoints)
	}

	if st := ed.Reset(); len(st.SplitPoints) != 0 {
		t.Errorf("Reset left split points: %+v", st.SplitPoints)
	}
}

func TestEditor_DragSchedulesPreview(t *testing.T) {
	prev := &fakePreviewer{}
	ed := newTestEditor(t, prev)

	if _, err := ed.BeginDrag(timeline.HandleEnd, testViewport(210)); err != nil {
		t.Fatalf("BeginDrag error = %v", err)
	}
	if _, err := ed.MoveDrag(250); err != nil {
		t.Fatalf("MoveDrag error = %v", err)
	}

	waitFor(t, "preview", func() bool {
		p := ed.Snapshot().Preview
		return p != nil && math.Abs(p.Time-5) < 1e-9
	})
	if calls := prev.calls(); len(calls) != 1 {
		t.Errorf("previewer called %d times (%v), want 1 after debounce", len(calls), calls)
	}
	if ed.Scrolling() {
		t.Error("pointer outside the scroll zones should not auto-scroll")
	}

	st := ed.EndDrag()
	if st.Drag != nil {
		t.Error("EndDrag left drag state")
	}
	if math.Abs(st.Trim.End-5) > 1e-9 {
		t.Errorf("trim end = %v, want 5", st.Trim.End)
	}
}

func TestEditor_ReleaseCancelsPendingPreview(t *testing.T) {
	prev := &fakePreviewer{}
	ed := newTestEditor(t, prev)

	if _, err := ed.BeginDrag(timeline.HandleEnd, testViewport(210)); err != nil {
		t.Fatalf("BeginDrag error = %v", err)
	}
	if _, err := ed.MoveDrag(250); err != nil {
		t.Fatalf("MoveDrag error = %v", err)
	}
	ed.EndDrag()

	time.Sleep(4 * testPolicy().PreviewDebounce)

	if calls := prev.calls(); len(calls) != 0 {
		t.Errorf("previewer called %v after release, want no calls", calls)
	}
	if p := ed.Snapshot().Preview; p != nil {
		t.Errorf("preview = %+v after release, want nil", p)
	}
}

func TestEditor_PreviewErrorKeepsState(t *testing.T) {
	prev := &fakePreviewer{err: errors.New("ffmpeg exploded")}
	ed := newTestEditor(t, prev)

	ed.BeginDrag(timeline.HandleStart, testViewport(250))
	waitFor(t, "preview attempt", func() bool { return len(prev.calls()) == 1 })

	if ed.Snapshot().Preview != nil {
		t.Error("failed preview should not be published")
	}
}

func TestEditor_AutoScrollRunsUntilRelease(t *testing.T) {
	ed := newTestEditor(t, nil)

	if _, err := ed.BeginDrag(timeline.HandleStart, testViewport(250)); err != nil {
		t.Fatalf("BeginDrag error = %v", err)
	}
	if _, err := ed.MoveDrag(390); err != nil {
		t.Fatalf("MoveDrag error = %v", err)
	}
	if !ed.Scrolling() {
		t.Fatal("expected auto-scroll to start in the right zone")
	}

	waitFor(t, "scroll progress", func() bool {
		d := ed.Snapshot().Drag
		return d != nil && d.Viewport.ScrollOffset >= 30
	})

	st := ed.EndDrag()
	if ed.Scrolling() {
		t.Error("auto-scroll still running after EndDrag")
	}
	start := st.Trim.Start
	if start <= 19 {
		t.Errorf("start handle = %v, want it carried past 19s by scrolling", start)
	}

	time.Sleep(20 * time.Millisecond)
	if got := ed.Snapshot().Trim.Start; got != start {
		t.Errorf("trim kept moving after release: %v -> %v", start, got)
	}
}

func TestEditor_AutoScrollStopsAtEdge(t *testing.T) {
	ed := newTestEditor(t, nil)

	vp := testViewport(210)
	vp.ScrollOffset = 12
	if _, err := ed.BeginDrag(timeline.HandleStart, vp); err != nil {
		t.Fatalf("BeginDrag error = %v", err)
	}
	// left zone: scroll back towards the start
	if _, err := ed.MoveDrag(10); err != nil {
		t.Fatalf("MoveDrag error = %v", err)
	}

	waitFor(t, "scroll to stop", func() bool { return !ed.Scrolling() })

	st := ed.Snapshot()
	if st.Drag == nil || st.Drag.Viewport.ScrollOffset != 0 {
		t.Fatalf("drag = %+v, want scroll offset 0", st.Drag)
	}
	if st.Trim.Start != 0 {
		t.Errorf("start handle = %v, want 0", st.Trim.Start)
	}
}

func TestEditor_ConcurrentWriters(t *testing.T) {
	ed := newTestEditor(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ed.Seek(float64(i))
			ed.SetTrim(float64(i%10), 60, timeline.HandleStart)
		}(i)
	}
	wg.Wait()

	if v := ed.Snapshot().Version; v != 100 {
		t.Errorf("Version = %d, want 100", v)
	}
}
