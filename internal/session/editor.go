package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

// Previewer renders a still of the media at t and returns where it lives.
type Previewer interface {
	Preview(ctx context.Context, mediaID string, t float64) (string, error)
}

// Editor owns one session. Writers are serialised; readers take the latest
// snapshot without locking.
type Editor struct {
	policy    timeline.Policy
	logger    *slog.Logger
	previewer Previewer
	preview   *Debouncer

	mu    sync.Mutex
	state atomic.Pointer[State]

	scrollCancel context.CancelFunc
	scrollDone   chan struct{}
}

func NewEditor(initial State, policy timeline.Policy, previewer Previewer, logger *slog.Logger) *Editor {
	e := &Editor{
		policy:    policy,
		logger:    logger,
		previewer: previewer,
		preview:   NewDebouncer(policy.PreviewDebounce),
	}
	e.state.Store(&initial)
	return e
}

func (e *Editor) Snapshot() State {
	return *e.state.Load()
}

func (e *Editor) ID() string {
	return e.Snapshot().ID
}

// apply runs a transition under the writer lock and publishes the result.
func (e *Editor) apply(fn func(State) (State, error)) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := fn(*e.state.Load())
	if err != nil {
		return *e.state.Load(), err
	}
	e.state.Store(&next)
	return next, nil
}

func (e *Editor) AddSplit(t float64) (State, error) {
	return e.apply(func(s State) (State, error) {
		return s.AddSplit(uuid.NewString(), t, e.policy)
	})
}

func (e *Editor) AddSplitAtPlayhead() (State, error) {
	return e.apply(func(s State) (State, error) {
		return s.AddSplitAtPlayhead(uuid.NewString(), e.policy)
	})
}

func (e *Editor) RemoveSplit(id string) (State, error) {
	return e.apply(func(s State) (State, error) {
		return s.RemoveSplit(id)
	})
}

func (e *Editor) Reset() State {
	e.stopAutoScroll()
	e.preview.Cancel()
	s, _ := e.apply(func(s State) (State, error) {
		return s.Reset(), nil
	})
	return s
}

func (e *Editor) Seek(t float64) State {
	s, _ := e.apply(func(s State) (State, error) {
		return s.Seek(t), nil
	})
	return s
}

func (e *Editor) SetTrim(start, end float64, handle timeline.Handle) State {
	s, _ := e.apply(func(s State) (State, error) {
		return s.SetTrim(start, end, handle), nil
	})
	return s
}

func (e *Editor) BeginDrag(handle timeline.Handle, vp Viewport) (State, error) {
	s, err := e.apply(func(s State) (State, error) {
		return s.BeginDrag(handle, vp, e.policy)
	})
	if err != nil {
		return s, err
	}
	e.afterDragUpdate(s)
	return s, nil
}

func (e *Editor) MoveDrag(pointerX float64) (State, error) {
	s, err := e.apply(func(s State) (State, error) {
		return s.MoveDrag(pointerX, e.policy)
	})
	if err != nil {
		return s, err
	}
	e.afterDragUpdate(s)
	return s, nil
}

// EndDrag releases the handle. Auto-scroll stops and a pending preview is
// cancelled before the release is published.
func (e *Editor) EndDrag() State {
	e.stopAutoScroll()
	e.preview.Cancel()
	s, _ := e.apply(func(s State) (State, error) {
		return s.EndDrag(), nil
	})
	return s
}

// Close stops background work. The editor must not be used afterwards.
func (e *Editor) Close() {
	e.stopAutoScroll()
	e.preview.Cancel()
}

func (e *Editor) afterDragUpdate(s State) {
	if s.Drag == nil {
		return
	}
	e.schedulePreview(s.MediaID, s.Drag.Time)
	if s.Drag.Scroll.Direction != timeline.ScrollNone {
		e.startAutoScroll()
	}
}

func (e *Editor) schedulePreview(mediaID string, t float64) {
	if e.previewer == nil {
		return
	}
	e.preview.Schedule(func(ctx context.Context) {
		uri, err := e.previewer.Preview(ctx, mediaID, t)
		if err != nil {
			if ctx.Err() == nil && e.logger != nil {
				e.logger.Warn("preview failed", "media_id", mediaID, "time", t, "error", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		e.apply(func(s State) (State, error) {
			return s.WithPreview(t, uri), nil
		})
	})
}

func (e *Editor) startAutoScroll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scrollCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.scrollCancel = cancel
	e.scrollDone = done

	go e.autoScrollLoop(ctx, cancel, done)
}

func (e *Editor) autoScrollLoop(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()

	ticker := time.NewTicker(e.policy.AutoScrollTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		e.mu.Lock()
		if ctx.Err() != nil {
			e.mu.Unlock()
			return
		}
		next, scrolling := e.state.Load().TickDrag(e.policy)
		if next.Version != e.state.Load().Version {
			e.state.Store(&next)
		}
		if !scrolling {
			e.scrollCancel = nil
			e.scrollDone = nil
			e.mu.Unlock()
			if next.Drag != nil {
				e.schedulePreview(next.MediaID, next.Drag.Time)
			}
			return
		}
		e.mu.Unlock()
		e.schedulePreview(next.MediaID, next.Drag.Time)
	}
}

// stopAutoScroll cancels the ticker and waits for it to exit.
func (e *Editor) stopAutoScroll() {
	e.mu.Lock()
	cancel, done := e.scrollCancel, e.scrollDone
	e.scrollCancel, e.scrollDone = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Scrolling reports whether the auto-scroll ticker is running.
func (e *Editor) Scrolling() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scrollCancel != nil
}
