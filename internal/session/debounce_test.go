package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_RunsOnlyLast(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var calls atomic.Int32
	var last atomic.Int32
	done := make(chan struct{}, 3)

	for i := 1; i <= 3; i++ {
		i := i
		d.Schedule(func(ctx context.Context) {
			calls.Add(1)
			last.Store(int32(i))
			done <- struct{}{}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never ran")
	}
	time.Sleep(50 * time.Millisecond)

	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if last.Load() != 3 {
		t.Errorf("ran call %d, want 3", last.Load())
	}
	if d.Pending() {
		t.Error("Pending() = true after the call ran")
	}
}

func TestDebouncer_CancelDropsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var calls atomic.Int32
	d.Schedule(func(ctx context.Context) { calls.Add(1) })
	if !d.Pending() {
		t.Fatal("Pending() = false right after Schedule")
	}

	d.Cancel()
	time.Sleep(60 * time.Millisecond)

	if calls.Load() != 0 {
		t.Errorf("cancelled call ran %d times", calls.Load())
	}
	if d.Pending() {
		t.Error("Pending() = true after Cancel")
	}
}

func TestDebouncer_CancelStopsRunningCall(t *testing.T) {
	d := NewDebouncer(time.Millisecond)

	started := make(chan struct{})
	stopped := make(chan error, 1)
	d.Schedule(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		stopped <- ctx.Err()
	})

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("call never started")
	}
	d.Cancel()

	select {
	case err := <-stopped:
		if err != context.Canceled {
			t.Errorf("ctx.Err() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("running call was not cancelled")
	}
}
