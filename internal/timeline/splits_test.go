package timeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"testing"
)

func mustInsert(t *testing.T, points []SplitPoint, id string, at float64, frameCount int, duration float64) []SplitPoint {
	t.Helper()
	out, err := InsertSplitPoint(points, id, at, frameCount, duration, DefaultPolicy())
	if err != nil {
		t.Fatalf("InsertSplitPoint(%s at %v) error = %v", id, at, err)
	}
	return out
}

func TestInsertSplitPoint_KeepsSorted(t *testing.T) {
	var points []SplitPoint
	for i, at := range []float64{40, 10, 25, 55, 3} {
		points = mustInsert(t, points, fmt.Sprintf("sp%d", i), at, 60, 60)
		if !sort.SliceIsSorted(points, func(a, b int) bool { return points[a].Time < points[b].Time }) {
			t.Fatalf("points not sorted after inserting %v: %+v", at, points)
		}
	}

	if len(points) != 5 {
		t.Fatalf("len(points) = %d, want 5", len(points))
	}
	if points[0].Time != 3 || points[4].Time != 55 {
		t.Errorf("unexpected order: %+v", points)
	}
	if points[1].FrameIndex != 10 {
		t.Errorf("FrameIndex at t=10 = %d, want 10", points[1].FrameIndex)
	}
}

func TestInsertSplitPoint_DoesNotMutateInput(t *testing.T) {
	points := mustInsert(t, nil, "a", 30, 60, 60)
	before := append([]SplitPoint(nil), points...)

	if _, err := InsertSplitPoint(points, "b", 10, 60, 60, DefaultPolicy()); err != nil {
		t.Fatalf("InsertSplitPoint error = %v", err)
	}
	if len(points) != len(before) || points[0] != before[0] {
		t.Fatalf("input slice modified: %+v", points)
	}
}

func TestInsertSplitPoint_Rejections(t *testing.T) {
	base := []SplitPoint{{ID: "a", Time: 10, FrameIndex: 10}}

	tests := []struct {
		name    string
		points  []SplitPoint
		at      float64
		wantErr error
	}{
		{"within separation", base, 10.3, ErrTooClose},
		{"exactly at existing", base, 10, ErrTooClose},
		{"same frame index", []SplitPoint{{ID: "a", Time: 10.45, FrameIndex: 10}}, 9.9, ErrFrameCollision},
		{"same frame at full separation", []SplitPoint{{ID: "a", Time: 10.5, FrameIndex: 11}}, 11, ErrFrameCollision},
		{"near start", nil, 0.8, ErrNearBoundary},
		{"near end", nil, 59.2, ErrNearBoundary},
		{"at zero", nil, 0, ErrNearBoundary},
		{"beyond duration", nil, 61, ErrNearBoundary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InsertSplitPoint(tt.points, "new", tt.at, 60, 60, DefaultPolicy())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("InsertSplitPoint(%v) error = %v, want %v", tt.at, err, tt.wantErr)
			}
		})
	}
}

func TestInsertSplitPoint_SeparationBoundary(t *testing.T) {
	base := []SplitPoint{{ID: "a", Time: 10, FrameIndex: 20}}
	// 0.6s apart at two samples per second lands on a different frame.
	if _, err := InsertSplitPoint(base, "b", 10.6, 120, 60, DefaultPolicy()); err != nil {
		t.Errorf("split 0.6s away rejected: %v", err)
	}
}

func TestInsertSplitPoint_MaxCount(t *testing.T) {
	var points []SplitPoint
	for i := 1; i <= DefaultMaxSplitPoints; i++ {
		points = mustInsert(t, points, fmt.Sprintf("sp%d", i), float64(i*5), 100, 100)
	}

	_, err := InsertSplitPoint(points, "overflow", 80, 100, 100, DefaultPolicy())
	if !errors.Is(err, ErrTooManySplits) {
		t.Fatalf("11th split error = %v, want ErrTooManySplits", err)
	}
}

func TestInsertSplitPoint_CustomPolicy(t *testing.T) {
	p := DefaultPolicy()
	p.EdgeGuard = 0
	p.MinSplitSeparation = 2

	if _, err := InsertSplitPoint(nil, "a", 0.9, 60, 60, p); err != nil {
		t.Errorf("edge guard 0 should allow t=0.9: %v", err)
	}

	base := []SplitPoint{{ID: "a", Time: 10, FrameIndex: 10}}
	if _, err := InsertSplitPoint(base, "b", 11.5, 60, 60, p); !errors.Is(err, ErrTooClose) {
		t.Errorf("separation 2 should reject 1.5s gap, got %v", err)
	}
}

func TestRemoveSplitPoint(t *testing.T) {
	points := []SplitPoint{
		{ID: "a", Time: 10, FrameIndex: 10},
		{ID: "b", Time: 20, FrameIndex: 20},
	}

	out := RemoveSplitPoint(points, "a")
	if len(out) != 1 || out[0].ID != "b" {
		t.Fatalf("RemoveSplitPoint(a) = %+v", out)
	}
	if len(points) != 2 {
		t.Fatal("RemoveSplitPoint modified its input")
	}

	same := RemoveSplitPoint(points, "missing")
	if len(same) != 2 {
		t.Fatalf("removing unknown id changed the list: %+v", same)
	}
	same[0].Time = 99
	if points[0].Time == 99 {
		t.Fatal("RemoveSplitPoint returned an aliased slice")
	}
}

func TestFindSplitPoint(t *testing.T) {
	points := []SplitPoint{{ID: "a"}, {ID: "b"}}
	if got := FindSplitPoint(points, "b"); got != 1 {
		t.Errorf("FindSplitPoint(b) = %d, want 1", got)
	}
	if got := FindSplitPoint(points, "z"); got != -1 {
		t.Errorf("FindSplitPoint(z) = %d, want -1", got)
	}
}

func TestDeriveSegments_Example(t *testing.T) {
	points := mustInsert(t, nil, "a", 10, 60, 60)
	points = mustInsert(t, points, "b", 40, 60, 60)

	segs := DeriveSegments(points, 60, 60)
	want := []Range{{0, 10}, {10, 40}, {40, 60}}
	if len(segs) != len(want) {
		t.Fatalf("len(segments) = %d, want %d", len(segs), len(want))
	}
	for i, w := range want {
		if segs[i].Range() != w {
			t.Errorf("segment %d = %+v, want %+v", i, segs[i].Range(), w)
		}
		if segs[i].Index != i {
			t.Errorf("segment %d Index = %d", i, segs[i].Index)
		}
	}
	if segs[2].EndFrame != 59 {
		t.Errorf("last EndFrame = %d, want 59", segs[2].EndFrame)
	}
}

func TestDeriveSegments_Contiguous(t *testing.T) {
	var points []SplitPoint
	for i, at := range []float64{12.3, 47.9, 3.3, 88.1, 61.6, 30} {
		points = mustInsert(t, points, fmt.Sprintf("sp%d", i), at, 95, 93.7)
	}

	segs := DeriveSegments(points, 95, 93.7)
	if len(segs) != len(points)+1 {
		t.Fatalf("len(segments) = %d, want %d", len(segs), len(points)+1)
	}
	if segs[0].StartFrame != 0 || segs[0].StartTime != 0 {
		t.Errorf("first segment does not start at zero: %+v", segs[0])
	}
	last := segs[len(segs)-1]
	if last.EndFrame != 94 || last.EndTime != 93.7 {
		t.Errorf("last segment does not reach the end: %+v", last)
	}
	for i := 0; i+1 < len(segs); i++ {
		if segs[i].EndFrame+1 != segs[i+1].StartFrame {
			t.Errorf("frame gap between %d and %d: %+v / %+v", i, i+1, segs[i], segs[i+1])
		}
		if segs[i].EndTime != segs[i+1].StartTime {
			t.Errorf("time gap between %d and %d", i, i+1)
		}
		if segs[i].EndFrame < segs[i].StartFrame {
			t.Errorf("segment %d is empty in frame space: %+v", i, segs[i])
		}
	}
}

func TestDeriveSegments_NoSplits(t *testing.T) {
	segs := DeriveSegments(nil, 30, 29.5)
	if len(segs) != 1 {
		t.Fatalf("len(segments) = %d, want 1", len(segs))
	}
	if segs[0].StartFrame != 0 || segs[0].EndFrame != 29 || segs[0].EndTime != 29.5 {
		t.Errorf("segment = %+v", segs[0])
	}
	if math.Abs(segs[0].Duration()-29.5) > 1e-9 {
		t.Errorf("Duration() = %v", segs[0].Duration())
	}
}

func TestSegmentAt(t *testing.T) {
	segs := DeriveSegments([]SplitPoint{{ID: "a", Time: 10, FrameIndex: 10}}, 60, 60)
	if got := SegmentAt(segs, 5); got != 0 {
		t.Errorf("SegmentAt(5) = %d, want 0", got)
	}
	if got := SegmentAt(segs, 10); got != 1 {
		t.Errorf("SegmentAt(10) = %d, want 1", got)
	}
	if got := SegmentAt(segs, 60); got != 1 {
		t.Errorf("SegmentAt(60) = %d, want 1", got)
	}
}
