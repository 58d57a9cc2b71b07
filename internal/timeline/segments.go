package timeline

// Segment is one region of the timeline between adjacent split points.
// Frames are inclusive on both ends; times are half-open [StartTime, EndTime).
type Segment struct {
	Index      int     `json:"index"`
	StartFrame int     `json:"start_frame"`
	EndFrame   int     `json:"end_frame"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
}

func (s Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

func (s Segment) Range() Range {
	return Range{Start: s.StartTime, End: s.EndTime}
}

// DeriveSegments partitions the timeline at the given split points, which
// must already be sorted by time. N points always yield N+1 segments and
// the last one runs to the final frame and the full duration.
func DeriveSegments(points []SplitPoint, frameCount int, duration float64) []Segment {
	mustTimeline(frameCount, duration)

	segments := make([]Segment, 0, len(points)+1)
	startFrame, startTime := 0, 0.0
	for i, sp := range points {
		segments = append(segments, Segment{
			Index:      i,
			StartFrame: startFrame,
			EndFrame:   sp.FrameIndex - 1,
			StartTime:  startTime,
			EndTime:    sp.Time,
		})
		startFrame, startTime = sp.FrameIndex, sp.Time
	}
	segments = append(segments, Segment{
		Index:      len(points),
		StartFrame: startFrame,
		EndFrame:   frameCount - 1,
		StartTime:  startTime,
		EndTime:    duration,
	})
	return segments
}

// SegmentAt returns the index of the segment containing t.
func SegmentAt(segments []Segment, t float64) int {
	for i, s := range segments {
		if t < s.EndTime {
			return i
		}
	}
	return len(segments) - 1
}
