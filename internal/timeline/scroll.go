package timeline

import "fmt"

// ScrollDirection is the way the timeline auto-scrolls during a drag.
type ScrollDirection string

const (
	ScrollNone  ScrollDirection = ""
	ScrollLeft  ScrollDirection = "left"
	ScrollRight ScrollDirection = "right"
)

// ScrollStep is one auto-scroll tick. Delta is signed: negative scrolls left.
type ScrollStep struct {
	Direction ScrollDirection `json:"direction,omitempty"`
	Delta     float64         `json:"delta"`
}

// AutoScroll decides whether a drag at pointerX (relative to the viewport's
// left edge) sits in one of the edge zones and, if so, how far to scroll on
// this tick. The step never scrolls past either end of the content.
func AutoScroll(pointerX, scrollOffset, viewportWidth, contentWidth float64, p Policy) ScrollStep {
	if !(viewportWidth > 0) {
		panic(fmt.Sprintf("timeline: viewport width must be positive, got %v", viewportWidth))
	}

	zone := viewportWidth * p.AutoScrollThreshold
	maxOffset := max(contentWidth-viewportWidth, 0)

	switch {
	case pointerX <= zone && scrollOffset > 0:
		return ScrollStep{Direction: ScrollLeft, Delta: -min(p.AutoScrollStep, scrollOffset)}
	case pointerX >= viewportWidth-zone && scrollOffset < maxOffset:
		return ScrollStep{Direction: ScrollRight, Delta: min(p.AutoScrollStep, maxOffset-scrollOffset)}
	}
	return ScrollStep{}
}
