package timeline

import (
	"errors"
	"fmt"
)

var ErrTrimTooShort = errors.New("trim range shorter than the minimum segment duration")

// CheckRange rejects an explicit selection instead of adjusting it.
func CheckRange(r Range, duration, minSeg float64) error {
	if r.Start < 0 || r.End > duration || r.Start >= r.End {
		return fmt.Errorf("range [%v, %v) outside [0, %v]", r.Start, r.End, duration)
	}
	if r.Duration() < minSeg {
		return ErrTrimTooShort
	}
	return nil
}
