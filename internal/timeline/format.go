package timeline

import (
	"fmt"
	"math"
)

// FormatClock renders seconds as mm:ss.mmm, or hh:mm:ss.mmm past an hour.
// Negative input renders as zero.
func FormatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	totalMs := int64(math.Floor(seconds * 1000))
	h := totalMs / 3_600_000
	m := totalMs / 60_000 % 60
	s := totalMs / 1000 % 60
	ms := totalMs % 1000
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
	}
	return fmt.Sprintf("%02d:%02d.%03d", m, s, ms)
}

// FormatSeconds renders a trim command argument with millisecond precision.
func FormatSeconds(seconds float64) string {
	return fmt.Sprintf("%.3f", Round3(seconds))
}
