package playback

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

var ErrInvalidFragment = errors.New("invalid media fragment")

// ParseFragment reads the temporal dimension of a W3C media fragment
// ("t=10,20", "t=npt:10", "t=,1:30", "00:01:05.5,00:02") into a range of
// a duration-second item. A missing end means the end of the media; an end
// past the media is clamped. Only normal play time is supported.
func ParseFragment(s string, duration float64) (timeline.Range, error) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "#"))
	s = strings.TrimPrefix(s, "t=")
	if scheme, rest, ok := strings.Cut(s, ":"); ok && isLetters(scheme) {
		if scheme != "npt" {
			return timeline.Range{}, fmt.Errorf("%w: unsupported time scheme %q", ErrInvalidFragment, scheme)
		}
		s = rest
	}
	if s == "" {
		return timeline.Range{}, fmt.Errorf("%w: empty", ErrInvalidFragment)
	}

	first, last, hasEnd := strings.Cut(s, ",")
	start, end := 0.0, duration

	var err error
	if first != "" {
		if start, err = parseClock(first); err != nil {
			return timeline.Range{}, err
		}
	}
	if hasEnd {
		if last == "" {
			return timeline.Range{}, fmt.Errorf("%w: empty end", ErrInvalidFragment)
		}
		if end, err = parseClock(last); err != nil {
			return timeline.Range{}, err
		}
	}

	end = min(end, duration)
	if start >= end {
		return timeline.Range{}, fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidFragment, timeline.FormatSeconds(start), timeline.FormatSeconds(end))
	}
	return timeline.Range{Start: start, End: end}, nil
}

// parseClock accepts seconds ("75.5"), mm:ss and hh:mm:ss with an optional
// fraction.
func parseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: bad time %q", ErrInvalidFragment, s)
	}

	total := 0.0
	for i, p := range parts {
		last := i == len(parts)-1
		var v float64
		var err error
		if last {
			v, err = strconv.ParseFloat(p, 64)
		} else {
			var n int
			n, err = strconv.Atoi(p)
			v = float64(n)
		}
		if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("%w: bad time %q", ErrInvalidFragment, s)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("%w: bad time %q", ErrInvalidFragment, s)
		}
		total = total*60 + v
	}
	return total, nil
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// FormatFragment renders r as a media fragment the player understands.
func FormatFragment(r timeline.Range) string {
	return fmt.Sprintf("t=%s,%s", timeline.FormatSeconds(r.Start), timeline.FormatSeconds(r.End))
}
