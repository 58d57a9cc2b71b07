package export

import (
	"fmt"
	"math"
	"strings"
)

// timebase describes how seconds map onto timecode frames.
type timebase struct {
	nominal int     // frames per timecode second
	rate    float64 // real frames per second
	drop    int     // frame numbers skipped each minute; 0 for non-drop
}

func newTimebase(frameRate float64) timebase {
	switch {
	case math.Abs(frameRate-29.97) < 0.01:
		return timebase{nominal: 30, rate: 30000.0 / 1001, drop: 2}
	case math.Abs(frameRate-59.94) < 0.01:
		return timebase{nominal: 60, rate: 60000.0 / 1001, drop: 4}
	}
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}
	return timebase{nominal: fps, rate: float64(fps)}
}

func (tb timebase) frames(seconds float64) int {
	return int(math.Round(seconds * tb.rate))
}

// timecode renders a frame count. Drop-frame timecode skips frame numbers
// 0 and 1 (0-3 at 59.94) at the start of every minute not divisible by ten,
// and separates frames with ';'.
func (tb timebase) timecode(frame int) string {
	sep := ":"
	if tb.drop > 0 {
		sep = ";"
		per10 := int(math.Round(tb.rate * 600))
		perMin := tb.nominal*60 - tb.drop
		d, m := frame/per10, frame%per10
		frame += tb.drop * 9 * d
		if m > tb.drop {
			frame += tb.drop * ((m - tb.drop) / perMin)
		}
	}

	ff := frame % tb.nominal
	totalSeconds := frame / tb.nominal
	ss := totalSeconds % 60
	mm := (totalSeconds / 60) % 60
	hh := totalSeconds / 3600
	return fmt.Sprintf("%02d:%02d:%02d%s%02d", hh, mm, ss, sep, ff)
}

// GenerateEDL renders clips as a CMX3600 edit decision list laid end to end
// on the record side.
func GenerateEDL(clips []Clip, title string, frameRate float64) string {
	tb := newTimebase(frameRate)

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if tb.drop > 0 {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	record := 0
	for i, clip := range clips {
		srcIn := tb.frames(clip.Range.Start)
		srcOut := tb.frames(clip.Range.End)
		length := srcOut - srcIn

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V",
				tb.timecode(srcIn), tb.timecode(srcOut), tb.timecode(record), tb.timecode(record+length)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", clip.Name),
			fmt.Sprintf("* SOURCE FILE:  %s", clip.MediaPath),
		)
		record += length
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}
