package media

import (
	"fmt"
	"path/filepath"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FramePattern is the file name pattern of a generated thumbnail strip.
const FramePattern = "frame_%04d.png"

// TrimCommand cuts [Start, Start+Duration) out of Input into Output.
// Streams are copied, not re-encoded.
type TrimCommand struct {
	Input    string  `json:"input"`
	Output   string  `json:"output"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

func (c TrimCommand) Validate() error {
	switch {
	case c.Input == "":
		return fmt.Errorf("trim: input path is required")
	case c.Output == "":
		return fmt.Errorf("trim: output path is required")
	case c.Start < 0:
		return fmt.Errorf("trim: start %v is negative", c.Start)
	case !(c.Duration > 0):
		return fmt.Errorf("trim: duration must be positive, got %v", c.Duration)
	}
	return nil
}

// Args renders the ffmpeg argument list, without the binary.
func (c TrimCommand) Args() []string {
	return ffmpeg.Input(c.Input).
		Output(c.Output, ffmpeg.KwArgs{
			"ss":  seconds(c.Start),
			"t":   seconds(c.Duration),
			"c:v": "copy",
			"c:a": "copy",
		}).
		OverWriteOutput().
		GetArgs()
}

// frameArgs samples the strip starting at zero, rounding the sample clock up
// so the final partial second still yields a frame.
func frameArgs(req FrameRequest) []string {
	vf := fmt.Sprintf("fps=%s:round=up,scale=%d:-2", seconds(req.SamplesPerSecond), req.Width)
	return ffmpeg.Input(req.Input, ffmpeg.KwArgs{"ss": "0"}).
		Output(filepath.Join(req.OutputDir, FramePattern), ffmpeg.KwArgs{
			"vf":      vf,
			"vframes": strconv.Itoa(req.Count),
		}).
		OverWriteOutput().
		GetArgs()
}

func thumbnailArgs(input, output string, t float64, width int) []string {
	return ffmpeg.Input(input, ffmpeg.KwArgs{"ss": seconds(t)}).
		Output(output, ffmpeg.KwArgs{
			"vframes": "1",
			"vf":      fmt.Sprintf("scale=%d:-2", width),
		}).
		OverWriteOutput().
		GetArgs()
}

func probeArgs(input string) []string {
	return []string{"-v", "error", "-show_format", "-show_streams", "-of", "json", input}
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
