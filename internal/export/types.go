// Package export turns an editing session into output files: clip cut
// commands for the trim range or each derived segment, and CMX3600 edit
// decision lists.
package export

import (
	"fmt"

	"github.com/heimdex/heimdex-clipper/internal/media"
	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

// Mode selects what an export produces.
type Mode string

const (
	// ModeTrim writes the trim selection as one clip.
	ModeTrim Mode = "trim"
	// ModeSplit writes every segment between split points as its own clip.
	ModeSplit Mode = "split"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTrim, ModeSplit:
		return Mode(s), nil
	case "":
		return ModeTrim, nil
	}
	return "", fmt.Errorf("unknown export mode %q", s)
}

// Clip is one span of a source file.
type Clip struct {
	Name      string         `json:"name"`
	MediaPath string         `json:"media_path"`
	Range     timeline.Range `json:"range"`
}

// Plan is the work an export job performs.
type Plan struct {
	Mode     Mode                 `json:"mode"`
	Commands []media.TrimCommand `json:"commands"`
}

// Outputs lists the files the plan writes, in order.
func (p Plan) Outputs() []string {
	out := make([]string, len(p.Commands))
	for i, c := range p.Commands {
		out[i] = c.Output
	}
	return out
}
