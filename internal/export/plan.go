package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/heimdex/heimdex-clipper/internal/media"
	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

var ErrNothingToExport = errors.New("nothing to export")

const maxBaseNameLen = 80

// BaseName derives a safe clip name stem from a source path.
func BaseName(sourcePath string) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return SanitizeName(stem, maxBaseNameLen)
}

// PlanTrim cuts the trim selection r of source into outDir.
func PlanTrim(source, outDir string, r timeline.Range) (Plan, error) {
	if !(r.Duration() > 0) {
		return Plan{}, fmt.Errorf("%w: empty trim range", ErrNothingToExport)
	}
	name := fmt.Sprintf("%s_trim%s", BaseName(source), outputExt(source))
	return Plan{
		Mode:     ModeTrim,
		Commands: []media.TrimCommand{trimCommand(source, filepath.Join(outDir, name), r)},
	}, nil
}

// PlanSplit cuts each segment of source into its own numbered clip.
func PlanSplit(source, outDir string, segments []timeline.Segment) (Plan, error) {
	if len(segments) == 0 {
		return Plan{}, fmt.Errorf("%w: no segments", ErrNothingToExport)
	}
	base, ext := BaseName(source), outputExt(source)

	plan := Plan{Mode: ModeSplit}
	for _, seg := range segments {
		r := seg.Range()
		if !(r.Duration() > 0) {
			continue
		}
		name := fmt.Sprintf("%s_part%02d%s", base, seg.Index+1, ext)
		plan.Commands = append(plan.Commands, trimCommand(source, filepath.Join(outDir, name), r))
	}
	if len(plan.Commands) == 0 {
		return Plan{}, fmt.Errorf("%w: all segments are empty", ErrNothingToExport)
	}
	return plan, nil
}

// SegmentClips names each segment of source for an edit decision list.
func SegmentClips(source string, segments []timeline.Segment) []Clip {
	base := BaseName(source)
	clips := make([]Clip, 0, len(segments))
	for _, seg := range segments {
		clips = append(clips, Clip{
			Name:      fmt.Sprintf("%s part %d", base, seg.Index+1),
			MediaPath: source,
			Range:     seg.Range(),
		})
	}
	return clips
}

// Times are cut on millisecond boundaries.
func trimCommand(source, output string, r timeline.Range) media.TrimCommand {
	start := timeline.Round3(r.Start)
	return media.TrimCommand{
		Input:    source,
		Output:   output,
		Start:    start,
		Duration: timeline.Round3(r.End - start),
	}
}

func outputExt(source string) string {
	ext := strings.ToLower(filepath.Ext(source))
	if ext == "" {
		return ".mp4"
	}
	return ext
}
