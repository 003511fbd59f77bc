// Package zone maps chapter boundaries and configured bitrate multipliers
// to the encoder's zones= parameter (spec §4.4). There is no teacher
// equivalent — drapto has no bitrate-zone concept — so this package is new,
// built in the style of the corpus's small, pure, well-tested calculation
// packages (internal/util/format.go).
package zone

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/five82/distenc/internal/config"
	"github.com/five82/distenc/internal/job"
)

// titleSequenceWindowS is the heuristic cutoff: title sequences live in the
// first 10 minutes (spec §4.4).
const titleSequenceWindowS = 600.0

// episodeOneMarker is the case-sensitive substring that identifies a
// first-episode filename (spec §3, §9 open question: case-sensitive).
const episodeOneMarker = "E01"

// Plan computes the zones= string for one input (spec §4.4). Rules are
// evaluated in order; absence of a required field short-circuits that rule
// (or the whole plan, for duration/fps) to no zone rather than an error.
func Plan(info job.VideoInfo, zc config.ZoneConfig, filename string) string {
	if zc.SkipFirstEpisodes && strings.Contains(filename, episodeOneMarker) {
		return ""
	}

	if info.DurationS == nil || info.FrameRateFPS == nil {
		return ""
	}
	fps := *info.FrameRateFPS
	duration := *info.DurationS

	var zones []string

	if zc.TitleRate != nil {
		if z, ok := titleZone(info.Chapters, fps, *zc.TitleRate); ok {
			zones = append(zones, z)
		}
	}

	if zc.ClosingRate != nil {
		if z, ok := closingZone(duration, fps, *zc.ClosingRate); ok {
			zones = append(zones, z)
		}
	}

	return strings.Join(zones, "/")
}

// titleZone locates the chapter with minimum start; if its end exists and
// falls within the title-sequence window, emits a zone covering the final
// rate.Seconds seconds before that chapter ends.
func titleZone(chapters []job.Chapter, fps float64, rate config.RateSpec) (string, bool) {
	if len(chapters) == 0 {
		return "", false
	}

	earliest := chapters[0]
	for _, c := range chapters[1:] {
		if c.StartS < earliest.StartS {
			earliest = c
		}
	}

	if earliest.EndS == nil || *earliest.EndS > titleSequenceWindowS {
		return "", false
	}

	startFrame := frame(math.Max(0, *earliest.EndS-rate.Seconds), fps)
	endFrame := frame(*earliest.EndS, fps)
	return formatZone(startFrame, endFrame, rate.Multiplier), startFrame < endFrame
}

// closingZone applies the configured closing window to the tail of the
// file unconditionally, once duration and fps are known (spec §4.4).
func closingZone(durationS, fps float64, rate config.RateSpec) (string, bool) {
	startFrame := frame(math.Max(0, durationS-rate.Seconds), fps)
	endFrame := frame(durationS, fps)
	return formatZone(startFrame, endFrame, rate.Multiplier), startFrame < endFrame
}

// frame converts a timestamp to a frame index: floor(time * fps) (spec §4.4).
func frame(timeS, fps float64) int {
	return int(math.Floor(timeS * fps))
}

func formatZone(startFrame, endFrame int, multiplier float64) string {
	return fmt.Sprintf("%d,%d,b=%s", startFrame, endFrame, strconv.FormatFloat(multiplier, 'g', -1, 64))
}
