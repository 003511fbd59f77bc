// Package probe queries the external probe tool (ffprobe) for duration,
// frame rate, Dolby Vision side-data, chapter boundaries, and the
// text-subtitle stream inventory (spec §4.2).
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	drerrors "github.com/five82/distenc/internal/errors"
	"github.com/five82/distenc/internal/job"
	"github.com/five82/distenc/internal/process"
)

// DefaultTimeout is the process runner's default deadline for probe calls (spec §5).
const DefaultTimeout = 300 * time.Second

// textSubtitleCodecs is the whitelist of text-based subtitle codec names (spec §3).
var textSubtitleCodecs = map[string]bool{
	"subrip":   true,
	"ass":      true,
	"ssa":      true,
	"webvtt":   true,
	"srt":      true,
	"mov_text": true,
	"text":     true,
}

// doviSideDataType is the side_data_type string ffprobe emits for a Dolby
// Vision configuration record (spec §4.2).
const doviSideDataType = "DOVI configuration record"

type probeOutput struct {
	Format   probeFormat    `json:"format"`
	Streams  []probeStream  `json:"streams"`
	Chapters []probeChapter `json:"chapters"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeChapter struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type probeStream struct {
	Index        int             `json:"index"`
	CodecType    string          `json:"codec_type"`
	CodecName    string          `json:"codec_name"`
	AvgFrameRate string          `json:"avg_frame_rate"`
	RFrameRate   string          `json:"r_frame_rate"`
	SideDataList []probeSideData `json:"side_data_list"`
}

type probeSideData struct {
	SideDataType string `json:"side_data_type"`
}

// runProbe invokes ffprobe once, read-only and quiet, over format/streams/chapters.
func runProbe(ctx context.Context, ffprobePath, inputPath string) (*probeOutput, error) {
	res, err := process.Run(ctx, DefaultTimeout, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-show_chapters",
		inputPath,
	)
	if err != nil {
		return nil, err
	}
	return parseProbeOutput(res.Stdout)
}

// parseProbeOutput decodes ffprobe's JSON document; split out from runProbe
// so the decode and extraction logic can be tested against fixtures without
// spawning ffprobe.
func parseProbeOutput(data []byte) (*probeOutput, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return &out, nil
}

func (o *probeOutput) primaryVideoStream() *probeStream {
	for i := range o.Streams {
		if o.Streams[i].CodecType == "video" {
			return &o.Streams[i]
		}
	}
	return nil
}

// durationFromOutput reads the primary video stream's format duration.
func durationFromOutput(o *probeOutput) *float64 {
	if o.Format.Duration == "" {
		return nil
	}
	d, err := strconv.ParseFloat(o.Format.Duration, 64)
	if err != nil {
		return nil
	}
	return &d
}

// frameRateFromOutput parses the primary video stream's frame rate,
// accepting "N/D" or a bare decimal.
func frameRateFromOutput(o *probeOutput) *float64 {
	v := o.primaryVideoStream()
	if v == nil {
		return nil
	}
	if fps, ok := parseFrameRateString(v.AvgFrameRate); ok {
		return &fps
	}
	if fps, ok := parseFrameRateString(v.RFrameRate); ok {
		return &fps
	}
	return nil
}

func parseFrameRateString(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f <= 0 {
			return 0, false
		}
		return f, true
	}
	n, errN := strconv.ParseFloat(num, 64)
	d, errD := strconv.ParseFloat(den, 64)
	if errN != nil || errD != nil || d == 0 || n <= 0 {
		return 0, false
	}
	return n / d, true
}

// hasDolbyVisionFromOutput reports whether any side_data_list entry on the
// primary video stream is a DOVI configuration record.
func hasDolbyVisionFromOutput(o *probeOutput) bool {
	v := o.primaryVideoStream()
	if v == nil {
		return false
	}
	for _, sd := range v.SideDataList {
		if sd.SideDataType == doviSideDataType {
			return true
		}
	}
	return false
}

// chaptersFromOutput reads chapter records, tolerating absent end times.
func chaptersFromOutput(o *probeOutput) []job.Chapter {
	chapters := make([]job.Chapter, 0, len(o.Chapters))
	for _, c := range o.Chapters {
		start, err := strconv.ParseFloat(c.StartTime, 64)
		if err != nil {
			continue
		}
		ch := job.Chapter{StartS: start}
		if end, err := strconv.ParseFloat(c.EndTime, 64); err == nil {
			ch.EndS = &end
		}
		chapters = append(chapters, ch)
	}
	return chapters
}

// textSubtitleIndicesFromOutput filters subtitle streams to the text-codec whitelist.
func textSubtitleIndicesFromOutput(o *probeOutput) []int {
	var indices []int
	for _, s := range o.Streams {
		if s.CodecType == "subtitle" && textSubtitleCodecs[s.CodecName] {
			indices = append(indices, s.Index)
		}
	}
	return indices
}

// Analyze runs the probe once and assembles a VideoInfo. Each field is
// extracted independently so a malformed or absent sub-field never aborts
// the others — except duration, whose absence aborts the job (spec §4.2).
// A nil VideoInfo with a nil error means "duration missing"; callers should
// treat that as fatal for the job.
func Analyze(ctx context.Context, ffprobePath, inputPath string, warn func(format string, args ...any)) (*job.VideoInfo, error) {
	out, err := runProbe(ctx, ffprobePath, inputPath)
	if err != nil {
		return nil, err
	}

	duration := durationFromOutput(out)
	if duration == nil {
		return nil, nil
	}

	info := &job.VideoInfo{Path: inputPath, DurationS: duration}

	if fps := frameRateFromOutput(out); fps != nil {
		info.FrameRateFPS = fps
	} else {
		probeErr := drerrors.NewProbeFailedError("frame_rate", fmt.Errorf("no usable avg_frame_rate or r_frame_rate for %s", inputPath))
		warn("%s", probeErr.Error())
	}

	info.HasHDRDV = hasDolbyVisionFromOutput(out)
	info.Chapters = chaptersFromOutput(out)
	info.TextSubtitleIndices = textSubtitleIndicesFromOutput(out)

	return info, nil
}
