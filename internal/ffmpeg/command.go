package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/five82/distenc/internal/config"
	"github.com/five82/distenc/internal/job"
)

// firstPassLoudnormFilter is the analysis-only loudnorm invocation pass 1
// runs alongside the video encode, printing its measurement as a JSON
// fragment to stderr for MEASURE to read back (spec §4.6).
const firstPassLoudnormFilter = "loudnorm=I=-23:TP=-2:LRA=7:print_format=json"

// BuildFilterChain assembles the video filter graph in the fixed order the
// command builder contract requires: an optional pre-filter, the scale
// filter (sized to the preset's target dimensions), the crop rectangle, and
// an optional sharpen filter (spec §4.5, §6).
func BuildFilterChain(p *config.Preset, crop job.Rect) string {
	chain := NewVideoFilterChain()
	chain.AddFilter(p.VideoFilter)
	if p.TargetWidth > 0 && p.TargetHeight > 0 {
		scaleFilter := p.ScaleFilter
		if scaleFilter == "" {
			scaleFilter = "lanczos"
		}
		chain.AddFilter(fmt.Sprintf("zscale=%d:%d:filter=%s", p.TargetWidth, p.TargetHeight, scaleFilter))
	}
	if !crop.IsZero() {
		chain.AddFilter(fmt.Sprintf("crop=%d:%d:%d:%d", crop.W, crop.H, crop.X, crop.Y))
	}
	chain.AddFilter(p.SharpenFilter)
	return chain.Build()
}

// hdrFlag renders the boolean passthrough flag the command builder contract
// sends reflecting VideoInfo.HasHDRDV (spec §6 "HDR flag").
func hdrFlag(hasHDRDV bool) string {
	if hasHDRDV {
		return "1"
	}
	return "0"
}

// loudnormFilter builds the audio filter for a pass. On pass 1 (measured
// == nil) it is the fixed analysis-only form; on pass 2 it substitutes the
// measured values from MEASURE, normalizing in a single linear pass instead
// of re-measuring (spec §4.6, §8 scenario 6).
func loudnormFilter(measured *Loudness) string {
	if measured == nil {
		return firstPassLoudnormFilter
	}
	return fmt.Sprintf(
		"loudnorm=I=-23:TP=-2:LRA=7:measured_I=%s:measured_TP=%s:measured_LRA=%s:measured_thresh=%s:offset=%s:linear=true",
		formatLoudnessValue(measured.InputI),
		formatLoudnessValue(measured.InputTP),
		formatLoudnessValue(measured.InputLRA),
		formatLoudnessValue(measured.InputThresh),
		formatLoudnessValue(measured.TargetOffset),
	)
}

func formatLoudnessValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// subtitleMapArgs returns one "-map 0:s:<idx>" pair per text subtitle
// stream the probe found, preserving their probe order.
func subtitleMapArgs(indices []int) []string {
	args := make([]string, 0, len(indices)*2)
	for _, idx := range indices {
		args = append(args, "-map", fmt.Sprintf("0:s:%d", idx))
	}
	return args
}

// BuildAnalysisPassArgs builds the pass-1 invocation (spec §4.6 PASS1): the
// video stream is encoded to a null sink purely to produce the two-pass
// statistics file, and the audio stream is routed through the analysis
// loudnorm filter to the same sink so its JSON measurement lands in the
// pass's captured output.
func BuildAnalysisPassArgs(p *config.Preset, info job.VideoInfo, zones, statsPrefix string) []string {
	filterChain := BuildFilterChain(p, info.Crop)
	x265Params := MergeX265Params(p.X265Params, p.AddX265Params, zones)

	args := []string{
		"-y", "-i", info.Path,
		"-map", "0:v:0",
	}
	if filterChain != "" {
		args = append(args, "-vf", filterChain)
	}
	args = append(args,
		"-c:v", "libx265", "-pix_fmt", "yuv420p10le",
		"-x265-params", x265Params,
		"-hdr10", hdrFlag(info.HasHDRDV),
		"-b:v", fmt.Sprintf("%dk", p.CRFOrRate),
		"-passlogfile", statsPrefix, "-pass", "1",
		"-map", "0:a:0", "-af", firstPassLoudnormFilter,
		"-f", "null", "-",
	)
	return args
}

// BuildTwoPassArgs builds the pass-2 invocation (spec §4.6 PASS2): the real
// encode, using the statistics file pass 1 produced and the loudness
// measurement MEASURE extracted.
func BuildTwoPassArgs(p *config.Preset, info job.VideoInfo, zones, statsPrefix string, measured Loudness, outputPath string) []string {
	filterChain := BuildFilterChain(p, info.Crop)
	x265Params := MergeX265Params(p.X265Params, p.AddX265Params, zones)

	args := []string{
		"-y", "-i", info.Path,
		"-map", "0:v:0",
	}
	if filterChain != "" {
		args = append(args, "-vf", filterChain)
	}
	args = append(args,
		"-c:v", "libx265", "-pix_fmt", "yuv420p10le",
		"-x265-params", x265Params,
		"-hdr10", hdrFlag(info.HasHDRDV),
		"-b:v", fmt.Sprintf("%dk", p.CRFOrRate),
		"-passlogfile", statsPrefix, "-pass", "2",
		"-map", "0:a:0", "-af", loudnormFilter(&measured),
		"-ac", "2", "-c:a", "libopus", "-frame_duration", "20",
		"-b:a", fmt.Sprintf("%dk", p.AudioBitrateKbps),
	)
	args = append(args, subtitleMapArgs(info.TextSubtitleIndices)...)
	if len(info.TextSubtitleIndices) > 0 {
		args = append(args, "-c:s", "copy")
	}
	args = append(args, outputPath)
	return args
}

// BuildOnePassArgs builds the single-invocation form selected when
// Preset.IsOnePass() is true (spec §4.5): one CRF-mode encode producing the
// final output directly, with loudness normalization to the fixed analysis
// targets (no separate measurement pass).
func BuildOnePassArgs(p *config.Preset, info job.VideoInfo, zones, outputPath string) []string {
	filterChain := BuildFilterChain(p, info.Crop)
	x265Params := MergeX265Params(p.X265Params, p.AddX265Params, zones)

	args := []string{
		"-y", "-i", info.Path,
		"-map", "0:v:0", "-map", "0:a:0",
	}
	if filterChain != "" {
		args = append(args, "-vf", filterChain)
	}
	args = append(args,
		"-c:v", "libx265", "-pix_fmt", "yuv420p10le",
		"-x265-params", x265Params,
		"-hdr10", hdrFlag(info.HasHDRDV),
		"-crf", strconv.Itoa(p.CRFOrRate),
		"-af", "loudnorm=I=-23:TP=-2:LRA=7",
		"-ac", "2", "-c:a", "libopus", "-frame_duration", "20",
		"-b:a", fmt.Sprintf("%dk", p.AudioBitrateKbps),
	)
	args = append(args, subtitleMapArgs(info.TextSubtitleIndices)...)
	if len(info.TextSubtitleIndices) > 0 {
		args = append(args, "-c:s", "copy")
	}
	args = append(args, outputPath)
	return args
}
