package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/five82/distenc/internal/job"
)

const (
	// durationToleranceSecs is the maximum allowed difference between the
	// source and committed output duration.
	durationToleranceSecs = 1.0
	// maxSyncDriftMs is the maximum allowed audio/video sync drift in milliseconds.
	maxSyncDriftMs = 100.0
	// requiredBitDepth is the bit depth the two-pass and one-pass argument
	// builders always request (10-bit yuv420p10le, spec §6).
	requiredBitDepth = 10
)

// Options carries the expectations a committed output is checked against.
type Options struct {
	ExpectedDimensions  *[2]uint32
	ExpectedDuration    *float64
	ExpectedHDR         *bool
	ExpectedAudioTracks *int
}

// OptionsFromJob derives validation expectations from a job's analysis and
// crop rectangle: the crop plan fixes the expected frame size, the source
// duration is carried through unchanged (no passthrough filter trims it),
// and HDR/Dolby Vision presence must survive the encode.
func OptionsFromJob(info job.VideoInfo, audioTracks int) Options {
	opts := Options{ExpectedAudioTracks: &audioTracks}
	if !info.Crop.IsZero() {
		dims := [2]uint32{uint32(info.Crop.W), uint32(info.Crop.H)}
		opts.ExpectedDimensions = &dims
	}
	if info.DurationS != nil {
		d := *info.DurationS
		opts.ExpectedDuration = &d
	}
	hdr := info.HasHDRDV
	opts.ExpectedHDR = &hdr
	return opts
}

// ValidateOutputVideo validates a committed output against opts using a
// ffprobe-backed DefaultAnalyzer.
func ValidateOutputVideo(ffprobePath, outputPath string, opts Options) (*Result, error) {
	return ValidateWithAnalyzer(NewDefaultAnalyzer(ffprobePath), outputPath, opts)
}

// validateDimensions checks that dimensions match expected values.
func validateDimensions(actualW, actualH, expectedW, expectedH uint32) (bool, string) {
	if actualW == expectedW && actualH == expectedH {
		return true, fmt.Sprintf("Dimensions match: %dx%d", actualW, actualH)
	}
	return false, fmt.Sprintf("Dimension mismatch: got %dx%d, expected %dx%d",
		actualW, actualH, expectedW, expectedH)
}

// validateDuration checks that duration is within acceptable tolerance.
func validateDuration(actual, expected float64) (bool, string) {
	diff := math.Abs(actual - expected)

	if diff <= durationToleranceSecs {
		return true, fmt.Sprintf("Duration matches input (%.1fs)", actual)
	}
	return false, fmt.Sprintf("Duration mismatch: got %.1fs, expected %.1fs (diff: %.1fs)",
		actual, expected, diff)
}

// validateSync checks audio/video sync drift, approximated as the gap
// between output and source duration (both streams are muxed from the same
// encode run, so divergence here means a dropped or duplicated frame range).
func validateSync(outputDuration, inputDuration float64) (bool, *float64, string) {
	driftMs := math.Abs(outputDuration-inputDuration) * 1000
	preserved := driftMs <= maxSyncDriftMs

	message := fmt.Sprintf("Audio/video sync preserved (drift: %.1fms)", driftMs)
	if !preserved {
		message = fmt.Sprintf("Audio/video sync drift too large: %.1fms (max: %.1fms)", driftMs, maxSyncDriftMs)
	}

	return preserved, &driftMs, message
}

// ValidateWithAnalyzer runs every check against outputPath through analyzer.
// Every field is read independently; an error from one check degrades only
// that check's result field, matching the probe package's
// field-independence convention for this committed-output sanity pass.
func ValidateWithAnalyzer(analyzer MediaAnalyzer, outputPath string, opts Options) (*Result, error) {
	result := &Result{
		IsCropCorrect:            true,
		IsDurationCorrect:        true,
		IsHDRCorrect:             true,
		IsAudioOpus:              true,
		IsAudioTrackCountCorrect: true,
		IsSyncPreserved:          true,
	}

	outputProps, err := analyzer.GetVideoProperties(outputPath)
	if err != nil {
		return nil, fmt.Errorf("read committed output properties: %w", err)
	}

	codecName, err := analyzer.GetVideoCodec(outputPath)
	if err != nil {
		result.IsHEVC = false
	} else {
		result.IsHEVC = strings.Contains(strings.ToLower(codecName), "hevc") ||
			strings.Contains(strings.ToLower(codecName), "h265")
		result.CodecName = codecName
	}

	if outputProps.BitDepth != nil {
		result.Is10Bit = *outputProps.BitDepth >= requiredBitDepth
		result.BitDepth = outputProps.BitDepth
	} else {
		result.Is10Bit = false
	}

	if opts.ExpectedDimensions != nil {
		result.ActualDimensions = &[2]uint32{outputProps.Width, outputProps.Height}
		result.ExpectedDimensions = opts.ExpectedDimensions
		result.IsCropCorrect, result.CropMessage = validateDimensions(
			outputProps.Width, outputProps.Height,
			opts.ExpectedDimensions[0], opts.ExpectedDimensions[1],
		)
	} else {
		result.CropMessage = "No crop plan recorded for this input"
	}

	if opts.ExpectedDuration != nil {
		actualDur := outputProps.DurationSecs
		result.ActualDuration = &actualDur
		result.ExpectedDuration = opts.ExpectedDuration
		result.IsDurationCorrect, result.DurationMessage = validateDuration(actualDur, *opts.ExpectedDuration)
	} else {
		result.DurationMessage = "Source duration unknown, skipped"
	}

	if opts.ExpectedHDR != nil {
		hdrInfo, err := analyzer.GetHDRInfo(outputPath)
		if err != nil {
			result.IsHDRCorrect = false
			result.HDRMessage = "Failed to read HDR status from output"
		} else {
			result.ActualHDR = &hdrInfo.IsHDR
			result.ExpectedHDR = opts.ExpectedHDR
			result.IsHDRCorrect, result.HDRMessage = compareHDR(*opts.ExpectedHDR, hdrInfo.IsHDR)
		}
	} else {
		result.HDRMessage = "No HDR expectation recorded"
	}

	audioStreams, err := analyzer.GetAudioStreams(outputPath)
	if err != nil {
		result.AudioMessage = "Failed to read audio streams from output"
	} else {
		result.IsAudioOpus, result.IsAudioTrackCountCorrect, result.AudioCodecs, result.AudioMessage =
			validateAudioStreams(audioStreams, opts.ExpectedAudioTracks)
	}

	if opts.ExpectedDuration != nil {
		result.IsSyncPreserved, result.SyncDriftMs, result.SyncMessage = validateSync(
			outputProps.DurationSecs, *opts.ExpectedDuration,
		)
	} else {
		result.SyncMessage = "Sync validation skipped"
	}

	return result, nil
}

func compareHDR(expected, actual bool) (bool, string) {
	label := func(hdr bool) string {
		if hdr {
			return "HDR"
		}
		return "SDR"
	}
	if expected == actual {
		return true, label(actual) + " preserved"
	}
	return false, "Expected " + label(expected) + ", found " + label(actual)
}

// validateAudioStreams checks audio codec and track count.
func validateAudioStreams(streams []AnalyzerAudioStream, expectedTracks *int) (bool, bool, []string, string) {
	isOpus := true
	var codecs []string

	for _, stream := range streams {
		codec := strings.ToLower(stream.Codec)
		codecs = append(codecs, codec)
		if codec != "opus" {
			isOpus = false
		}
	}

	trackCountCorrect := true
	if expectedTracks != nil {
		trackCountCorrect = len(streams) == *expectedTracks
	}

	var message string
	switch {
	case len(streams) == 0:
		message = "No audio tracks"
	case len(streams) == 1 && isOpus:
		message = "Audio track is Opus"
	case len(streams) == 1:
		message = fmt.Sprintf("Audio track is %s (expected Opus)", codecs[0])
	case isOpus:
		message = fmt.Sprintf("%d audio tracks, all Opus", len(streams))
	default:
		message = fmt.Sprintf("%d audio tracks: %s", len(streams), strings.Join(codecs, ", "))
	}

	return isOpus, trackCountCorrect, codecs, message
}
