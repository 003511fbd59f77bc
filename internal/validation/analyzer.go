// Package validation performs the non-gating post-commit sanity check that
// compares a finished output file against the job's analysis, crop
// rectangle, and zone plan. A mismatch is logged through the reporter; it
// never flips a completed job to FAILED.
package validation

// MediaAnalyzer reads the properties of a committed output file. The
// interface exists so validation logic can be tested without spawning the
// probe tool.
type MediaAnalyzer interface {
	// GetVideoProperties returns video stream properties for the given file.
	GetVideoProperties(path string) (*AnalyzerVideoProperties, error)

	// GetAudioStreams returns audio stream information for the given file.
	GetAudioStreams(path string) ([]AnalyzerAudioStream, error)

	// GetVideoCodec returns the video codec name for the given file.
	GetVideoCodec(path string) (string, error)

	// GetHDRInfo returns HDR detection information for the given file.
	GetHDRInfo(path string) (*AnalyzerHDRInfo, error)

	// IsHDRDetectionAvailable returns whether HDR detection is available.
	IsHDRDetectionAvailable() bool
}

// AnalyzerVideoProperties contains video stream information needed for validation.
type AnalyzerVideoProperties struct {
	Width        uint32
	Height       uint32
	DurationSecs float64
	BitDepth     *uint8
}

// AnalyzerAudioStream contains audio stream information.
type AnalyzerAudioStream struct {
	Codec    string
	Channels int
}

// AnalyzerHDRInfo contains HDR detection results.
type AnalyzerHDRInfo struct {
	IsHDR    bool
	BitDepth *uint8
}
