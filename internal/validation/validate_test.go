package validation

import (
	"errors"
	"testing"

	"github.com/five82/distenc/internal/job"
)

// mockAnalyzer implements MediaAnalyzer for testing.
type mockAnalyzer struct {
	videoProps        *AnalyzerVideoProperties
	videoPropsErr     error
	audioStreams      []AnalyzerAudioStream
	audioStreamsErr   error
	videoCodec        string
	videoCodecErr     error
	hdrInfo           *AnalyzerHDRInfo
	hdrInfoErr        error
	hdrDetectionAvail bool
}

func (m *mockAnalyzer) GetVideoProperties(path string) (*AnalyzerVideoProperties, error) {
	return m.videoProps, m.videoPropsErr
}

func (m *mockAnalyzer) GetAudioStreams(path string) ([]AnalyzerAudioStream, error) {
	return m.audioStreams, m.audioStreamsErr
}

func (m *mockAnalyzer) GetVideoCodec(path string) (string, error) {
	return m.videoCodec, m.videoCodecErr
}

func (m *mockAnalyzer) GetHDRInfo(path string) (*AnalyzerHDRInfo, error) {
	return m.hdrInfo, m.hdrInfoErr
}

func (m *mockAnalyzer) IsHDRDetectionAvailable() bool {
	return m.hdrDetectionAvail
}

func TestValidateWithAnalyzer_ValidHEVCSDR(t *testing.T) {
	bitDepth := uint8(10)
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{
			Width:        1920,
			Height:       800,
			DurationSecs: 120.5,
			BitDepth:     &bitDepth,
		},
		audioStreams: []AnalyzerAudioStream{
			{Codec: "opus", Channels: 2},
		},
		videoCodec:        "hevc",
		hdrInfo:           &AnalyzerHDRInfo{IsHDR: false, BitDepth: &bitDepth},
		hdrDetectionAvail: true,
	}

	expectedDims := [2]uint32{1920, 800}
	expectedDuration := 120.5
	expectedHDR := false
	expectedTracks := 1

	result, err := ValidateWithAnalyzer(mock, "/fake/path.mkv", Options{
		ExpectedDimensions:  &expectedDims,
		ExpectedDuration:    &expectedDuration,
		ExpectedHDR:         &expectedHDR,
		ExpectedAudioTracks: &expectedTracks,
	})

	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}

	if !result.IsValid() {
		t.Errorf("IsValid() = false, want true. Failures: %v", result.Failures())
	}
	if !result.IsHEVC {
		t.Error("IsHEVC = false, want true")
	}
	if !result.Is10Bit {
		t.Error("Is10Bit = false, want true")
	}
	if !result.IsCropCorrect {
		t.Error("IsCropCorrect = false, want true")
	}
	if !result.IsDurationCorrect {
		t.Error("IsDurationCorrect = false, want true")
	}
	if !result.IsHDRCorrect {
		t.Error("IsHDRCorrect = false, want true")
	}
	if !result.IsAudioOpus {
		t.Error("IsAudioOpus = false, want true")
	}
}

func TestValidateWithAnalyzer_ValidHEVCHDR(t *testing.T) {
	bitDepth := uint8(10)
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{
			Width:        3840,
			Height:       2160,
			DurationSecs: 7200.0,
			BitDepth:     &bitDepth,
		},
		audioStreams: []AnalyzerAudioStream{
			{Codec: "opus", Channels: 8},
			{Codec: "opus", Channels: 6},
		},
		videoCodec:        "hevc",
		hdrInfo:           &AnalyzerHDRInfo{IsHDR: true, BitDepth: &bitDepth},
		hdrDetectionAvail: true,
	}

	expectedDims := [2]uint32{3840, 2160}
	expectedDuration := 7200.0
	expectedHDR := true
	expectedTracks := 2

	result, err := ValidateWithAnalyzer(mock, "/fake/path.mkv", Options{
		ExpectedDimensions:  &expectedDims,
		ExpectedDuration:    &expectedDuration,
		ExpectedHDR:         &expectedHDR,
		ExpectedAudioTracks: &expectedTracks,
	})

	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}

	if !result.IsValid() {
		t.Errorf("IsValid() = false, want true. Failures: %v", result.Failures())
	}
	if result.HDRMessage != "HDR preserved" {
		t.Errorf("HDRMessage = %q, want %q", result.HDRMessage, "HDR preserved")
	}
}

func TestValidateWithAnalyzer_DimensionMismatch(t *testing.T) {
	bitDepth := uint8(10)
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{
			Width:        1920,
			Height:       1080, // not cropped
			DurationSecs: 120.5,
			BitDepth:     &bitDepth,
		},
		audioStreams:      []AnalyzerAudioStream{{Codec: "opus", Channels: 2}},
		videoCodec:        "hevc",
		hdrInfo:           &AnalyzerHDRInfo{IsHDR: false, BitDepth: &bitDepth},
		hdrDetectionAvail: true,
	}

	expectedDims := [2]uint32{1920, 800} // expected cropped height

	result, err := ValidateWithAnalyzer(mock, "/fake/path.mkv", Options{
		ExpectedDimensions: &expectedDims,
	})

	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}

	if result.IsCropCorrect {
		t.Error("IsCropCorrect = true, want false for dimension mismatch")
	}
}

func TestValidateWithAnalyzer_WrongCodec(t *testing.T) {
	bitDepth := uint8(10)
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{
			Width:        1920,
			Height:       1080,
			DurationSecs: 120.5,
			BitDepth:     &bitDepth,
		},
		audioStreams:      []AnalyzerAudioStream{{Codec: "opus", Channels: 2}},
		videoCodec:        "av1", // not HEVC
		hdrInfo:           &AnalyzerHDRInfo{IsHDR: false, BitDepth: &bitDepth},
		hdrDetectionAvail: true,
	}

	result, err := ValidateWithAnalyzer(mock, "/fake/path.mkv", Options{})

	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}

	if result.IsHEVC {
		t.Error("IsHEVC = true, want false for AV1 codec")
	}
	if result.CodecName != "av1" {
		t.Errorf("CodecName = %q, want %q", result.CodecName, "av1")
	}
}

func TestValidateWithAnalyzer_NonOpusAudio(t *testing.T) {
	bitDepth := uint8(10)
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{
			Width:        1920,
			Height:       1080,
			DurationSecs: 120.5,
			BitDepth:     &bitDepth,
		},
		audioStreams: []AnalyzerAudioStream{
			{Codec: "aac", Channels: 2}, // not Opus
		},
		videoCodec:        "hevc",
		hdrInfo:           &AnalyzerHDRInfo{IsHDR: false, BitDepth: &bitDepth},
		hdrDetectionAvail: true,
	}

	result, err := ValidateWithAnalyzer(mock, "/fake/path.mkv", Options{})

	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}

	if result.IsAudioOpus {
		t.Error("IsAudioOpus = true, want false for AAC audio")
	}
}

func TestValidateWithAnalyzer_HDRMismatch(t *testing.T) {
	bitDepth := uint8(10)
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{
			Width:        3840,
			Height:       2160,
			DurationSecs: 7200.0,
			BitDepth:     &bitDepth,
		},
		audioStreams:      []AnalyzerAudioStream{{Codec: "opus", Channels: 6}},
		videoCodec:        "hevc",
		hdrInfo:           &AnalyzerHDRInfo{IsHDR: false, BitDepth: &bitDepth}, // actually SDR
		hdrDetectionAvail: true,
	}

	expectedHDR := true

	result, err := ValidateWithAnalyzer(mock, "/fake/path.mkv", Options{
		ExpectedHDR: &expectedHDR,
	})

	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}

	if result.IsHDRCorrect {
		t.Error("IsHDRCorrect = true, want false for HDR mismatch")
	}
	if result.HDRMessage != "Expected HDR, found SDR" {
		t.Errorf("HDRMessage = %q, want %q", result.HDRMessage, "Expected HDR, found SDR")
	}
}

func TestValidateWithAnalyzer_VideoPropsError(t *testing.T) {
	mock := &mockAnalyzer{
		videoPropsErr: errors.New("ffprobe failed"),
	}

	_, err := ValidateWithAnalyzer(mock, "/fake/path.mkv", Options{})

	if err == nil {
		t.Error("ValidateWithAnalyzer() expected error, got nil")
	}
}

func TestValidateWithAnalyzer_DurationTolerance(t *testing.T) {
	bitDepth := uint8(10)
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{
			Width:        1920,
			Height:       1080,
			DurationSecs: 120.8, // 0.3s difference (within 1s tolerance)
			BitDepth:     &bitDepth,
		},
		audioStreams:      []AnalyzerAudioStream{{Codec: "opus", Channels: 2}},
		videoCodec:        "hevc",
		hdrInfo:           &AnalyzerHDRInfo{IsHDR: false, BitDepth: &bitDepth},
		hdrDetectionAvail: true,
	}

	expectedDuration := 120.5

	result, err := ValidateWithAnalyzer(mock, "/fake/path.mkv", Options{
		ExpectedDuration: &expectedDuration,
	})

	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}

	if !result.IsDurationCorrect {
		t.Error("IsDurationCorrect = false, want true for small duration difference")
	}
}

func TestValidateWithAnalyzer_DurationExceedsTolerance(t *testing.T) {
	bitDepth := uint8(10)
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{
			Width:        1920,
			Height:       1080,
			DurationSecs: 122.0, // 1.5s difference (exceeds 1s tolerance)
			BitDepth:     &bitDepth,
		},
		audioStreams:      []AnalyzerAudioStream{{Codec: "opus", Channels: 2}},
		videoCodec:        "hevc",
		hdrInfo:           &AnalyzerHDRInfo{IsHDR: false, BitDepth: &bitDepth},
		hdrDetectionAvail: true,
	}

	expectedDuration := 120.5

	result, err := ValidateWithAnalyzer(mock, "/fake/path.mkv", Options{
		ExpectedDuration: &expectedDuration,
	})

	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}

	if result.IsDurationCorrect {
		t.Error("IsDurationCorrect = true, want false for large duration difference")
	}
}

func TestValidateWithAnalyzer_AudioTrackCountMismatch(t *testing.T) {
	bitDepth := uint8(10)
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{
			Width:        1920,
			Height:       1080,
			DurationSecs: 120.5,
			BitDepth:     &bitDepth,
		},
		audioStreams: []AnalyzerAudioStream{
			{Codec: "opus", Channels: 2},
		},
		videoCodec:        "hevc",
		hdrInfo:           &AnalyzerHDRInfo{IsHDR: false, BitDepth: &bitDepth},
		hdrDetectionAvail: true,
	}

	expectedTracks := 2 // expected 2 tracks but got 1

	result, err := ValidateWithAnalyzer(mock, "/fake/path.mkv", Options{
		ExpectedAudioTracks: &expectedTracks,
	})

	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}

	if result.IsAudioTrackCountCorrect {
		t.Error("IsAudioTrackCountCorrect = true, want false for track count mismatch")
	}
}

func TestValidateWithAnalyzer_NoOptions(t *testing.T) {
	bitDepth := uint8(10)
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{
			Width:        1920,
			Height:       1080,
			DurationSecs: 120.5,
			BitDepth:     &bitDepth,
		},
		audioStreams:      []AnalyzerAudioStream{{Codec: "opus", Channels: 2}},
		videoCodec:        "hevc",
		hdrInfo:           &AnalyzerHDRInfo{IsHDR: false, BitDepth: &bitDepth},
		hdrDetectionAvail: true,
	}

	result, err := ValidateWithAnalyzer(mock, "/fake/path.mkv", Options{})

	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}

	// With no expectations, dimension/duration/HDR checks all pass.
	if !result.IsCropCorrect {
		t.Error("IsCropCorrect = false, want true when no dimensions expected")
	}
	if !result.IsDurationCorrect {
		t.Error("IsDurationCorrect = false, want true when no duration expected")
	}
	if !result.IsHDRCorrect {
		t.Error("IsHDRCorrect = false, want true when no HDR expected")
	}
}

func TestOptionsFromJob_UsesCropAndDuration(t *testing.T) {
	duration := 300.0
	info := job.VideoInfo{
		DurationS: &duration,
		HasHDRDV:  true,
		Crop:      job.Rect{W: 1920, H: 800, X: 0, Y: 140},
	}

	opts := OptionsFromJob(info, 2)

	if opts.ExpectedDimensions == nil || *opts.ExpectedDimensions != [2]uint32{1920, 800} {
		t.Errorf("ExpectedDimensions = %v, want {1920 800}", opts.ExpectedDimensions)
	}
	if opts.ExpectedDuration == nil || *opts.ExpectedDuration != 300.0 {
		t.Errorf("ExpectedDuration = %v, want 300.0", opts.ExpectedDuration)
	}
	if opts.ExpectedHDR == nil || !*opts.ExpectedHDR {
		t.Error("ExpectedHDR = false, want true")
	}
	if opts.ExpectedAudioTracks == nil || *opts.ExpectedAudioTracks != 2 {
		t.Errorf("ExpectedAudioTracks = %v, want 2", opts.ExpectedAudioTracks)
	}
}

func TestOptionsFromJob_NoCropLeavesDimensionsNil(t *testing.T) {
	opts := OptionsFromJob(job.VideoInfo{}, 1)

	if opts.ExpectedDimensions != nil {
		t.Errorf("ExpectedDimensions = %v, want nil", opts.ExpectedDimensions)
	}
}
