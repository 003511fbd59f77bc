package probe

import (
	"os"
	"path/filepath"
	"testing"
)

func loadTestData(t *testing.T, filename string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", filename))
	if err != nil {
		t.Fatalf("failed to load test data %s: %v", filename, err)
	}
	return data
}

func TestParseProbeOutput_1080pSDR(t *testing.T) {
	out, err := parseProbeOutput(loadTestData(t, "video_1080p_sdr.json"))
	if err != nil {
		t.Fatalf("parseProbeOutput() error = %v", err)
	}

	if d := durationFromOutput(out); d == nil || *d != 120.5 {
		t.Errorf("duration = %v, want 120.5", d)
	}

	fps := frameRateFromOutput(out)
	if fps == nil {
		t.Fatal("frame rate = nil, want a value")
	}
	if want := 24000.0 / 1001.0; *fps != want {
		t.Errorf("frame rate = %v, want %v", *fps, want)
	}

	if hasDolbyVisionFromOutput(out) {
		t.Error("expected no Dolby Vision side data")
	}

	chapters := chaptersFromOutput(out)
	if len(chapters) != 2 {
		t.Fatalf("len(chapters) = %d, want 2", len(chapters))
	}
	if chapters[0].EndS == nil || *chapters[0].EndS != 60 {
		t.Errorf("chapters[0].EndS = %v, want 60", chapters[0].EndS)
	}

	indices := textSubtitleIndicesFromOutput(out)
	if len(indices) != 1 || indices[0] != 2 {
		t.Errorf("text subtitle indices = %v, want [2]", indices)
	}
}

func TestParseProbeOutput_DolbyVision(t *testing.T) {
	out, err := parseProbeOutput(loadTestData(t, "video_4k_dolby_vision.json"))
	if err != nil {
		t.Fatalf("parseProbeOutput() error = %v", err)
	}

	if !hasDolbyVisionFromOutput(out) {
		t.Error("expected Dolby Vision side data to be detected")
	}

	if fps := frameRateFromOutput(out); fps == nil || *fps != 24 {
		t.Errorf("frame rate = %v, want 24", fps)
	}

	if chapters := chaptersFromOutput(out); len(chapters) != 0 {
		t.Errorf("len(chapters) = %d, want 0", len(chapters))
	}
}

func TestParseProbeOutput_MalformedJSON(t *testing.T) {
	_, err := parseProbeOutput([]byte(`{"format": {"duration": "120.5"}, "streams": [}`))
	if err == nil {
		t.Error("parseProbeOutput() expected error for malformed JSON, got nil")
	}
}

func TestDurationFromOutput_Absent(t *testing.T) {
	out := &probeOutput{}
	if d := durationFromOutput(out); d != nil {
		t.Errorf("duration = %v, want nil", d)
	}
}

func TestParseFrameRateString(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"24000/1001", 24000.0 / 1001.0, true},
		{"24/1", 24, true},
		{"25", 25, true},
		{"0/0", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseFrameRateString(tt.in)
		if ok != tt.ok {
			t.Errorf("parseFrameRateString(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("parseFrameRateString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
