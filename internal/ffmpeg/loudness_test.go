package ffmpeg

import "testing"

func TestParseLoudnessOutput_Scenario6(t *testing.T) {
	// spec §8 scenario 6: pass-1 log contains input_i/target_offset; the
	// values found must be the ones substituted into pass 2's filter.
	output := `[Parsed_loudnorm_0 @ 0x...]
{
	"input_i" : "-24.3",
	"input_tp" : "-1.8",
	"input_lra" : "9.0",
	"input_thresh" : "-34.5",
	"output_i" : "-23.0",
	"target_offset" : "0.7"
}`
	got := ParseLoudnessOutput(output)
	want := Loudness{InputI: -24.3, InputTP: -1.8, InputLRA: 9, InputThresh: -34.5, TargetOffset: 0.7}
	if got != want {
		t.Errorf("ParseLoudnessOutput() = %+v, want %+v", got, want)
	}
}

func TestParseLoudnessOutput_MissingKeysFallBackToDefaults(t *testing.T) {
	// spec §8 scenario 6: missing keys fall back to documented defaults.
	output := `{"input_i" : "-24.3"}`
	got := ParseLoudnessOutput(output)
	want := DefaultLoudness()
	want.InputI = -24.3
	if got != want {
		t.Errorf("ParseLoudnessOutput() = %+v, want %+v", got, want)
	}
}

func TestParseLoudnessOutput_Empty(t *testing.T) {
	got := ParseLoudnessOutput("")
	want := DefaultLoudness()
	if got != want {
		t.Errorf("ParseLoudnessOutput(\"\") = %+v, want defaults %+v", got, want)
	}
}

func TestDefaultLoudness_Values(t *testing.T) {
	d := DefaultLoudness()
	if d.InputI != -23 || d.InputTP != -2.0 || d.InputLRA != 7 || d.InputThresh != -33 || d.TargetOffset != 0.0 {
		t.Errorf("DefaultLoudness() = %+v, want the documented fallback set", d)
	}
}
