package ffmpeg

import (
	"os"
	"regexp"
	"strconv"
)

// Loudness holds the five fields the MEASURE stage reads out of pass 1's
// loudnorm analysis JSON fragment (spec §4.6).
type Loudness struct {
	InputI      float64
	InputTP     float64
	InputLRA    float64
	InputThresh float64
	TargetOffset float64
}

// DefaultLoudness is the documented fallback used per-field when pass 1's
// log is missing a key or never produced one (spec §4.6, §8 scenario 6).
func DefaultLoudness() Loudness {
	return Loudness{
		InputI:       -23,
		InputTP:      -2.0,
		InputLRA:     7,
		InputThresh:  -33,
		TargetOffset: 0.0,
	}
}

var loudnessFieldRegexes = map[string]*regexp.Regexp{
	"input_i":       regexp.MustCompile(`"input_i"\s*:\s*"?(-?[0-9.]+)"?`),
	"input_tp":      regexp.MustCompile(`"input_tp"\s*:\s*"?(-?[0-9.]+)"?`),
	"input_lra":     regexp.MustCompile(`"input_lra"\s*:\s*"?(-?[0-9.]+)"?`),
	"input_thresh":  regexp.MustCompile(`"input_thresh"\s*:\s*"?(-?[0-9.]+)"?`),
	"target_offset": regexp.MustCompile(`"target_offset"\s*:\s*"?(-?[0-9.]+)"?`),
}

// ParseLoudnessLog reads the pass-1 token-file log at path and extracts the
// loudnorm JSON fragment's fields. It does not require the fragment to be
// well-formed JSON on its own (it is embedded among ordinary ffmpeg
// diagnostic lines) — each field is matched independently by regex, and a
// missing or unparsable field falls back to its documented default rather
// than failing the whole read (spec §4.6 MEASURE).
func ParseLoudnessLog(path string) (Loudness, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loudness{}, err
	}
	return ParseLoudnessOutput(string(data)), nil
}

// ParseLoudnessOutput is the pure extraction step behind ParseLoudnessLog.
func ParseLoudnessOutput(output string) Loudness {
	l := DefaultLoudness()

	if v, ok := matchFloat(loudnessFieldRegexes["input_i"], output); ok {
		l.InputI = v
	}
	if v, ok := matchFloat(loudnessFieldRegexes["input_tp"], output); ok {
		l.InputTP = v
	}
	if v, ok := matchFloat(loudnessFieldRegexes["input_lra"], output); ok {
		l.InputLRA = v
	}
	if v, ok := matchFloat(loudnessFieldRegexes["input_thresh"], output); ok {
		l.InputThresh = v
	}
	if v, ok := matchFloat(loudnessFieldRegexes["target_offset"], output); ok {
		l.TargetOffset = v
	}
	return l
}

func matchFloat(re *regexp.Regexp, s string) (float64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
