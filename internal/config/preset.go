package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const presetSectionPrefix = "preset_"
const baselineSection = "baseline"

// Preset is the flat parameter set the command builder consumes (spec §3).
// Values that lexed as numbers in the preset file are coerced to int/float
// here rather than left as a heterogeneous map; see DESIGN.md for why a
// typed struct was chosen over a tagged union.
type Preset struct {
	FFmpegPath       string
	FFprobePath      string
	TargetWidth      int
	TargetHeight     int
	CropSamples      int
	CRFOrRate        int // integer-vs-float distinction matters: the one-pass decision compares this as an integer.
	AudioBitrateKbps int
	X265Params       string
	AddX265Params    string
	VideoFilter      string
	ScaleFilter      string
	SharpenFilter    string
	OnePass          bool

	// Raw carries every key=value pair that survived section merging, for
	// keys the typed fields above don't model (forward-compatible passthrough).
	Raw map[string]string
}

// PresetFile is a parsed preset configuration: one baseline section plus
// zero or more preset_<name> sections that override it (spec §6).
type PresetFile struct {
	baseline map[string]string
	presets  map[string]map[string]string
}

// LoadPresetFile reads and parses an INI-like preset file.
func LoadPresetFile(path string) (*PresetFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPresetFileUnreadable, path, err)
	}
	defer f.Close()
	return ParsePresetFile(f)
}

// ParsePresetFile parses an INI-like preset document from r.
func ParsePresetFile(r io.Reader) (*PresetFile, error) {
	pf := &PresetFile{
		baseline: map[string]string{},
		presets:  map[string]map[string]string{},
	}

	var current map[string]string
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.TrimSpace(line[1 : len(line)-1])
			if name == baselineSection {
				current = pf.baseline
				continue
			}
			if !strings.HasPrefix(name, presetSectionPrefix) {
				return nil, fmt.Errorf("%w: line %d: unrecognized section [%s]", ErrPresetFileUnreadable, lineNo, name)
			}
			presetName := strings.TrimPrefix(name, presetSectionPrefix)
			pf.presets[presetName] = map[string]string{}
			current = pf.presets[presetName]
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("%w: line %d: key=value outside any section", ErrPresetFileUnreadable, lineNo)
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: line %d: expected key=value, got %q", ErrPresetFileUnreadable, lineNo, line)
		}
		current[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPresetFileUnreadable, err)
	}
	return pf, nil
}

// Names returns the sorted list of preset names (without the preset_ prefix).
func (pf *PresetFile) Names() []string {
	names := make([]string, 0, len(pf.presets))
	for name := range pf.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve merges baseline with preset_<name> (the latter overriding on key
// collision) and coerces the merged map into a typed Preset.
func (pf *PresetFile) Resolve(name string) (*Preset, error) {
	overrides, ok := pf.presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	merged := make(map[string]string, len(pf.baseline)+len(overrides))
	for k, v := range pf.baseline {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}

	p := &Preset{Raw: merged}
	p.FFmpegPath = stringOr(merged, "ffmpeg_path", "ffmpeg")
	p.FFprobePath = stringOr(merged, "ffprobe_path", "ffprobe")
	p.VideoFilter = merged["video_filter"]
	p.ScaleFilter = merged["scale_filter"]
	p.SharpenFilter = merged["sharpen_filter"]
	p.X265Params = merged["x265_params"]
	p.AddX265Params = merged["add_x265_params"]

	var err error
	if p.TargetWidth, err = intOr(merged, "target_width", 0); err != nil {
		return nil, err
	}
	if p.TargetHeight, err = intOr(merged, "target_height", 0); err != nil {
		return nil, err
	}
	if p.CropSamples, err = intOr(merged, "crop_samples", 5); err != nil {
		return nil, err
	}
	if p.CRFOrRate, err = intOr(merged, "crf_or_rate", 0); err != nil {
		return nil, err
	}
	if p.AudioBitrateKbps, err = intOr(merged, "audio_bitrate_kbps", 128); err != nil {
		return nil, err
	}
	if p.OnePass, err = boolOr(merged, "one_pass", false); err != nil {
		return nil, err
	}

	return p, nil
}

func stringOr(m map[string]string, key, def string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return def
}

func intOr(m map[string]string, key string, def int) (int, error) {
	v, ok := m[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: key %q: expected integer, got %q", ErrPresetFileUnreadable, key, v)
	}
	return n, nil
}

func boolOr(m map[string]string, key string, def bool) (bool, error) {
	v, ok := m[key]
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: key %q: expected boolean, got %q", ErrPresetFileUnreadable, key, v)
	}
	return b, nil
}

// OneIsOnePass reports whether the command builder should emit a one-pass
// invocation (spec §4.5): preset one_pass is true, or crf_or_rate <= 50.
func (p *Preset) IsOnePass() bool {
	return p.OnePass || p.CRFOrRate <= 50
}
