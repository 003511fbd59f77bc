package validation

// Result is a non-gating sanity check of a committed output against the
// job's input analysis, crop rectangle, and zone plan. Failures here are
// reported as warnings; they never reopen a COMPLETED job.
type Result struct {
	IsHEVC                   bool
	Is10Bit                  bool
	IsCropCorrect            bool
	IsDurationCorrect        bool
	IsHDRCorrect             bool
	IsAudioOpus              bool
	IsAudioTrackCountCorrect bool
	IsSyncPreserved          bool

	// Details
	CodecName          string
	BitDepth           *uint8
	ActualDimensions   *[2]uint32
	ExpectedDimensions *[2]uint32
	CropMessage        string
	ActualDuration     *float64
	ExpectedDuration   *float64
	DurationMessage    string
	ExpectedHDR        *bool
	ActualHDR          *bool
	HDRMessage         string
	AudioCodecs        []string
	AudioMessage       string
	SyncDriftMs        *float64
	SyncMessage        string
}

// Step is a single named check and whether it passed.
type Step struct {
	Name    string
	Passed  bool
	Details string
}

// IsValid reports whether every check passed.
func (r *Result) IsValid() bool {
	return r.IsHEVC &&
		r.Is10Bit &&
		r.IsCropCorrect &&
		r.IsDurationCorrect &&
		r.IsHDRCorrect &&
		r.IsAudioOpus &&
		r.IsAudioTrackCountCorrect &&
		r.IsSyncPreserved
}

// Steps returns every check performed, in report order.
func (r *Result) Steps() []Step {
	return []Step{
		{Name: "Video codec", Passed: r.IsHEVC, Details: formatCodecDetails(r.CodecName, r.IsHEVC)},
		{Name: "Bit depth", Passed: r.Is10Bit, Details: formatBitDepthDetails(r.BitDepth)},
		{Name: "Crop dimensions", Passed: r.IsCropCorrect, Details: r.CropMessage},
		{Name: "Video duration", Passed: r.IsDurationCorrect, Details: r.DurationMessage},
		{Name: "HDR/SDR status", Passed: r.IsHDRCorrect, Details: r.HDRMessage},
		{Name: "Audio tracks", Passed: r.IsAudioOpus && r.IsAudioTrackCountCorrect, Details: r.AudioMessage},
		{Name: "Audio/video sync", Passed: r.IsSyncPreserved, Details: r.SyncMessage},
	}
}

// Failures returns "name: details" for every failed check.
func (r *Result) Failures() []string {
	var failures []string
	for _, step := range r.Steps() {
		if !step.Passed {
			failures = append(failures, step.Name+": "+step.Details)
		}
	}
	return failures
}

func formatCodecDetails(codecName string, passed bool) string {
	if passed {
		return "HEVC (" + codecName + ")"
	}
	if codecName != "" {
		return "Expected HEVC, got " + codecName
	}
	return "Unknown codec"
}

func formatBitDepthDetails(bitDepth *uint8) string {
	if bitDepth == nil {
		return "Unknown bit depth"
	}
	switch *bitDepth {
	case 8:
		return "8-bit"
	case 10:
		return "10-bit"
	case 12:
		return "12-bit"
	default:
		return "Unknown bit depth"
	}
}
