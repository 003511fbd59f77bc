// Package job defines the per-input analysis result and encoding-job
// lifecycle record shared across the probe, crop, zone, and encoder
// driver packages (spec §3).
package job

import "time"

// Chapter is a chapter boundary; EndS is absent (nil) when the probe tool
// did not report one.
type Chapter struct {
	StartS float64
	EndS   *float64
}

// VideoInfo is the per-input analysis result (spec §3).
type VideoInfo struct {
	Path string

	// DurationS is positive when known; nil means the probe could not
	// determine it (fatal for the job, spec §4.2).
	DurationS *float64

	// FrameRateFPS is positive when known; fractional rates like
	// 24000/1001 are permitted (stored as the reduced decimal).
	FrameRateFPS *float64

	HasHDRDV bool

	Chapters []Chapter

	// TextSubtitleIndices holds stream indices whose codec is one of the
	// text-based subtitle families.
	TextSubtitleIndices []int

	// Crop is filled after crop detection; zero value means "not yet run".
	Crop Rect
}

// Rect is a crop rectangle (w, h, x, y); all non-negative, W>0 and H>0 once set.
type Rect struct {
	W, H, X, Y int
}

// IsZero reports whether the rectangle has never been set.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Contains reports whether r fully encloses other, used to check the crop
// union invariant in tests (spec §8 "Crop union").
func (r Rect) Contains(other Rect) bool {
	return r.X <= other.X && r.Y <= other.Y &&
		r.X+r.W >= other.X+other.W && r.Y+r.H >= other.Y+other.H
}

// Status is the EncodingJob lifecycle state (spec §3).
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusCompleted:
		return "COMPLETED"
	case StatusFailed:
		return "FAILED"
	case StatusSkipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}

// EncodingJob is the lifecycle record for one input->output pair (spec §3).
type EncodingJob struct {
	InputPath  string
	OutputPath string

	// TokenPath and ScratchPrefix are set only after a successful claim.
	TokenPath     string
	ScratchPrefix string

	Status       Status
	StartTime    time.Time
	EndTime      time.Time
	ErrorMessage string

	Info VideoInfo
}

// NewEncodingJob constructs a PENDING job for one input/output pair.
func NewEncodingJob(inputPath, outputPath string) *EncodingJob {
	return &EncodingJob{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Status:     StatusPending,
		Info:       VideoInfo{Path: inputPath},
	}
}

// Fail transitions the job to FAILED, recording the error message.
func (j *EncodingJob) Fail(err error) {
	j.Status = StatusFailed
	if err != nil {
		j.ErrorMessage = err.Error()
	}
	j.EndTime = time.Now()
}

// Complete transitions the job to COMPLETED.
func (j *EncodingJob) Complete() {
	j.Status = StatusCompleted
	j.EndTime = time.Now()
}

// Skip transitions the job to SKIPPED.
func (j *EncodingJob) Skip() {
	j.Status = StatusSkipped
	j.EndTime = time.Now()
}

// Start transitions the job to IN_PROGRESS and records the start time.
func (j *EncodingJob) Start() {
	j.Status = StatusInProgress
	j.StartTime = time.Now()
}
