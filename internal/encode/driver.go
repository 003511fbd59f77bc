// Package encode runs the per-input ANALYZE -> CROP -> PLAN -> PASS1 ->
// MEASURE -> PASS2 -> COMMIT state machine (spec §4.6) that turns one
// claimed input into a committed output, reporting progress through
// internal/reporter and leaving claim bookkeeping to internal/claim.
package encode

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/five82/distenc/internal/claim"
	"github.com/five82/distenc/internal/config"
	"github.com/five82/distenc/internal/crop"
	drerrors "github.com/five82/distenc/internal/errors"
	"github.com/five82/distenc/internal/ffmpeg"
	"github.com/five82/distenc/internal/job"
	"github.com/five82/distenc/internal/probe"
	"github.com/five82/distenc/internal/reporter"
	"github.com/five82/distenc/internal/util"
	"github.com/five82/distenc/internal/validation"
	"github.com/five82/distenc/internal/zone"
)

// DefaultPassTimeout bounds a single ffmpeg pass invocation. It exists as a
// backstop against a hung child process, not as a real encode-time budget —
// a two-hour 4K source can legitimately take longer than this under a slow
// preset, so callers needing that should raise it via WithPassTimeout.
const DefaultPassTimeout = 24 * time.Hour

// Driver runs one input through the encode state machine under a fixed
// preset, zone configuration, and claim/scratch directory pair.
type Driver struct {
	Preset      *config.Preset
	ZoneConfig  config.ZoneConfig
	TokenDir    string
	ScratchDir  string
	Reporter    reporter.Reporter
	PassTimeout time.Duration
}

// NewDriver constructs a Driver with the default pass timeout.
func NewDriver(preset *config.Preset, zc config.ZoneConfig, tokenDir, scratchDir string, rep reporter.Reporter) *Driver {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	return &Driver{
		Preset:      preset,
		ZoneConfig:  zc,
		TokenDir:    tokenDir,
		ScratchDir:  scratchDir,
		Reporter:    rep,
		PassTimeout: DefaultPassTimeout,
	}
}

// Result is what Run reports back to the scheduler for the batch summary.
type Result struct {
	Status     job.Status
	InputSize  uint64
	OutputSize uint64
	Elapsed    time.Duration
}

// outputAudioTracks is fixed: every command builder variant maps exactly
// one audio stream (0:a:0) down to a single libopus output track (spec §6).
const outputAudioTracks = 1

// Run claims inputPath, drives it through every stage, and commits or fails
// the claim depending on the outcome. A lost claim race or an
// already-committed output returns job.StatusSkipped with a nil error.
func (d *Driver) Run(ctx context.Context, inputPath, outputPath string) (Result, error) {
	jobName := filepath.Base(inputPath)

	c, outcome, err := claim.Attempt(d.TokenDir, d.ScratchDir, outputPath, inputPath)
	if err != nil && !drerrors.IsClaimLost(err) {
		d.Reporter.JobFailed(jobName, err.Error())
		return Result{Status: job.StatusFailed}, err
	}
	if outcome == claim.NotClaimed {
		d.Reporter.JobSkipped(jobName, "already committed or claimed by another worker")
		return Result{Status: job.StatusSkipped}, nil
	}

	startTime := time.Now()
	committed := false
	defer func() {
		if committed {
			_ = c.Complete()
		} else {
			_ = c.Fail()
		}
	}()

	info, err := probe.Analyze(ctx, d.Preset.FFprobePath, inputPath, func(format string, args ...any) {
		d.Reporter.Warning(jobName, fmt.Sprintf(format, args...))
	})
	if err != nil {
		d.Reporter.JobFailed(jobName, err.Error())
		return Result{Status: job.StatusFailed}, err
	}
	if info == nil || info.DurationS == nil {
		durErr := drerrors.NewDurationMissingError(inputPath)
		d.Reporter.JobFailed(jobName, durErr.Error())
		return Result{Status: job.StatusFailed}, durErr
	}
	d.Reporter.Stage(reporter.StageUpdate{JobName: jobName, Stage: "ANALYZE", Message: "duration, frame rate, and HDR side data read"})

	rect, err := crop.Detect(ctx, crop.Options{
		FFmpegPath:   d.Preset.FFmpegPath,
		InputPath:    inputPath,
		DurationS:    *info.DurationS,
		TargetWidth:  d.Preset.TargetWidth,
		TargetHeight: d.Preset.TargetHeight,
		Samples:      d.Preset.CropSamples,
	})
	if err != nil {
		d.Reporter.JobFailed(jobName, err.Error())
		return Result{Status: job.StatusFailed}, err
	}
	info.Crop = rect
	d.Reporter.Stage(reporter.StageUpdate{JobName: jobName, Stage: "CROP", Message: "bounding box sampled"})
	d.Reporter.CropDetected(jobName, fmt.Sprintf("%dx%d+%d+%d", rect.W, rect.H, rect.X, rect.Y))

	d.Reporter.JobStarted(reporter.JobStartInfo{
		JobName:      jobName,
		OutputFile:   filepath.Base(outputPath),
		Duration:     util.FormatDuration(*info.DurationS),
		Resolution:   fmt.Sprintf("%dx%d", rect.W, rect.H),
		DynamicRange: dynamicRangeLabel(info.HasHDRDV),
	})

	zones := zone.Plan(*info, d.ZoneConfig, jobName)
	d.Reporter.Stage(reporter.StageUpdate{JobName: jobName, Stage: "PLAN", Message: planMessage(zones)})

	if d.Preset.IsOnePass() {
		args := ffmpeg.BuildOnePassArgs(d.Preset, *info, zones, outputPath)
		d.Reporter.Stage(reporter.StageUpdate{JobName: jobName, Stage: "PASS1", Message: "single-pass CRF encode"})
		if _, err := ffmpeg.RunPass(ctx, d.PassTimeout, d.Preset.FFmpegPath, args, c.Writer()); err != nil {
			d.Reporter.JobFailed(jobName, err.Error())
			return Result{Status: job.StatusFailed}, err
		}
	} else {
		analysisArgs := ffmpeg.BuildAnalysisPassArgs(d.Preset, *info, zones, c.ScratchPrefix)
		d.Reporter.Stage(reporter.StageUpdate{JobName: jobName, Stage: "PASS1", Message: "bitrate statistics and loudness analysis"})
		if _, err := ffmpeg.RunPass(ctx, d.PassTimeout, d.Preset.FFmpegPath, analysisArgs, c.Writer()); err != nil {
			d.Reporter.JobFailed(jobName, err.Error())
			return Result{Status: job.StatusFailed}, err
		}

		d.Reporter.Stage(reporter.StageUpdate{JobName: jobName, Stage: "MEASURE", Message: "reading loudness measurement"})
		measured, err := ffmpeg.ParseLoudnessLog(c.TokenPath)
		if err != nil {
			measured = ffmpeg.DefaultLoudness()
			d.Reporter.Warning(jobName, "loudness log unreadable, falling back to defaults: "+err.Error())
		}

		twoPassArgs := ffmpeg.BuildTwoPassArgs(d.Preset, *info, zones, c.ScratchPrefix, measured, outputPath)
		d.Reporter.Stage(reporter.StageUpdate{JobName: jobName, Stage: "PASS2", Message: "final encode"})
		if _, err := ffmpeg.RunPass(ctx, d.PassTimeout, d.Preset.FFmpegPath, twoPassArgs, c.Writer()); err != nil {
			d.Reporter.JobFailed(jobName, err.Error())
			return Result{Status: job.StatusFailed}, err
		}
	}

	if !util.FileExists(outputPath) {
		commitErr := drerrors.NewIOError(fmt.Sprintf("final pass exited 0 but %s was not written", outputPath), nil)
		d.Reporter.JobFailed(jobName, commitErr.Error())
		return Result{Status: job.StatusFailed}, commitErr
	}
	d.Reporter.Stage(reporter.StageUpdate{JobName: jobName, Stage: "COMMIT", Message: "output written"})
	committed = true

	d.runValidation(jobName, outputPath, *info)

	elapsed := time.Since(startTime)
	inputSize, _ := util.GetFileSize(inputPath)
	outputSize, _ := util.GetFileSize(outputPath)
	d.Reporter.JobCompleted(reporter.JobCompleteInfo{
		JobName:    jobName,
		InputSize:  inputSize,
		OutputSize: outputSize,
		Elapsed:    elapsed,
	})

	return Result{Status: job.StatusCompleted, InputSize: inputSize, OutputSize: outputSize, Elapsed: elapsed}, nil
}

// runValidation performs the non-gating sanity check against the committed
// output. Any mismatch is reported as a warning; it never reopens the
// already-committed job.
func (d *Driver) runValidation(jobName, outputPath string, info job.VideoInfo) {
	opts := validation.OptionsFromJob(info, outputAudioTracks)
	result, err := validation.ValidateOutputVideo(d.Preset.FFprobePath, outputPath, opts)
	if err != nil {
		d.Reporter.Warning(jobName, "post-commit validation could not run: "+err.Error())
		return
	}
	if !result.IsValid() {
		for _, failure := range result.Failures() {
			d.Reporter.Warning(jobName, "post-commit validation: "+failure)
		}
	}
}

func dynamicRangeLabel(hasHDRDV bool) string {
	if hasHDRDV {
		return "HDR"
	}
	return "SDR"
}

func planMessage(zones string) string {
	if zones == "" {
		return "no zone overrides"
	}
	return "zones=" + zones
}
