package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/distenc/internal/config"
	"github.com/five82/distenc/internal/encode"
	"github.com/five82/distenc/internal/job"
	"github.com/five82/distenc/internal/reporter"
	"github.com/five82/distenc/internal/util"
)

// Driver runs one claimed input through the encode state machine and
// reports a Result back to the scheduler. Satisfied by *encode.Driver;
// abstracted so tests can substitute a fake without spawning ffmpeg/ffprobe.
type Driver interface {
	Run(ctx context.Context, inputPath, outputPath string) (encode.Result, error)
}

// Scheduler enumerates input paths into job templates, bounds concurrent
// execution to Jobs workers, and aggregates outcomes into a batch summary
// (spec §4.8).
type Scheduler struct {
	Driver    Driver
	Reporter  reporter.Reporter
	OutputDir string
	Jobs      int
}

// New constructs a Scheduler.
func New(driver Driver, rep reporter.Reporter, outputDir string, jobsConcurrency int) *Scheduler {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	if jobsConcurrency < 1 {
		jobsConcurrency = 1
	}
	return &Scheduler{Driver: driver, Reporter: rep, OutputDir: outputDir, Jobs: jobsConcurrency}
}

// activeJob is one row of the in-flight jobs table (spec §4.8 "register in
// the active-jobs table ... unregister in a guaranteed-cleanup block").
type activeJob struct {
	InputPath string
	StartedAt time.Time
}

// Run builds one EncodingJob per input, runs up to s.Jobs concurrently via
// an errgroup, and returns the aggregate BatchSummary. It never returns a
// non-nil error itself — per-job failure is carried in the summary, never
// escalated to fail the whole batch (spec §7 "job failure never fails the
// batch").
func (s *Scheduler) Run(ctx context.Context, inputs []string) reporter.BatchSummary {
	start := time.Now()

	jobs := make([]*job.EncodingJob, len(inputs))
	for i, input := range inputs {
		output := util.ResolveOutputPath(input, s.OutputDir, "")
		jobs[i] = job.NewEncodingJob(input, output)
	}

	s.Reporter.BatchStarted(reporter.BatchStartInfo{TotalJobs: len(jobs), OutputDir: s.OutputDir})

	var (
		mu        sync.Mutex
		active    = map[string]activeJob{}
		results   = make([]reporter.JobResult, len(jobs))
		completed int
		failed    int
		skipped   int
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.Jobs)

	for i, j := range jobs {
		i, j := i, j
		eg.Go(func() error {
			name := filepath.Base(j.InputPath)

			select {
			case <-egCtx.Done():
				j.Skip()
				mu.Lock()
				skipped++
				results[i] = reporter.JobResult{Filename: name, Status: j.Status.String()}
				mu.Unlock()
				s.Reporter.JobSkipped(name, "shutdown requested before claim")
				return nil
			default:
			}

			mu.Lock()
			active[j.InputPath] = activeJob{InputPath: j.InputPath, StartedAt: time.Now()}
			mu.Unlock()
			defer func() {
				mu.Lock()
				delete(active, j.InputPath)
				mu.Unlock()
			}()

			j.Start()
			res, err := s.Driver.Run(egCtx, j.InputPath, j.OutputPath)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil && res.Status == job.StatusSkipped:
				j.Skip()
				skipped++
			case err != nil:
				j.Fail(err)
				failed++
			default:
				j.Complete()
				completed++
			}

			reduction := 0.0
			if res.InputSize > 0 && res.OutputSize > 0 {
				reduction = (1 - float64(res.OutputSize)/float64(res.InputSize)) * 100
			}
			results[i] = reporter.JobResult{Filename: name, Status: j.Status.String(), Reduction: reduction}
			return nil
		})
	}

	_ = eg.Wait() // per-job errors never escalate; see doc comment above

	summary := reporter.BatchSummary{
		Completed: completed,
		Failed:    failed,
		Skipped:   skipped,
		Elapsed:   time.Since(start),
		Results:   results,
	}
	s.Reporter.BatchCompleted(summary)
	return summary
}

// PrepareDirectories ensures the output, scratch, and token directories
// exist, are writable, and have enough free space before the batch starts
// (spec §4.8 "create output/scratch/token directories"). warn receives one
// call per directory with low free space; it may be nil. Low disk space is
// a warning, not a hard failure: a large batch can still make progress on
// smaller inputs even if it eventually runs the volume dry.
func PrepareDirectories(cfg *config.Config, warn func(format string, args ...any)) error {
	for _, dir := range []string{cfg.OutputDir, cfg.ScratchDir, cfg.TokenDir} {
		if err := util.EnsureDirectory(dir); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
		if err := util.EnsureDirectoryWritable(dir); err != nil {
			return fmt.Errorf("verify directory %s: %w", dir, err)
		}
		util.CheckDiskSpace(dir, warn)
	}
	return nil
}
