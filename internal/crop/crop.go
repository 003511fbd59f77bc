// Package crop samples N timestamps across an input, invokes the transcoder
// in crop-detection mode at each, and combines the surviving rectangles
// into the tight bounding union (spec §4.3).
package crop

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	drerrors "github.com/five82/distenc/internal/errors"
	"github.com/five82/distenc/internal/job"
	"github.com/five82/distenc/internal/process"
	"github.com/five82/distenc/internal/worker"
)

// DefaultSampleTimeout is the process runner's default deadline for each
// crop-sample call (spec §5).
const DefaultSampleTimeout = 60 * time.Second

// sampleFrames is the number of frames sampled at each crop-detection timestamp.
const sampleFrames = 5

// maxConcurrentSamples bounds how many ffmpeg cropdetect samples run at once.
const maxConcurrentSamples = 8

var cropRegex = regexp.MustCompile(`crop=(\d+):(\d+):(\d+):(\d+)`)

// Options configures one crop-detection run.
type Options struct {
	FFmpegPath   string
	InputPath    string
	DurationS    float64
	TargetWidth  int
	TargetHeight int
	Samples      int
}

// Detect samples Options.Samples timestamps and returns the union bounding
// box of every successfully parsed rectangle (spec §4.3).
func Detect(ctx context.Context, opts Options) (job.Rect, error) {
	n := opts.Samples
	if n <= 0 {
		n = 1
	}

	type sampleResult struct {
		rect job.Rect
		ok   bool
	}

	results := make([]sampleResult, n)
	sem := worker.NewSemaphore(maxConcurrentSamples)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			select {
			case <-sem.Chan():
				defer sem.Release()
			case <-ctx.Done():
				return
			}

			ts := float64(idx) * opts.DurationS / float64(n)
			rect, err := sampleAt(ctx, opts.FFmpegPath, opts.InputPath, ts, opts.TargetWidth, opts.TargetHeight)
			if err == nil {
				results[idx] = sampleResult{rect: rect, ok: true}
			}
		}(i)
	}
	wg.Wait()

	var union job.Rect
	found := false
	for _, r := range results {
		if !r.ok {
			continue
		}
		if !found {
			union = r.rect
			found = true
			continue
		}
		union = unionRect(union, r.rect)
	}

	if !found {
		return job.Rect{}, drerrors.NewCropDetectFailedError(opts.InputPath)
	}
	return union, nil
}

// unionRect returns the smallest rectangle enclosing both a and b (spec §4.3 step 4).
func unionRect(a, b job.Rect) job.Rect {
	x := min(a.X, b.X)
	y := min(a.Y, b.Y)
	right := max(a.X+a.W, b.X+b.W)
	bottom := max(a.Y+a.H, b.Y+b.H)
	return job.Rect{X: x, Y: y, W: right - x, H: bottom - y}
}

// sampleAt runs one cropdetect sample at the given timestamp and returns the
// last crop=w:h:x:y emission in the tool's diagnostic output.
func sampleAt(ctx context.Context, ffmpegPath, inputPath string, startTime float64, targetWidth, targetHeight int) (job.Rect, error) {
	scale := fmt.Sprintf("scale=%d:%d,cropdetect=limit=24:round=2:reset=1", targetWidth, targetHeight)
	var stderr strings.Builder

	_, err := process.RunStreaming(ctx, DefaultSampleTimeout, nil, &stderr, ffmpegPath,
		"-hide_banner",
		"-ss", fmt.Sprintf("%.3f", startTime),
		"-i", inputPath,
		"-vframes", strconv.Itoa(sampleFrames),
		"-vf", scale,
		"-f", "null",
		"-",
	)
	// ffmpeg writing to a null sink typically exits non-zero on short reads
	// near EOF; what matters is whether cropdetect printed anything usable.
	_ = err

	return lastCropMatch(stderr.String())
}

// lastCropMatch scans diagnostic output line by line and returns the last
// crop=w:h:x:y emission, per spec §4.3 step 2 ("parse the last emission").
func lastCropMatch(output string) (job.Rect, error) {
	var last job.Rect
	found := false

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		m := cropRegex.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		w, errW := strconv.Atoi(m[1])
		h, errH := strconv.Atoi(m[2])
		x, errX := strconv.Atoi(m[3])
		y, errY := strconv.Atoi(m[4])
		if errW != nil || errH != nil || errX != nil || errY != nil || w <= 0 || h <= 0 {
			continue
		}
		last = job.Rect{W: w, H: h, X: x, Y: y}
		found = true
	}

	if !found {
		return job.Rect{}, fmt.Errorf("no crop emission found")
	}
	return last, nil
}
