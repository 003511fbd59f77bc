// Package scheduler enumerates input files into job templates, runs them
// under bounded concurrency with graceful shutdown, and aggregates the
// per-job outcomes into a batch summary (spec §4.8).
package scheduler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/five82/distenc/internal/util"
)

// ErrInvalidJobsFlag indicates -j/--jobs was neither a positive integer nor
// the literal string "auto".
var ErrInvalidJobsFlag = errors.New("invalid --jobs value")

// autoJobsMemFraction is the share of currently available system memory the
// auto estimator is willing to commit to in-flight encoder processes.
const autoJobsMemFraction = 0.7

// encoderOverheadBytes approximates one libx265 process's working set beyond
// its decoded frame buffers.
const encoderOverheadBytes = 1 << 30

// framesInFlightPerJob approximates how many decoded frames one job keeps
// resident at once (lookahead buffer plus a few in-flight reference frames).
const framesInFlightPerJob = 32

// ResolveJobs turns the -j/--jobs flag value into a worker count. A literal
// positive integer passes through unchanged, per spec §6. The literal string
// "auto" is resolved from available system memory and the preset's target
// frame size instead, capped by logical CPU count.
func ResolveJobs(raw string, targetWidth, targetHeight int) (int, error) {
	if raw != "auto" {
		return parsePositiveInt(raw)
	}
	return AutoJobs(targetWidth, targetHeight), nil
}

// AutoJobs estimates a safe worker count for the given target frame size.
// Returns at least 1, capped at the number of physical CPU cores: libx265's
// own thread pool already saturates a core's SMT siblings, so sizing the job
// count off logical cores would oversubscribe them.
func AutoJobs(targetWidth, targetHeight int) int {
	chunkBytes := JobMemoryBytes(targetWidth, targetHeight)
	permits := util.MaxPermitsForMemory(chunkBytes, autoJobsMemFraction)

	if cores := util.PhysicalCores(); permits > cores {
		permits = cores
	}
	return max(permits, 1)
}

// JobMemoryBytes estimates the memory footprint of one in-flight job at the
// given target frame size: a 10-bit 4:2:0 frame buffer sized for the
// lookahead/reference window plus fixed per-process encoder overhead.
func JobMemoryBytes(targetWidth, targetHeight int) uint64 {
	frameSize := uint64(targetWidth) * uint64(targetHeight) * 3
	return frameSize*framesInFlightPerJob + encoderOverheadBytes
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is neither a positive integer nor \"auto\"", ErrInvalidJobsFlag, raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d is not positive", ErrInvalidJobsFlag, n)
	}
	return n, nil
}
