// Package reporter renders job and batch progress (spec §2 "the parts
// with real ... protocol design" exclude UI, but the CLI still needs to
// show its work; grounded on the teacher's event-struct reporter shape).
package reporter

import "time"

// BatchStartInfo describes a batch run about to begin.
type BatchStartInfo struct {
	TotalJobs int
	OutputDir string
}

// JobStartInfo is emitted once a job has been claimed and analysis begins.
type JobStartInfo struct {
	JobName      string
	OutputFile   string
	Duration     string
	Resolution   string
	DynamicRange string
}

// StageUpdate marks entry into one of the encoder driver's named stages
// (ANALYZE, CROP, PLAN, PASS1, MEASURE, PASS2, COMMIT — spec §4.6).
type StageUpdate struct {
	JobName string
	Stage   string
	Message string
}

// JobCompleteInfo is emitted when a job reaches COMMIT successfully.
type JobCompleteInfo struct {
	JobName    string
	InputSize  uint64
	OutputSize uint64
	Elapsed    time.Duration
}

// JobResult is one row of the final batch summary table.
type JobResult struct {
	Filename  string
	Status    string
	Reduction float64
}

// BatchSummary is emitted once after every job has been accounted for
// (spec §4.8 "summarize").
type BatchSummary struct {
	Completed int
	Failed    int
	Skipped   int
	Elapsed   time.Duration
	Results   []JobResult
}
