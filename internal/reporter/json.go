package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// JSONReporter emits one NDJSON object per event, for machine consumption
// by a wrapping supervisor (spec §1 "wrapper shell scripts" collaborator).
type JSONReporter struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONReporter creates a JSON reporter writing to stdout.
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{writer: os.Stdout}
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{writer: w}
}

func (r *JSONReporter) write(v map[string]any) {
	v["timestamp"] = time.Now().Unix()
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) BatchStarted(info BatchStartInfo) {
	r.write(map[string]any{"type": "batch_started", "total_jobs": info.TotalJobs, "output_dir": info.OutputDir})
}

func (r *JSONReporter) JobStarted(info JobStartInfo) {
	r.write(map[string]any{
		"type": "job_started", "job": info.JobName, "output_file": info.OutputFile,
		"duration": info.Duration, "resolution": info.Resolution, "dynamic_range": info.DynamicRange,
	})
}

func (r *JSONReporter) Stage(update StageUpdate) {
	r.write(map[string]any{"type": "stage", "job": update.JobName, "stage": update.Stage, "message": update.Message})
}

func (r *JSONReporter) CropDetected(jobName, crop string) {
	r.write(map[string]any{"type": "crop_detected", "job": jobName, "crop": crop})
}

func (r *JSONReporter) Warning(jobName, message string) {
	r.write(map[string]any{"type": "warning", "job": jobName, "message": message})
}

func (r *JSONReporter) JobSkipped(jobName, reason string) {
	r.write(map[string]any{"type": "job_skipped", "job": jobName, "reason": reason})
}

func (r *JSONReporter) JobFailed(jobName, message string) {
	r.write(map[string]any{"type": "job_failed", "job": jobName, "message": message})
}

func (r *JSONReporter) JobCompleted(info JobCompleteInfo) {
	r.write(map[string]any{
		"type": "job_completed", "job": info.JobName,
		"input_size": info.InputSize, "output_size": info.OutputSize,
		"elapsed_seconds": int64(info.Elapsed.Seconds()),
	})
}

func (r *JSONReporter) BatchCompleted(summary BatchSummary) {
	results := make([]map[string]any, len(summary.Results))
	for i, res := range summary.Results {
		results[i] = map[string]any{"filename": res.Filename, "status": res.Status, "reduction": res.Reduction}
	}
	r.write(map[string]any{
		"type": "batch_completed", "completed": summary.Completed, "failed": summary.Failed,
		"skipped": summary.Skipped, "elapsed_seconds": int64(summary.Elapsed.Seconds()), "results": results,
	})
}

func (r *JSONReporter) Verbose(message string) {
	r.write(map[string]any{"type": "verbose", "message": message})
}
