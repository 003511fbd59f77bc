package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestJSONReporter_JobCompletedEmitsOneLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporterWithWriter(&buf)

	r.JobCompleted(JobCompleteInfo{JobName: "show.mkv", InputSize: 2000, OutputSize: 1000, Elapsed: 90 * time.Second})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}

	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if event["type"] != "job_completed" || event["job"] != "show.mkv" {
		t.Errorf("event = %+v, want type=job_completed job=show.mkv", event)
	}
}

func TestJSONReporter_BatchCompletedIncludesResults(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporterWithWriter(&buf)

	r.BatchCompleted(BatchSummary{
		Completed: 2, Failed: 1, Skipped: 0,
		Results: []JobResult{{Filename: "a.mkv", Status: "COMPLETED", Reduction: 40.5}},
	})

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	results, ok := event["results"].([]any)
	if !ok || len(results) != 1 {
		t.Fatalf("event[results] = %v, want one entry", event["results"])
	}
}

func TestCompositeReporter_FansOutToAll(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	c := NewCompositeReporter(NewJSONReporterWithWriter(&buf1), NewJSONReporterWithWriter(&buf2))

	c.Warning("x.mkv", "low disk space")

	if buf1.Len() == 0 || buf2.Len() == 0 {
		t.Error("CompositeReporter did not fan out to both reporters")
	}
}
