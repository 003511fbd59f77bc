package reporter

// Reporter receives job and batch lifecycle events from the scheduler and
// the encoder driver.
type Reporter interface {
	BatchStarted(info BatchStartInfo)
	JobStarted(info JobStartInfo)
	Stage(update StageUpdate)
	CropDetected(jobName, crop string)
	Warning(jobName, message string)
	JobSkipped(jobName, reason string)
	JobFailed(jobName, message string)
	JobCompleted(info JobCompleteInfo)
	BatchCompleted(summary BatchSummary)
	Verbose(message string)
}

// NullReporter discards every event; used by tests and library callers
// that don't want terminal output.
type NullReporter struct{}

func (NullReporter) BatchStarted(BatchStartInfo)     {}
func (NullReporter) JobStarted(JobStartInfo)         {}
func (NullReporter) Stage(StageUpdate)               {}
func (NullReporter) CropDetected(string, string)     {}
func (NullReporter) Warning(string, string)          {}
func (NullReporter) JobSkipped(string, string)       {}
func (NullReporter) JobFailed(string, string)        {}
func (NullReporter) JobCompleted(JobCompleteInfo)    {}
func (NullReporter) BatchCompleted(BatchSummary)     {}
func (NullReporter) Verbose(string)                  {}
