package reporter

// CompositeReporter fans out every event to a list of reporters, letting
// the CLI drive a terminal view and a machine-readable sink at once.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (c *CompositeReporter) BatchStarted(info BatchStartInfo) {
	for _, r := range c.reporters {
		r.BatchStarted(info)
	}
}

func (c *CompositeReporter) JobStarted(info JobStartInfo) {
	for _, r := range c.reporters {
		r.JobStarted(info)
	}
}

func (c *CompositeReporter) Stage(update StageUpdate) {
	for _, r := range c.reporters {
		r.Stage(update)
	}
}

func (c *CompositeReporter) CropDetected(jobName, crop string) {
	for _, r := range c.reporters {
		r.CropDetected(jobName, crop)
	}
}

func (c *CompositeReporter) Warning(jobName, message string) {
	for _, r := range c.reporters {
		r.Warning(jobName, message)
	}
}

func (c *CompositeReporter) JobSkipped(jobName, reason string) {
	for _, r := range c.reporters {
		r.JobSkipped(jobName, reason)
	}
}

func (c *CompositeReporter) JobFailed(jobName, message string) {
	for _, r := range c.reporters {
		r.JobFailed(jobName, message)
	}
}

func (c *CompositeReporter) JobCompleted(info JobCompleteInfo) {
	for _, r := range c.reporters {
		r.JobCompleted(info)
	}
}

func (c *CompositeReporter) BatchCompleted(summary BatchSummary) {
	for _, r := range c.reporters {
		r.BatchCompleted(summary)
	}
}

func (c *CompositeReporter) Verbose(message string) {
	for _, r := range c.reporters {
		r.Verbose(message)
	}
}
