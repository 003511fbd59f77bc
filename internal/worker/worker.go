// Package worker provides a counting semaphore and progress types shared by
// the crop detector's concurrent sampling and the batch scheduler's bounded
// job concurrency.
package worker

// Semaphore provides a counting semaphore for controlling concurrency. It
// bounds how many crop-detection samples or encoding jobs run at once.
type Semaphore struct {
	permits chan struct{}
}

// NewSemaphore creates a new semaphore with the given number of permits.
func NewSemaphore(count int) *Semaphore {
	if count <= 0 {
		count = 1
	}
	s := &Semaphore{
		permits: make(chan struct{}, count),
	}
	for i := 0; i < count; i++ {
		s.permits <- struct{}{}
	}
	return s
}

// Release returns a permit to the semaphore.
func (s *Semaphore) Release() {
	select {
	case s.permits <- struct{}{}:
	default:
		// Semaphore is full, this shouldn't happen in normal use.
	}
}

// Chan returns the underlying permit channel for use with select, allowing
// context-aware (cancellable) acquisition of a permit.
func (s *Semaphore) Chan() <-chan struct{} {
	return s.permits
}

// Progress represents batch-level job progress for the terminal reporter.
type Progress struct {
	JobsComplete int
	JobsTotal    int
}

// Percent returns the completion percentage.
func (p Progress) Percent() float64 {
	if p.JobsTotal == 0 {
		return 0
	}
	return float64(p.JobsComplete) / float64(p.JobsTotal) * 100
}
