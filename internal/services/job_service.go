package services

import (
	"github.com/dojoflow/tuition-api/internal/jobs"
)

// JobService exposes the background worker's counters to the API. The
// billing tick runs through this worker, so the counters are the first
// place to look when a scheduled run did not happen.
type JobService struct {
	worker *jobs.Worker
}

// NewJobService creates a new job service
func NewJobService(worker *jobs.Worker) *JobService {
	return &JobService{worker: worker}
}

// Status returns a snapshot of the worker's counters
func (s *JobService) Status() jobs.WorkerStats {
	return s.worker.GetStats()
}
