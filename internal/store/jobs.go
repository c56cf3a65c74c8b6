package store

import (
	"krida.io/dealdesk/internal/domain"
	apperrors "krida.io/dealdesk/internal/pkg/errors"
)

// CreateJob records a new job in queued status.
func (s *Store) CreateJob(jobType string) domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	job := &domain.Job{
		ID:        NewID("job"),
		Type:      jobType,
		Status:    domain.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.st.jobs[job.ID] = job
	return cloneJob(job)
}

// GetJob returns a job by id.
func (s *Store) GetJob(jobID string) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.st.jobs[jobID]
	if !ok {
		return domain.Job{}, apperrors.NotFound("Job not found")
	}
	return cloneJob(job), nil
}

// UpdateJob transitions a job's status, optionally recording a result or an
// error. A job that already reached a terminal state is never modified again;
// the stored record is returned unchanged.
func (s *Store) UpdateJob(jobID string, status domain.JobStatus, result map[string]any, errMsg *string) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.st.jobs[jobID]
	if !ok {
		return domain.Job{}, apperrors.NotFound("Job not found")
	}
	if job.Status.Terminal() {
		return cloneJob(job), nil
	}
	job.Status = status
	job.UpdatedAt = s.now()
	if result != nil {
		job.Result = result
	}
	if errMsg != nil {
		job.Error = errMsg
	}
	return cloneJob(job), nil
}

func cloneJob(j *domain.Job) domain.Job {
	clone := *j
	if j.Result != nil {
		clone.Result = make(map[string]any, len(j.Result))
		for k, v := range j.Result {
			clone.Result[k] = v
		}
	}
	return clone
}
