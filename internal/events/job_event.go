package events

import (
	"fmt"
	"time"

	"github.com/tphakala/audioqa/internal/errors"
)

// JobStatus mirrors the lifecycle states a job moves through in the queue engine.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusRetrying  JobStatus = "retrying"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobEvent represents a single lifecycle transition or progress tick for a job.
// Consumers subscribe by topic ("job:<id>", "project:<id>", or "jobs:all");
// JobEvent is the payload delivered on all three.
type JobEvent interface {
	// GetJobID returns the identifier of the job this event describes.
	GetJobID() string

	// GetProjectID returns the project the job belongs to, or "" if none.
	GetProjectID() string

	// GetStatus returns the job's status at the time of this event.
	GetStatus() JobStatus

	// GetProgress returns a 0-100 completion estimate, meaningful only
	// while GetStatus() is JobStatusRunning.
	GetProgress() int

	// GetTimestamp returns when this event was produced.
	GetTimestamp() time.Time

	// GetMetadata returns additional context (track name, analyzer stage, ...).
	GetMetadata() map[string]any

	// GetError returns the failure reason when GetStatus() is JobStatusFailed,
	// or nil otherwise.
	GetError() error
}

type jobEventImpl struct {
	jobID     string
	projectID string
	status    JobStatus
	progress  int
	timestamp time.Time
	metadata  map[string]any
	err       error
}

// NewJobEvent creates a job lifecycle event with input validation.
func NewJobEvent(jobID, projectID string, status JobStatus, progress int, jobErr error) (JobEvent, error) {
	if jobID == "" {
		return nil, errors.Newf("NewJobEvent: jobID cannot be empty").
			Component("events").
			Category(errors.CategoryValidation).
			Build()
	}
	if progress < 0 || progress > 100 {
		return nil, errors.Newf("NewJobEvent: progress must be between 0 and 100, got %d", progress).
			Component("events").
			Category(errors.CategoryValidation).
			Context("progress", progress).
			Build()
	}

	return &jobEventImpl{
		jobID:     jobID,
		projectID: projectID,
		status:    status,
		progress:  progress,
		timestamp: time.Now(),
		metadata:  make(map[string]any),
		err:       jobErr,
	}, nil
}

// NewJobEventWithMetadata creates a job event carrying additional context.
func NewJobEventWithMetadata(jobID, projectID string, status JobStatus, progress int, jobErr error, metadata map[string]any) (JobEvent, error) {
	ev, err := NewJobEvent(jobID, projectID, status, progress, jobErr)
	if err != nil {
		return nil, err
	}
	impl := ev.(*jobEventImpl)
	if metadata != nil {
		impl.metadata = metadata
	}
	return impl, nil
}

func (e *jobEventImpl) GetJobID() string            { return e.jobID }
func (e *jobEventImpl) GetProjectID() string         { return e.projectID }
func (e *jobEventImpl) GetStatus() JobStatus         { return e.status }
func (e *jobEventImpl) GetProgress() int             { return e.progress }
func (e *jobEventImpl) GetTimestamp() time.Time      { return e.timestamp }
func (e *jobEventImpl) GetMetadata() map[string]any  { return e.metadata }
func (e *jobEventImpl) GetError() error              { return e.err }

// String returns a human-readable summary of the event, useful for logging.
func (e *jobEventImpl) String() string {
	if e.err != nil {
		return fmt.Sprintf("job %s: %s (%v)", e.jobID, e.status, e.err)
	}
	return fmt.Sprintf("job %s: %s (%d%%)", e.jobID, e.status, e.progress)
}

// Topics returns every topic this event should be delivered on: the
// job-specific topic, the project topic (if any), and the catch-all.
func Topics(jobID, projectID string) []string {
	topics := []string{fmt.Sprintf("job:%s", jobID), TopicAllJobs}
	if projectID != "" {
		topics = append(topics, fmt.Sprintf("project:%s", projectID))
	}
	return topics
}

// TopicAllJobs is the catch-all topic every job event is also published to.
const TopicAllJobs = "jobs:all"

// JobEventConsumer processes job lifecycle events for a single topic.
type JobEventConsumer interface {
	// Topic returns the topic this consumer is subscribed to.
	Topic() string

	// ProcessJobEvent handles a single job event delivered on Topic().
	ProcessJobEvent(event JobEvent) error
}
