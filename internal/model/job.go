package model

import "time"

// JobType names what a job asks the queue engine to do.
type JobType string

const (
	JobTypeAnalyze  JobType = "ANALYZE"
	JobTypeProcess  JobType = "PROCESS"
	JobTypeExport   JobType = "EXPORT"
	JobTypeValidate JobType = "VALIDATE"
	JobTypeMetadata JobType = "METADATA"
)

// JobPriority orders jobs across the queue engine's five priority lanes.
type JobPriority string

const (
	JobPriorityCritical JobPriority = "CRITICAL"
	JobPriorityHigh     JobPriority = "HIGH"
	JobPriorityNormal   JobPriority = "NORMAL"
	JobPriorityLow      JobPriority = "LOW"
	JobPriorityBulk     JobPriority = "BULK"
)

// JobState is a job's lifecycle state. Transitions are monotonic within a
// lifecycle except RETRYING -> QUEUED, the one permitted backward edge.
type JobState string

const (
	JobStateQueued    JobState = "QUEUED"
	JobStateRunning   JobState = "RUNNING"
	JobStateCompleted JobState = "COMPLETED"
	JobStateFailed    JobState = "FAILED"
	JobStateCancelled JobState = "CANCELLED"
	JobStateRetrying  JobState = "RETRYING"
)

// JobProgress is a job's current phase, reported monotonically
// non-decreasing within a single RUNNING segment.
type JobProgress struct {
	Phase   string
	Percent int
	Message string
}

// JobTimestamps records when a job crossed each lifecycle boundary. Zero
// value means the job has not yet reached that point.
type JobTimestamps struct {
	Queued    time.Time
	Started   time.Time
	Completed time.Time
}

// Job is a unit of work tracked by the queue engine.
type Job struct {
	ID          string
	Type        JobType
	Priority    JobPriority
	State       JobState
	ProjectID   string
	Data        any
	Config      map[string]any
	Attempts    int
	MaxAttempts int
	Timestamps  JobTimestamps
	Progress    JobProgress
	Result      any
	Error       error
}
