// Package queue implements the job queue engine: five priority lanes, a
// fixed worker pool, exponential-backoff retries, and cooperative
// cancellation, with every state change and progress update published
// through the event bus.
package queue

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/audioqa/internal/errors"
	"github.com/tphakala/audioqa/internal/events"
	"github.com/tphakala/audioqa/internal/logging"
	"github.com/tphakala/audioqa/internal/model"
)

var logger *slog.Logger

func init() {
	logger = logging.ForService("queue")
	if logger == nil {
		logger = slog.Default().With("service", "queue")
	}
}

var (
	// ErrQueueStopped is returned by Enqueue once the engine has been Stopped.
	ErrQueueStopped = errors.Newf("job queue has been stopped").
				Component("queue").
				Category(errors.CategoryState).
				Build()

	// ErrNoHandler is returned when no Handler is registered for a job's type.
	ErrNoHandler = errors.Newf("no handler registered for job type").
			Component("queue").
			Category(errors.CategoryJobQueue).
			Build()

	// ErrJobNotFound is returned by Cancel for an unknown or already-archived job ID.
	ErrJobNotFound = errors.Newf("job not found").
			Component("queue").
			Category(errors.CategoryNotFound).
			Build()
)

// priorityOrder is the fixed lane poll order: strictly highest-priority
// non-empty lane first.
var priorityOrder = []model.JobPriority{
	model.JobPriorityCritical,
	model.JobPriorityHigh,
	model.JobPriorityNormal,
	model.JobPriorityLow,
	model.JobPriorityBulk,
}

// RetryConfig controls the exponential backoff applied between a failed
// attempt and its retry.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration
}

// DefaultRetryConfig reproduces the default backoff: base 5s, doubling
// each attempt, i.e. retryDelay = BaseDelay * 2^(attempts-1).
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  5 * time.Second,
		Multiplier: 2.0,
		MaxDelay:   5 * time.Minute,
	}
}

// ProgressFunc reports a job's progress at a named phase; fraction is the
// 0-1 completion within that phase, mapped to an overall percent by
// PhasePercent.
type ProgressFunc func(phase string, fraction float64, message string)

// CancelledFunc reports whether the currently running job has been asked
// to cancel. Handlers implementing long-running work MUST poll it between
// pipeline stages and abort promptly when it returns true.
type CancelledFunc func() bool

// Handler runs one job type's pipeline. It returns the job's result value
// (stored on model.Job.Result) or an error. Handlers MUST check cancelled()
// between stages; the engine does not forcibly interrupt a running handler.
type Handler interface {
	Handle(ctx context.Context, job *model.Job, progress ProgressFunc, cancelled CancelledFunc) (any, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, job *model.Job, progress ProgressFunc, cancelled CancelledFunc) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, job *model.Job, progress ProgressFunc, cancelled CancelledFunc) (any, error) {
	return f(ctx, job, progress, cancelled)
}

// Engine is the job queue: five FIFO priority lanes drained by a fixed
// worker pool. External callers only ever enqueue, cancel, or read
// snapshots; all queue mutation is serialized through the engine's own
// mutex, never touched directly by a caller.
type Engine struct {
	mu          sync.Mutex
	lanes       map[model.JobPriority][]*model.Job
	byID        map[string]*model.Job
	cancelFlags map[string]*atomic.Bool
	cond        *sync.Cond

	handlers map[model.JobType]Handler
	bus      *events.JobBus
	clock    Clock

	workerCount int
	jobTimeout  time.Duration
	retry       RetryConfig

	stats Stats

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup // worker goroutines + retry timers
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithWorkerCount overrides DefaultWorkerCount().
func WithWorkerCount(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workerCount = n
		}
	}
}

// WithRetryConfig overrides DefaultRetryConfig().
func WithRetryConfig(cfg RetryConfig) Option {
	return func(e *Engine) { e.retry = cfg }
}

// WithJobTimeout bounds a single handler invocation; the default is 10 minutes,
// generous relative to the teacher's 30s action timeout since audio rendering
// and export pipelines legitimately run far longer than a notification action.
func WithJobTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.jobTimeout = d
		}
	}
}

// WithClock overrides the real clock, for deterministic backoff tests.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// DefaultWorkerCount is max(1, CPU count - 1): leave one core free for the
// rest of the process.
func DefaultWorkerCount() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// New builds an Engine publishing job events to bus.
func New(bus *events.JobBus, opts ...Option) *Engine {
	e := &Engine{
		lanes:       make(map[model.JobPriority][]*model.Job, len(priorityOrder)),
		byID:        make(map[string]*model.Job),
		cancelFlags: make(map[string]*atomic.Bool),
		handlers:    make(map[model.JobType]Handler),
		bus:         bus,
		clock:       RealClock{},
		workerCount: DefaultWorkerCount(),
		jobTimeout:  10 * time.Minute,
		retry:       DefaultRetryConfig(),
	}
	for _, p := range priorityOrder {
		e.lanes[p] = nil
	}
	e.cond = sync.NewCond(&e.mu)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterHandler binds a job type to the Handler that runs its pipeline.
func (e *Engine) RegisterHandler(t model.JobType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[t] = h
}

// Start launches the fixed worker pool. Each worker is a long-lived loop:
// pull the head of the highest-priority non-empty lane, run its pipeline,
// report, repeat.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.mu.Unlock()

	for i := 0; i < e.workerCount; i++ {
		e.wg.Add(1)
		go e.worker(ctx, i)
	}

	// Wake every worker blocked in cond.Wait() once ctx is cancelled or
	// Stop() closes stopCh, so pullNext can observe the exit condition
	// instead of waiting for the next unrelated Signal.
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		select {
		case <-ctx.Done():
		case <-e.stopCh:
		}
		e.mu.Lock()
		e.cond.Broadcast()
		e.mu.Unlock()
	}()
}

// Stop signals every worker and retry timer to exit and waits up to timeout
// for in-flight work to settle.
func (e *Engine) Stop(timeout time.Duration) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()
	e.cond.Broadcast()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-e.clock.After(timeout):
		return errors.Newf("queue: timed out waiting for workers to stop after %v", timeout).
			Component("queue").
			Category(errors.CategoryTimeout).
			Build()
	}
}

// Enqueue creates a job and pushes it to the back of its priority lane.
func (e *Engine) Enqueue(jobType model.JobType, priority model.JobPriority, projectID string, data any, config map[string]any) (*model.Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil, ErrQueueStopped
	}

	now := e.clock.Now()
	job := &model.Job{
		ID:          "job-" + uuid.New().String()[:8],
		Type:        jobType,
		Priority:    priority,
		State:       model.JobStateQueued,
		ProjectID:   projectID,
		Data:        data,
		Config:      config,
		MaxAttempts: e.retry.MaxRetries + 1,
		Timestamps:  model.JobTimestamps{Queued: now},
		Progress:    model.JobProgress{Phase: PhaseQueued, Percent: PhasePercent(PhaseQueued, 0)},
	}

	e.lanes[priority] = append(e.lanes[priority], job)
	e.byID[job.ID] = job
	e.cond.Signal()

	e.publish(job, nil)
	return job, nil
}

// Cancel requests cancellation of job id. It returns true iff the job was
// QUEUED (removed synchronously) or RUNNING (flagged for the worker to
// notice at its next checkpoint). A job already in a terminal state, or
// RETRYING, returns false: retrying jobs are deliberately not cancellable
// mid-backoff in this implementation, since there is no running worker to
// hand the flag to until the retry goroutine re-enqueues it.
func (e *Engine) Cancel(id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.byID[id]
	if !ok {
		return false, ErrJobNotFound
	}

	switch job.State {
	case model.JobStateQueued:
		lane := e.lanes[job.Priority]
		for i, j := range lane {
			if j.ID == id {
				e.lanes[job.Priority] = append(lane[:i], lane[i+1:]...)
				break
			}
		}
		job.State = model.JobStateCancelled
		job.Timestamps.Completed = e.clock.Now()
		e.publish(job, nil)
		return true, nil
	case model.JobStateRunning:
		flag, exists := e.cancelFlags[id]
		if !exists {
			flag = &atomic.Bool{}
			e.cancelFlags[id] = flag
		}
		flag.Store(true)
		return true, nil
	default:
		return false, nil
	}
}

// Job returns a snapshot of job id's current state, or false if unknown.
func (e *Engine) Job(id string) (model.Job, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	job, ok := e.byID[id]
	if !ok {
		return model.Job{}, false
	}
	return *job, true
}

// Stats returns a point-in-time snapshot of the engine's running counters.
func (e *Engine) Stats() Snapshot {
	return e.stats.snapshot()
}

// worker is one long-lived pool member: pull -> run -> report -> repeat.
func (e *Engine) worker(ctx context.Context, id int) {
	defer e.wg.Done()
	for {
		job := e.pullNext(ctx)
		if job == nil {
			return
		}
		e.runJob(ctx, job)
	}
}

// pullNext blocks until a job is available in the highest-priority
// non-empty lane, or until the engine stops / ctx is cancelled.
func (e *Engine) pullNext(ctx context.Context) *model.Job {
	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		select {
		case <-e.stopCh:
			return nil
		default:
		}
		if ctx.Err() != nil {
			return nil
		}

		for _, p := range priorityOrder {
			lane := e.lanes[p]
			if len(lane) == 0 {
				continue
			}
			job := lane[0]
			e.lanes[p] = lane[1:]
			return job
		}

		e.cond.Wait()
	}
}

func (e *Engine) runJob(ctx context.Context, job *model.Job) {
	e.mu.Lock()
	job.State = model.JobStateRunning
	job.Attempts++
	job.Timestamps.Started = e.clock.Now()
	flag, exists := e.cancelFlags[job.ID]
	if !exists {
		flag = &atomic.Bool{}
		e.cancelFlags[job.ID] = flag
	}
	e.mu.Unlock()
	e.publish(job, nil)

	cancelled := func() bool { return flag.Load() }
	progress := func(phase string, fraction float64, message string) {
		e.mu.Lock()
		job.Progress = model.JobProgress{Phase: phase, Percent: PhasePercent(phase, fraction), Message: message}
		e.mu.Unlock()
		e.publishProgress(job)
	}

	e.mu.Lock()
	handler, ok := e.handlers[job.Type]
	e.mu.Unlock()
	if !ok {
		e.fail(job, ErrNoHandler)
		return
	}

	execCtx, cancel := context.WithTimeout(ctx, e.jobTimeout)
	defer cancel()

	result, err := e.invoke(execCtx, handler, job, progress, cancelled)

	if cancelled() {
		e.mu.Lock()
		job.State = model.JobStateCancelled
		job.Timestamps.Completed = e.clock.Now()
		delete(e.cancelFlags, job.ID)
		e.mu.Unlock()
		e.publish(job, nil)
		return
	}

	duration := e.clock.Now().Sub(job.Timestamps.Started)

	if err != nil {
		if job.Attempts >= job.MaxAttempts {
			e.mu.Lock()
			job.State = model.JobStateFailed
			job.Error = err
			job.Timestamps.Completed = e.clock.Now()
			delete(e.cancelFlags, job.ID)
			e.mu.Unlock()
			e.stats.recordTerminal(true, duration)
			e.publish(job, err)
			logger.Error("job failed permanently", "job_id", job.ID, "type", job.Type, "attempts", job.Attempts, "error", err)
			return
		}
		e.scheduleRetry(ctx, job, err)
		return
	}

	e.mu.Lock()
	job.State = model.JobStateCompleted
	job.Result = result
	job.Progress = model.JobProgress{Phase: PhaseCompleted, Percent: 100}
	job.Timestamps.Completed = e.clock.Now()
	delete(e.cancelFlags, job.ID)
	e.mu.Unlock()
	e.stats.recordTerminal(false, duration)
	e.publish(job, nil)
}

// invoke runs handler.Handle with panic recovery, converting a panicking
// handler into an error rather than taking down the worker goroutine.
func (e *Engine) invoke(ctx context.Context, h Handler, job *model.Job, progress ProgressFunc, cancelled CancelledFunc) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("job handler panicked: %v", r).
				Component("queue").
				Category(errors.CategoryJobQueue).
				Context("job_id", job.ID).
				Context("job_type", job.Type).
				Build()
			logger.Error("job handler panicked", "job_id", job.ID, "type", job.Type, "panic", r)
		}
	}()
	return h.Handle(ctx, job, progress, cancelled)
}

func (e *Engine) scheduleRetry(ctx context.Context, job *model.Job, cause error) {
	delay := backoffDelay(e.retry, job.Attempts)

	e.mu.Lock()
	job.State = model.JobStateRetrying
	job.Error = cause
	e.mu.Unlock()
	e.stats.recordRetry()
	e.publish(job, cause)
	logger.Warn("job failed, scheduling retry", "job_id", job.ID, "type", job.Type, "attempt", job.Attempts, "max_attempts", job.MaxAttempts, "delay", delay, "error", cause)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		select {
		case <-e.clock.After(delay):
		case <-e.stopCh:
			return
		case <-ctx.Done():
			return
		}

		e.mu.Lock()
		if flag, ok := e.cancelFlags[job.ID]; ok && flag.Load() {
			// Cancelled during backoff: RETRYING jobs are not re-scheduled.
			job.State = model.JobStateCancelled
			job.Timestamps.Completed = e.clock.Now()
			delete(e.cancelFlags, job.ID)
			e.mu.Unlock()
			e.publish(job, nil)
			return
		}
		job.State = model.JobStateQueued
		e.lanes[job.Priority] = append([]*model.Job{job}, e.lanes[job.Priority]...)
		e.mu.Unlock()
		e.cond.Signal()
		e.publish(job, nil)
	}()
}

func (e *Engine) fail(job *model.Job, err error) {
	e.mu.Lock()
	job.State = model.JobStateFailed
	job.Error = err
	job.Timestamps.Completed = e.clock.Now()
	delete(e.cancelFlags, job.ID)
	e.mu.Unlock()
	e.stats.recordTerminal(true, 0)
	e.publish(job, err)
}

// backoffDelay computes retryDelay * multiplier^(attempts-1), capped at
// MaxDelay. With DefaultRetryConfig this reproduces the base-5s doubling
// backoff.
func backoffDelay(cfg RetryConfig, attempts int) time.Duration {
	mult := cfg.Multiplier
	if mult <= 0 {
		mult = 2.0
	}
	delay := float64(cfg.BaseDelay)
	for i := 1; i < attempts; i++ {
		delay *= mult
	}
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}

var stateToEventStatus = map[model.JobState]events.JobStatus{
	model.JobStateQueued:    events.JobStatusQueued,
	model.JobStateRunning:   events.JobStatusRunning,
	model.JobStateRetrying:  events.JobStatusRetrying,
	model.JobStateCompleted: events.JobStatusSucceeded,
	model.JobStateFailed:    events.JobStatusFailed,
	model.JobStateCancelled: events.JobStatusCancelled,
}

func (e *Engine) publish(job *model.Job, jobErr error) {
	if e.bus == nil {
		return
	}
	status := stateToEventStatus[job.State]
	ev, err := events.NewJobEventWithMetadata(job.ID, job.ProjectID, status, job.Progress.Percent, jobErr, map[string]any{
		"job_type": string(job.Type),
		"priority": string(job.Priority),
		"attempts": job.Attempts,
		"phase":    job.Progress.Phase,
	})
	if err != nil {
		logger.Error("failed to build job event", "job_id", job.ID, "error", err)
		return
	}
	e.bus.Publish(ev)
}

func (e *Engine) publishProgress(job *model.Job) {
	e.publish(job, nil)
}
