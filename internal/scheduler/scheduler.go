// Package scheduler runs periodic maintenance jobs, such as the idle
// workspace sweep, on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Job is a task run on a cron schedule.
type Job struct {
	ID       string                          // Unique identifier for the job
	Name     string                          // Human-readable name (optional)
	CronExpr string                          // Cron expression (e.g. "*/5 * * * *" or "@every 1m")
	Run      func(ctx context.Context) error // Work done on every tick
}

// CronEngine abstracts the cron scheduler for testability.
// The real implementation wraps robfig/cron/v3.
type CronEngine interface {
	AddFunc(spec string, cmd func()) (int, error)
	Remove(id int)
	Start()
	Stop()
}

// Option is a functional option for configuring a Scheduler.
type Option func(*Scheduler)

// WithLogger sets a structured logger for the Scheduler. If l is nil it is
// ignored and the default slog logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// Sentinel errors for validation.
var (
	ErrEmptyJobID   = errors.New("scheduler: job ID must not be empty")
	ErrEmptyCron    = errors.New("scheduler: cron expression must not be empty")
	ErrNilRun       = errors.New("scheduler: job run function must not be nil")
	ErrDuplicateJob = errors.New("scheduler: job with this ID already exists")
	ErrUnknownJob   = errors.New("scheduler: job not found")
)

// jobEntry tracks a registered job and its cron entry ID.
type jobEntry struct {
	job     Job
	entryID int
}

// Scheduler manages cron-based jobs.
type Scheduler struct {
	engine CronEngine
	logger *slog.Logger
	mu     sync.RWMutex
	jobs   map[string]jobEntry
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new Scheduler. The engine must not be nil.
func NewScheduler(engine CronEngine, opts ...Option) *Scheduler {
	if engine == nil {
		panic("scheduler: engine must not be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		engine: engine,
		jobs:   make(map[string]jobEntry),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// log returns the Scheduler's logger, falling back to the default slog logger.
func (s *Scheduler) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// AddJob registers a new scheduled job. Returns an error if the job fails
// validation or if a job with the same ID already exists.
func (s *Scheduler) AddJob(job Job) error {
	if job.ID == "" {
		return ErrEmptyJobID
	}
	if job.CronExpr == "" {
		return ErrEmptyCron
	}
	if job.Run == nil {
		return ErrNilRun
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.ID)
	}

	capturedJob := job
	entryID, err := s.engine.AddFunc(job.CronExpr, func() { s.fire(capturedJob) })
	if err != nil {
		return fmt.Errorf("scheduler: failed to register cron job %q: %w", job.ID, err)
	}

	s.jobs[job.ID] = jobEntry{job: job, entryID: entryID}
	s.log().Info("job registered",
		"job_id", job.ID,
		"job_name", job.Name,
		"cron_expr", job.CronExpr,
	)
	return nil
}

func (s *Scheduler) fire(job Job) {
	start := time.Now()
	err := job.Run(s.ctx)
	if err != nil {
		s.log().Warn("job failed",
			"job_id", job.ID,
			"error", err,
		)
		return
	}
	s.log().Debug("job ran",
		"job_id", job.ID,
		"duration", time.Since(start),
	)
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.engine.Start()
}

// Stop cancels the context passed to running jobs and halts the cron
// scheduler.
func (s *Scheduler) Stop() {
	s.cancel()
	s.engine.Stop()
}

// RemoveJob unregisters a scheduled job by ID. Returns an error if the
// job ID is empty or the job does not exist.
func (s *Scheduler) RemoveJob(id string) error {
	if id == "" {
		return ErrEmptyJobID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}

	s.engine.Remove(entry.entryID)
	delete(s.jobs, id)
	s.log().Info("job removed", "job_id", id)
	return nil
}

// ListJobs returns a copy of all registered jobs sorted by ID. The returned
// slice is never nil.
func (s *Scheduler) ListJobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, entry := range s.jobs {
		jobs = append(jobs, entry.job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs
}
