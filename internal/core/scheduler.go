// Package core provides the monitoring coordinator for the warehouse
// monitoring system.
//
// The coordinator owns the warehouse-config and user caches, subscribes to
// change events from the backing store, dispatches reading processing to a
// worker pool, and drives the periodic jobs (daily reports, retention
// sweeps) through the scheduler.
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"warehousemon/internal/config"

	"github.com/rs/zerolog/log"
)

// ScheduledJob represents a job that runs periodically.
type ScheduledJob struct {
	// ID is a unique identifier for the job
	ID string

	// Delay postpones the first execution; zero runs the job immediately.
	Delay time.Duration

	// Interval is how often the job should run
	Interval time.Duration

	// Next, when set, computes the wait before every run from the current
	// time instead of using Delay and a fixed Interval. Jobs that must stay
	// aligned to wall-clock boundaries (local midnight) use this so DST
	// transitions do not drift them.
	Next func(now time.Time) time.Duration

	// Task is the function to execute. Errors are logged, never retried:
	// every periodic task here is re-run on its next tick anyway.
	Task func(context.Context) error

	// Internal fields
	cancel  context.CancelFunc
	running bool
}

// Scheduler manages the execution of periodic jobs and bounds their
// concurrency with a shared worker pool.
type Scheduler struct {
	config config.SchedulerConfig

	// Job management
	jobs   map[string]*ScheduledJob
	jobsMu sync.RWMutex

	// Worker pool
	workers chan struct{}

	// Lifecycle management
	running bool
	mu      sync.RWMutex
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a new scheduler with the given configuration.
func NewScheduler(cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		config:  cfg,
		jobs:    make(map[string]*ScheduledJob),
		workers: make(chan struct{}, cfg.WorkerCount),
	}
}

// Start starts the scheduler and initializes the worker pool.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.ctx = ctx
	s.cancel = cancel

	// Initialize worker pool
	for i := 0; i < s.config.WorkerCount; i++ {
		s.workers <- struct{}{}
	}

	s.running = true
	log.Info().Int("worker_count", s.config.WorkerCount).Msg("Scheduler started")

	return nil
}

// Stop stops the scheduler and all running jobs gracefully.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	log.Info().Msg("Stopping scheduler")

	if s.cancel != nil {
		s.cancel()
	}

	s.jobsMu.Lock()
	for _, job := range s.jobs {
		s.stopJobUnsafe(job)
	}
	s.jobsMu.Unlock()

	// Wait for all workers to finish
	s.wg.Wait()

	s.running = false
	log.Info().Msg("Scheduler stopped")
}

// AddJob adds a new job to the scheduler and starts it.
func (s *Scheduler) AddJob(job *ScheduledJob) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return fmt.Errorf("scheduler is not running")
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job with ID %s already exists", job.ID)
	}

	if err := s.startJobUnsafe(job); err != nil {
		return fmt.Errorf("failed to start job %s: %w", job.ID, err)
	}

	s.jobs[job.ID] = job
	log.Debug().Str("job_id", job.ID).Dur("interval", job.Interval).Dur("delay", job.Delay).Msg("Job added")

	return nil
}

// RemoveJob removes a job from the scheduler and stops it.
func (s *Scheduler) RemoveJob(jobID string) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("job with ID %s not found", jobID)
	}

	s.stopJobUnsafe(job)
	delete(s.jobs, jobID)

	log.Debug().Str("job_id", jobID).Msg("Job removed")
	return nil
}

// GetJobCount returns the number of currently scheduled jobs.
func (s *Scheduler) GetJobCount() int {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()
	return len(s.jobs)
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// startJobUnsafe starts a job without acquiring locks.
// This method should only be called when appropriate locks are already held.
func (s *Scheduler) startJobUnsafe(job *ScheduledJob) error {
	if job.running {
		return fmt.Errorf("job is already running")
	}
	if job.Interval <= 0 && job.Next == nil {
		return fmt.Errorf("job interval must be positive")
	}

	jobCtx, cancel := context.WithCancel(s.ctx)
	job.cancel = cancel

	s.wg.Add(1)
	go s.runJob(jobCtx, job)

	job.running = true
	return nil
}

// stopJobUnsafe stops a job without acquiring locks.
// This method should only be called when appropriate locks are already held.
func (s *Scheduler) stopJobUnsafe(job *ScheduledJob) {
	if !job.running {
		return
	}

	if job.cancel != nil {
		job.cancel()
	}

	job.running = false
}

// runJob runs a single job in its own goroutine: waits out the initial
// delay, then executes on every tick until cancelled.
func (s *Scheduler) runJob(ctx context.Context, job *ScheduledJob) {
	defer s.wg.Done()

	log.Debug().Str("job_id", job.ID).Msg("Job started")

	if job.Next != nil {
		s.runAligned(ctx, job)
		return
	}

	if job.Delay > 0 {
		select {
		case <-ctx.Done():
			log.Debug().Str("job_id", job.ID).Msg("Job stopped before first run")
			return
		case <-time.After(job.Delay):
		}
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	// Execute once after the delay, then on every tick
	s.executeJobTask(ctx, job)

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("job_id", job.ID).Msg("Job stopped")
			return
		case <-ticker.C:
			s.executeJobTask(ctx, job)
		}
	}
}

// runAligned recomputes the wait before every run, so recurring runs track
// the wall clock rather than a fixed tick width.
func (s *Scheduler) runAligned(ctx context.Context, job *ScheduledJob) {
	for {
		timer := time.NewTimer(job.Next(time.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Debug().Str("job_id", job.ID).Msg("Job stopped")
			return
		case <-timer.C:
		}
		s.executeJobTask(ctx, job)
	}
}

// executeJobTask executes a job task with proper worker pool management.
// When no worker is available the execution is skipped; the job runs again
// on its next tick.
func (s *Scheduler) executeJobTask(ctx context.Context, job *ScheduledJob) {
	select {
	case <-s.workers:
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				// Return worker to pool
				s.workers <- struct{}{}
			}()

			if err := job.Task(ctx); err != nil {
				log.Error().Str("job_id", job.ID).Err(err).Msg("Job failed")
			}
		}()
	default:
		log.Warn().Str("job_id", job.ID).Msg("No workers available, skipping job execution")
	}
}
