// Package registry owns the in-memory job records and their lifecycle state.
// All mutation goes through Create and Transition; Get returns copies so
// readers never observe a torn record.
package registry

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syedismail7230/Authai/internal/models"
)

var allowedTransitions = map[models.JobState][]models.JobState{
	models.JobStateQueued:     {models.JobStateProcessing},
	models.JobStateProcessing: {models.JobStateCompleted, models.JobStateFailed},
}

// Registry stores job records keyed by job id. Terminal jobs are evicted
// after the configured retention period so the map stays bounded.
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]*models.Job
	logger *zap.Logger

	retention time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a registry. Terminal jobs older than retention are swept every
// sweepInterval; a zero retention disables eviction.
func New(logger *zap.Logger, retention, sweepInterval time.Duration) *Registry {
	r := &Registry{
		jobs:      make(map[string]*models.Job),
		logger:    logger,
		retention: retention,
		done:      make(chan struct{}),
	}
	if retention > 0 && sweepInterval > 0 {
		go r.sweep(sweepInterval)
	}
	return r
}

// Create allocates a fresh job id and inserts a QUEUED record.
func (r *Registry) Create(ct models.ContentType) models.Job {
	job := models.Job{
		ID:          newJobID(),
		ContentType: ct,
		State:       models.JobStateQueued,
		SubmittedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = &job
	r.mu.Unlock()

	return job
}

// Get returns a point-in-time copy of the job record.
func (r *Registry) Get(id string) (models.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return *job, true
}

// Transition moves a job to newState, attaching the result on COMPLETED and
// the failure reason on FAILED. An illegal transition fails with
// ErrInvalidTransition and leaves the record untouched.
func (r *Registry) Transition(id string, newState models.JobState, result *models.AnalysisResult, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}

	if !transitionAllowed(job.State, newState) {
		r.logger.Error("Illegal job state transition rejected",
			zap.String("job_id", id),
			zap.String("from", string(job.State)),
			zap.String("to", string(newState)))
		return fmt.Errorf("%s -> %s: %w", job.State, newState, models.ErrInvalidTransition)
	}

	job.State = newState
	switch newState {
	case models.JobStateCompleted:
		job.Result = result
	case models.JobStateFailed:
		job.Error = reason
	}
	if newState.Terminal() {
		now := time.Now().UTC()
		job.CompletedAt = &now
	}
	return nil
}

// Len returns the number of retained job records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// Close stops the background sweeper.
func (r *Registry) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

func (r *Registry) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.evictExpired()
		}
	}
}

func (r *Registry) evictExpired() {
	cutoff := time.Now().UTC().Add(-r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, job := range r.jobs {
		if job.State.Terminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(r.jobs, id)
			evicted++
		}
	}
	if evicted > 0 {
		r.logger.Info("Evicted expired jobs",
			zap.Int("count", evicted),
			zap.Int("remaining", len(r.jobs)))
	}
}

func transitionAllowed(from, to models.JobState) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func newJobID() string {
	return "JOB-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
}
