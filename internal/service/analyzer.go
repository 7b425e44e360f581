// Package service wires submissions through the scoring pipeline: it
// validates, creates the job record, runs the stages in the background and
// exposes poll/subscribe/certify operations to the transport layer.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/syedismail7230/Authai/internal/ledger"
	"github.com/syedismail7230/Authai/internal/models"
	"github.com/syedismail7230/Authai/internal/progress"
	"github.com/syedismail7230/Authai/internal/registry"
)

// Enricher is the optional external inference collaborator. A nil Enricher
// means heuristic-only analysis.
type Enricher interface {
	Enrich(ctx context.Context, content string, ct models.ContentType) (*models.Enrichment, error)
}

// Options tune the analyzer.
type Options struct {
	// MaxContentBytes rejects oversized submissions before job creation.
	MaxContentBytes int
	// StageDelay paces the scoring stages while someone is listening.
	StageDelay time.Duration
	// EnrichTimeout bounds the external enrichment call.
	EnrichTimeout time.Duration
}

// Analyzer drives analysis jobs and certificate issuance.
type Analyzer struct {
	registry *registry.Registry
	hub      *progress.Hub
	ledger   *ledger.Ledger
	enricher Enricher
	opts     Options
	logger   *zap.Logger
}

// NewAnalyzer creates the analyzer service. enricher may be nil.
func NewAnalyzer(reg *registry.Registry, hub *progress.Hub, led *ledger.Ledger, enricher Enricher, opts Options, logger *zap.Logger) *Analyzer {
	if opts.MaxContentBytes == 0 {
		opts.MaxContentBytes = 1 << 20
	}
	if opts.EnrichTimeout == 0 {
		opts.EnrichTimeout = 10 * time.Second
	}
	return &Analyzer{
		registry: reg,
		hub:      hub,
		ledger:   led,
		enricher: enricher,
		opts:     opts,
		logger:   logger,
	}
}

// Submit validates the request, creates a QUEUED job and starts the runner.
// It returns immediately with the job id; progress is a separate channel.
func (a *Analyzer) Submit(content string, ct models.ContentType) (string, error) {
	if content == "" {
		return "", &models.ValidationError{Reason: "content is required"}
	}
	if len(content) > a.opts.MaxContentBytes {
		return "", &models.ValidationError{
			Reason: fmt.Sprintf("content exceeds %d bytes", a.opts.MaxContentBytes),
		}
	}
	if !ct.Valid() {
		return "", &models.ValidationError{Reason: fmt.Sprintf("unsupported content type %q", ct)}
	}

	job := a.registry.Create(ct)

	a.logger.Info("Job submitted",
		zap.String("job_id", job.ID),
		zap.String("content_type", string(ct)),
		zap.Int("content_bytes", len(content)))

	go a.run(job.ID, content, ct)

	return job.ID, nil
}

// GetJob returns a point-in-time copy of the job record.
func (a *Analyzer) GetJob(id string) (models.Job, error) {
	job, ok := a.registry.Get(id)
	if !ok {
		return models.Job{}, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}
	return job, nil
}

// Subscribe attaches a listener to the job's event stream. A job already in a
// terminal state gets its terminal event replayed from the registry record so
// late subscribers do not hang on a stream that will never emit again.
func (a *Analyzer) Subscribe(id string) (*progress.Subscription, error) {
	if _, ok := a.registry.Get(id); !ok {
		return nil, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}

	sub := a.hub.Subscribe(id)

	// Re-check after subscribing: the runner publishes its terminal event
	// right after the transition, and a subscriber landing in that window
	// would otherwise wait on a stream that has already ended. The hub makes
	// a second terminal publish a no-op, so this never double-delivers.
	if job, ok := a.registry.Get(id); ok && job.State.Terminal() {
		a.hub.Publish(terminalEvent(job))
	}
	return sub, nil
}

// SubscribeObservers attaches a listener to the global best-effort summary
// feed.
func (a *Analyzer) SubscribeObservers() *progress.Subscription {
	return a.hub.SubscribeObservers()
}

// IssueCertificate mints a certificate from a COMPLETED job's result.
func (a *Analyzer) IssueCertificate(ctx context.Context, jobID, owner, preview string) (models.Certificate, error) {
	job, ok := a.registry.Get(jobID)
	if !ok {
		return models.Certificate{}, fmt.Errorf("job %s: %w", jobID, models.ErrNotFound)
	}
	if job.State != models.JobStateCompleted || job.Result == nil {
		return models.Certificate{}, &models.ValidationError{
			Reason: fmt.Sprintf("job %s is %s, only COMPLETED jobs can be certified", jobID, job.State),
		}
	}

	return a.ledger.Issue(ctx, job.Result, preview, job.ContentType, owner)
}

// ResolveCertificate looks up a certificate by id through the ledger tiers.
func (a *Analyzer) ResolveCertificate(ctx context.Context, id string) (models.Certificate, error) {
	return a.ledger.Resolve(ctx, id)
}

// CertificateCount reports the number of certificates on record.
func (a *Analyzer) CertificateCount(ctx context.Context) (int64, error) {
	return a.ledger.Count(ctx)
}

func terminalEvent(job models.Job) models.ProgressEvent {
	if job.State == models.JobStateFailed {
		return models.ProgressEvent{
			JobID:    job.ID,
			Kind:     models.EventError,
			Progress: 100,
			Error:    job.Error,
		}
	}
	return models.ProgressEvent{
		JobID:    job.ID,
		Kind:     models.EventComplete,
		Progress: 100,
		Message:  "ANALYSIS_COMPLETE",
		Result:   job.Result,
	}
}
