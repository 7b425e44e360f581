package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/syedismail7230/Authai/internal/engine"
	"github.com/syedismail7230/Authai/internal/models"
)

const patternEnrichmentUnavailable = "ENRICHMENT_UNAVAILABLE"

// stage is one step of the scoring pipeline. Progress percentages are
// strictly increasing across the stage list.
type stage struct {
	progress int
	label    string
}

var stages = []stage{
	{10, "ENTROPY_PROFILING"},
	{30, "BURSTINESS_CHECK"},
	{60, "TOKEN_REPETITION_SCAN"},
	{85, "VERDICT_AGGREGATION"},
}

// run drives one job to a terminal state. It executes independently of the
// submitting request and records its result whether or not anyone listens.
func (a *Analyzer) run(jobID, content string, ct models.ContentType) {
	defer func() {
		if r := recover(); r != nil {
			a.fail(jobID, fmt.Sprintf("scoring engine panic: %v", r))
		}
	}()

	if err := a.registry.Transition(jobID, models.JobStateProcessing, nil, ""); err != nil {
		a.logger.Error("Failed to start job", zap.String("job_id", jobID), zap.Error(err))
		return
	}

	for _, s := range stages {
		a.hub.Publish(models.ProgressEvent{
			JobID:    jobID,
			Kind:     models.EventUpdate,
			Progress: s.progress,
			Message:  s.label,
		})
		a.pace(jobID)
	}

	result := engine.Score(content, ct)
	a.enrich(jobID, content, ct, &result)

	if err := a.registry.Transition(jobID, models.JobStateCompleted, &result, ""); err != nil {
		a.logger.Error("Failed to complete job", zap.String("job_id", jobID), zap.Error(err))
		return
	}

	a.hub.Publish(models.ProgressEvent{
		JobID:    jobID,
		Kind:     models.EventComplete,
		Progress: 100,
		Message:  "ANALYSIS_COMPLETE",
		Result:   &result,
	})

	// Best-effort summary for operational observers; failures here never
	// touch the primary completion path.
	a.hub.Broadcast(models.ProgressEvent{
		JobID:    jobID,
		Kind:     models.EventComplete,
		Progress: 100,
		Message:  string(result.Verdict),
	})

	a.logger.Info("Job completed",
		zap.String("job_id", jobID),
		zap.String("verdict", string(result.Verdict)),
		zap.Float64("ai_probability", result.AIProbability))
}

// enrich consults the external collaborator within a bounded timeout. On any
// failure the heuristic result stands, tagged so the caller can tell.
func (a *Analyzer) enrich(jobID, content string, ct models.ContentType, result *models.AnalysisResult) {
	if a.enricher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.opts.EnrichTimeout)
	defer cancel()

	enrichment, err := a.enricher.Enrich(ctx, content, ct)
	if err != nil {
		a.logger.Warn("Enrichment unavailable, proceeding heuristic-only",
			zap.String("job_id", jobID), zap.Error(err))
		result.DetectedPatterns = append(result.DetectedPatterns, patternEnrichmentUnavailable)
		result.ForensicLogs = append(result.ForensicLogs, models.ForensicLog{
			ID:        "ENRICH",
			Timestamp: time.Now().UTC(),
			Action:    "EXTERNAL_CROSS_CHECK",
			Status:    models.LogStatusWarn,
		})
		return
	}

	result.DetectedPatterns = append(result.DetectedPatterns, enrichment.Patterns...)
	result.ForensicLogs = append(result.ForensicLogs, models.ForensicLog{
		ID:        "ENRICH",
		Timestamp: time.Now().UTC(),
		Action:    "EXTERNAL_CROSS_CHECK",
		Status:    models.LogStatusOK,
	})
}

func (a *Analyzer) fail(jobID, reason string) {
	a.logger.Error("Job failed", zap.String("job_id", jobID), zap.String("reason", reason))

	if err := a.registry.Transition(jobID, models.JobStateFailed, nil, reason); err != nil {
		a.logger.Error("Failed to record job failure",
			zap.String("job_id", jobID), zap.Error(err))
		return
	}

	a.hub.Publish(models.ProgressEvent{
		JobID:    jobID,
		Kind:     models.EventError,
		Progress: 100,
		Error:    reason,
	})
}

// paceTick bounds how long a stage delay keeps running after the last
// subscriber disconnects.
const paceTick = 25 * time.Millisecond

// pace inserts the configured stage delay while the job has an audience. The
// delay exists for realistic streamed progress; it ends as soon as the last
// listener disconnects, and an unwatched job skips it entirely. The job runs
// to completion either way.
func (a *Analyzer) pace(jobID string) {
	remaining := a.opts.StageDelay
	for remaining > 0 && a.hub.HasSubscribers(jobID) {
		d := paceTick
		if remaining < d {
			d = remaining
		}
		time.Sleep(d)
		remaining -= d
	}
}
