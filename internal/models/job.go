package models

import "time"

// JobState is the lifecycle state of an analysis job. Transitions are
// monotonic: QUEUED -> PROCESSING -> COMPLETED | FAILED.
type JobState string

const (
	JobStateQueued     JobState = "QUEUED"
	JobStateProcessing JobState = "PROCESSING"
	JobStateCompleted  JobState = "COMPLETED"
	JobStateFailed     JobState = "FAILED"
)

// Terminal reports whether s is a final state.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// Job tracks one analysis request through its lifecycle.
type Job struct {
	ID          string          `json:"id"`
	ContentType ContentType     `json:"contentType"`
	State       JobState        `json:"state"`
	SubmittedAt time.Time       `json:"submittedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Result      *AnalysisResult `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// EventKind discriminates progress events. Exactly one complete or error
// event terminates a job's stream.
type EventKind string

const (
	EventUpdate   EventKind = "update"
	EventComplete EventKind = "complete"
	EventError    EventKind = "error"
)

// Terminal reports whether k ends the stream for its job.
func (k EventKind) Terminal() bool {
	return k == EventComplete || k == EventError
}

// ProgressEvent is a transient status update for one job. Progress is
// monotonically non-decreasing within a job.
type ProgressEvent struct {
	JobID    string          `json:"jobId"`
	Kind     EventKind       `json:"kind"`
	Progress int             `json:"progress"`
	Message  string          `json:"message,omitempty"`
	Result   *AnalysisResult `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}
