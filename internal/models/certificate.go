package models

import "time"

// Certificate is an immutable, content-hash-bound attestation of a prior
// analysis verdict. Once issued it is never mutated; a content alteration
// invalidates the binding only logically (the hash stops matching).
type Certificate struct {
	ID             string      `json:"id"`
	IssueDate      time.Time   `json:"issueDate"`
	ContentHash    string      `json:"contentHash"`
	Owner          string      `json:"owner"`
	Verdict        Verdict     `json:"verdict"`
	ContentPreview string      `json:"contentPreview,omitempty"`
	ContentType    ContentType `json:"contentType"`
}

// AnalyzeRequest is the submission payload.
type AnalyzeRequest struct {
	Content string      `json:"content" binding:"required"`
	Type    ContentType `json:"type" binding:"required"`
}

// IssueCertificateRequest asks for a certificate from a completed job. The
// caller supplies the preview snippet; the pipeline does not retain raw
// content after scoring.
type IssueCertificateRequest struct {
	JobID          string `json:"jobId" binding:"required"`
	Owner          string `json:"owner"`
	ContentPreview string `json:"contentPreview"`
}

// Enrichment is the optional payload returned by the external inference
// collaborator. It augments the heuristic result; it never replaces it.
type Enrichment struct {
	Patterns  []string `json:"patterns"`
	Reasoning string   `json:"reasoning"`
	Model     string   `json:"model"`
}
