package models

import "time"

// ContentType identifies the kind of artifact submitted for analysis.
type ContentType string

const (
	ContentTypeText  ContentType = "TEXT"
	ContentTypeImage ContentType = "IMAGE"
	ContentTypeAudio ContentType = "AUDIO"
	ContentTypeVideo ContentType = "VIDEO"
	ContentTypeCode  ContentType = "CODE" // scored through the TEXT path
)

// Valid reports whether ct is one of the accepted content types.
func (ct ContentType) Valid() bool {
	switch ct {
	case ContentTypeText, ContentTypeImage, ContentTypeAudio, ContentTypeVideo, ContentTypeCode:
		return true
	}
	return false
}

// Verdict is the categorical conclusion about content origin.
type Verdict string

const (
	VerdictHuman       Verdict = "HUMAN"
	VerdictAIGenerated Verdict = "AI_GENERATED"
	VerdictAIAssisted  Verdict = "AI_ASSISTED"
	VerdictUncertain   Verdict = "UNCERTAIN"
)

// LogStatus grades a forensic log entry.
type LogStatus string

const (
	LogStatusOK       LogStatus = "OK"
	LogStatusWarn     LogStatus = "WARN"
	LogStatusCritical LogStatus = "CRITICAL"
)

// ForensicLog is one entry of the engine's audit trail.
type ForensicLog struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Status    LogStatus `json:"status"`
}

// AnalysisResult is the scoring engine's output. All scores are in [0,100]
// and AIProbability+HumanProbability always sum to 100.
//
// PerplexityScore is a heuristic proxy (the inverse of the normalized entropy
// score), not a language-model perplexity.
type AnalysisResult struct {
	Verdict          Verdict       `json:"verdict"`
	ConfidenceScore  float64       `json:"confidenceScore"`
	PerplexityScore  float64       `json:"perplexityScore"`
	BurstinessScore  float64       `json:"burstinessScore"`
	EntropyScore     float64       `json:"entropyScore"`
	AIProbability    float64       `json:"aiProbability"`
	HumanProbability float64       `json:"humanProbability"`
	DetectedPatterns []string      `json:"detectedPatterns"`
	ForensicLogs     []ForensicLog `json:"forensicLogs"`
	ContentHash      string        `json:"contentHash"`
}
