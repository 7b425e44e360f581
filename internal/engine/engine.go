// Package engine computes statistical origin signals from a content sample
// and derives a verdict with a probability split. It is pure: no I/O, no
// shared state, deterministic for text given identical input (forensic log
// timestamps aside).
package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/syedismail7230/Authai/internal/models"
)

// Pattern tags attached to a result when the matching rule fires.
const (
	PatternLowSentenceVariance  = "LOW_SENTENCE_VARIANCE"
	PatternStatisticalSmoothing = "STATISTICAL_SMOOTHING"
	PatternLoopingTokens        = "LOOPING_TOKENS"
	PatternUnsupportedType      = "UNSUPPORTED_FILE_TYPE_FOR_LOGIC_ENGINE"
)

const (
	// entropyCeiling normalizes Shannon entropy to [0,100]. 6 bits/char is an
	// empirical ceiling for natural-language text.
	entropyCeiling = 6.0
	// burstinessCeiling normalizes the sentence-length standard deviation.
	burstinessCeiling = 10.0

	probabilityFloor = 5.0
	probabilityCap   = 99.0
)

// EntropyBits returns the Shannon entropy of the character-frequency
// distribution of content, in bits per character. The sum runs over runes in
// sorted order so the floating-point result is identical across runs.
func EntropyBits(content string) float64 {
	if content == "" {
		return 0
	}
	freq := make(map[rune]int)
	total := 0
	for _, r := range content {
		freq[r]++
		total++
	}
	runes := make([]rune, 0, len(freq))
	for r := range freq {
		runes = append(runes, r)
	}
	slices.Sort(runes)

	var bits float64
	for _, r := range runes {
		p := float64(freq[r]) / float64(total)
		bits -= p * math.Log2(p)
	}
	return bits
}

// BurstinessRaw returns the standard deviation of per-sentence word counts.
// Fewer than two sentences is insufficient signal and yields exactly 0.
func BurstinessRaw(content string) float64 {
	sentences := splitSentences(content)
	if len(sentences) < 2 {
		return 0
	}
	counts := make([]float64, len(sentences))
	var sum float64
	for i, s := range sentences {
		counts[i] = float64(len(strings.Fields(s)))
		sum += counts[i]
	}
	mean := sum / float64(len(counts))
	var variance float64
	for _, c := range counts {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(counts))
	return math.Sqrt(variance)
}

// RepetitionRatio returns 1 - (distinct tokens / total tokens) over the
// lowercase whitespace-delimited tokens of content. Range [0,1]; higher means
// more repetitive. Empty content yields 0.
func RepetitionRatio(content string) float64 {
	tokens := strings.Fields(strings.ToLower(content))
	if len(tokens) == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		unique[t] = struct{}{}
	}
	return 1 - float64(len(unique))/float64(len(tokens))
}

// ContentHash returns the hex SHA-256 digest of the raw content bytes. The
// format is identical for every content type.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Score analyzes content and returns the full result. CODE is scored through
// the TEXT path. Image, audio and video have no deep content model here: they
// return an honest low-confidence UNCERTAIN result rather than a faked score.
func Score(content string, ct models.ContentType) models.AnalysisResult {
	switch ct {
	case models.ContentTypeText, models.ContentTypeCode:
		return scoreText(content)
	default:
		return scoreUnsupported(content)
	}
}

func scoreText(content string) models.AnalysisResult {
	now := time.Now().UTC()

	entropyBits := EntropyBits(content)
	entropyScore := clamp(entropyBits/entropyCeiling*100, 0, 100)

	burstRaw := BurstinessRaw(content)
	burstScore := clamp(burstRaw/burstinessCeiling*100, 0, 100)

	repetition := RepetitionRatio(content)

	var (
		aiPoints float64
		patterns []string
		logs     []models.ForensicLog
	)

	burstStatus := models.LogStatusOK
	if burstRaw < 5 {
		aiPoints += 30
		patterns = append(patterns, PatternLowSentenceVariance)
		burstStatus = models.LogStatusWarn
	}
	logs = append(logs, models.ForensicLog{
		ID: "BRS-CHECK", Timestamp: now, Action: "BURSTINESS_CHECK", Status: burstStatus,
	})

	if entropyBits > 3.8 && entropyBits < 4.8 {
		aiPoints += 20
		patterns = append(patterns, PatternStatisticalSmoothing)
		logs = append(logs, models.ForensicLog{
			ID: "ENT-SCAN", Timestamp: now, Action: "ENTROPY_PROFILING", Status: models.LogStatusWarn,
		})
	} else {
		logs = append(logs, models.ForensicLog{
			ID: "ENT-SCAN", Timestamp: now, Action: "ENTROPY_PROFILING", Status: models.LogStatusOK,
		})
	}

	if repetition > 0.4 {
		aiPoints += 40
		patterns = append(patterns, PatternLoopingTokens)
		logs = append(logs, models.ForensicLog{
			ID: "REP-SCAN", Timestamp: now, Action: "TOKEN_REPETITION_SCAN", Status: models.LogStatusCritical,
		})
	} else {
		logs = append(logs, models.ForensicLog{
			ID: "REP-SCAN", Timestamp: now, Action: "TOKEN_REPETITION_SCAN", Status: models.LogStatusOK,
		})
	}

	// Never absolute certainty in either direction.
	aiProbability := clamp(aiPoints, probabilityFloor, probabilityCap)
	humanProbability := 100 - aiProbability

	var verdict models.Verdict
	switch {
	case aiProbability > 75:
		verdict = models.VerdictAIGenerated
	case aiProbability > 40:
		verdict = models.VerdictAIAssisted
	default:
		verdict = models.VerdictHuman
	}

	return models.AnalysisResult{
		Verdict:          verdict,
		ConfidenceScore:  confidence(aiProbability),
		PerplexityScore:  100 - entropyScore,
		BurstinessScore:  burstScore,
		EntropyScore:     entropyScore,
		AIProbability:    aiProbability,
		HumanProbability: humanProbability,
		DetectedPatterns: patterns,
		ForensicLogs:     logs,
		ContentHash:      ContentHash(content),
	}
}

func scoreUnsupported(content string) models.AnalysisResult {
	return models.AnalysisResult{
		Verdict:          models.VerdictUncertain,
		ConfidenceScore:  0,
		PerplexityScore:  0,
		BurstinessScore:  0,
		EntropyScore:     0,
		AIProbability:    50,
		HumanProbability: 50,
		DetectedPatterns: []string{PatternUnsupportedType},
		ForensicLogs: []models.ForensicLog{{
			ID:        "TYPE-GATE",
			Timestamp: time.Now().UTC(),
			Action:    PatternUnsupportedType,
			Status:    models.LogStatusWarn,
		}},
		ContentHash: ContentHash(content),
	}
}

// confidence maps signal strength (distance of the probability split from an
// even 50/50) into [80,95]. A deterministic stand-in for a real reliability
// estimate; its only contract is the range.
func confidence(aiProbability float64) float64 {
	strength := math.Abs(aiProbability-50) / 50
	return math.Round((80+15*strength)*10) / 10
}

func splitSentences(content string) []string {
	parts := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	sentences := parts[:0]
	for _, p := range parts {
		if strings.TrimFunc(p, unicode.IsSpace) != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
