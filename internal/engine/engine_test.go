package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syedismail7230/Authai/internal/models"
)

const (
	repetitiveText = "This is fine. This is fine. This is fine."
	variedText     = "Wow! Zany zebra quilts from Djibouti vex my plucky, dozing JPEG hag after 1906 baroque jigs & 42 fuzzy sphinx waltzes; (X7) @dusk #camp 38.5 kHz!"
)

func TestEntropyBits(t *testing.T) {
	assert.Zero(t, EntropyBits(""))
	assert.Zero(t, EntropyBits("aaaa"), "single symbol carries no information")
	assert.InDelta(t, 1.0, EntropyBits("abab"), 1e-9, "two equally likely symbols = 1 bit")
	assert.InDelta(t, 2.0, EntropyBits("abcd"), 1e-9)
}

func TestBurstinessRaw(t *testing.T) {
	assert.Zero(t, BurstinessRaw(""), "empty input must be 0, not NaN")
	assert.Zero(t, BurstinessRaw("one single sentence without terminator"))
	assert.Zero(t, BurstinessRaw("Only one sentence here."))
	assert.Zero(t, BurstinessRaw("Three words here. Three words too."), "equal lengths have no variance")

	// Word counts 1 and 5: mean 3, stddev 2.
	assert.InDelta(t, 2.0, BurstinessRaw("Hey. This one has five words."), 1e-9)
}

func TestRepetitionRatio(t *testing.T) {
	assert.Zero(t, RepetitionRatio(""))
	assert.Zero(t, RepetitionRatio("every token appears exactly once"))

	// One word repeated N times approaches (N-1)/N.
	n := 10
	repeated := strings.TrimSpace(strings.Repeat("echo ", n))
	assert.InDelta(t, float64(n-1)/float64(n), RepetitionRatio(repeated), 1e-9)

	// Case-insensitive tokenization.
	assert.InDelta(t, 0.5, RepetitionRatio("Word word"), 1e-9)
}

func TestEntropyBitsBitExactAcrossRuns(t *testing.T) {
	// Many distinct runes so a frequency-map iteration order leak would show
	// up as a last-ULP difference in the accumulated sum.
	content := variedText + " äöü 日本語 0123456789"
	want := EntropyBits(content)
	for i := 0; i < 200; i++ {
		assert.Equal(t, want, EntropyBits(content))
	}
}

func TestContentHashDeterministic(t *testing.T) {
	h1 := ContentHash("some content")
	h2 := ContentHash("some content")
	h3 := ContentHash("some content!")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64, "hex-encoded sha-256")
}

func TestScoreProbabilityInvariants(t *testing.T) {
	samples := []string{
		repetitiveText,
		variedText,
		"x",
		"a a a a a a a a a a.",
		"One. Two three. Four five six seven eight nine ten eleven twelve!",
	}
	for _, content := range samples {
		result := Score(content, models.ContentTypeText)

		assert.InDelta(t, 100, result.AIProbability+result.HumanProbability, 1e-9, content)
		assert.GreaterOrEqual(t, result.AIProbability, 5.0, content)
		assert.LessOrEqual(t, result.AIProbability, 99.0, content)
		assert.GreaterOrEqual(t, result.ConfidenceScore, 0.0)
		assert.LessOrEqual(t, result.ConfidenceScore, 100.0)
		for _, score := range []float64{result.EntropyScore, result.BurstinessScore, result.PerplexityScore} {
			assert.GreaterOrEqual(t, score, 0.0, content)
			assert.LessOrEqual(t, score, 100.0, content)
		}
	}
}

func TestScoreRepetitiveText(t *testing.T) {
	result := Score(repetitiveText, models.ContentTypeText)

	assert.Contains(t, []models.Verdict{models.VerdictAIGenerated, models.VerdictAIAssisted}, result.Verdict)
	assert.Contains(t, result.DetectedPatterns, PatternLoopingTokens)
	assert.Contains(t, result.DetectedPatterns, PatternLowSentenceVariance)
	assert.Greater(t, result.AIProbability, 40.0)

	var critical bool
	for _, log := range result.ForensicLogs {
		if log.Status == models.LogStatusCritical {
			critical = true
		}
	}
	assert.True(t, critical, "looping tokens must log a CRITICAL entry")
}

func TestScoreVariedHumanText(t *testing.T) {
	require.Greater(t, BurstinessRaw(variedText), 5.0)
	require.Zero(t, RepetitionRatio(variedText))

	result := Score(variedText, models.ContentTypeText)

	assert.Equal(t, models.VerdictHuman, result.Verdict)
	assert.Equal(t, 5.0, result.AIProbability, "no rule fired, clamped to the floor")
	assert.Equal(t, 95.0, result.HumanProbability)
	assert.Empty(t, result.DetectedPatterns)
}

func TestScoreCodeFoldsIntoText(t *testing.T) {
	content := "for i := 0; i < n; i++ { sum += i }"
	asText := Score(content, models.ContentTypeText)
	asCode := Score(content, models.ContentTypeCode)

	assert.Equal(t, asText.Verdict, asCode.Verdict)
	assert.Equal(t, asText.AIProbability, asCode.AIProbability)
	assert.Equal(t, asText.EntropyScore, asCode.EntropyScore)
	assert.Equal(t, asText.DetectedPatterns, asCode.DetectedPatterns)
}

func TestScoreUnsupportedTypes(t *testing.T) {
	for _, ct := range []models.ContentType{models.ContentTypeImage, models.ContentTypeAudio, models.ContentTypeVideo} {
		result := Score("base64-blob", ct)

		assert.Equal(t, models.VerdictUncertain, result.Verdict, ct)
		assert.Equal(t, 50.0, result.AIProbability, ct)
		assert.Equal(t, 50.0, result.HumanProbability, ct)
		assert.Zero(t, result.ConfidenceScore, ct)
		assert.Contains(t, result.DetectedPatterns, PatternUnsupportedType, ct)
		require.Len(t, result.ForensicLogs, 1)
		assert.Equal(t, models.LogStatusWarn, result.ForensicLogs[0].Status)
		assert.Equal(t, ContentHash("base64-blob"), result.ContentHash, "hash format is type-independent")
	}
}

func TestScoreDeterministicForText(t *testing.T) {
	a := Score(repetitiveText, models.ContentTypeText)
	b := Score(repetitiveText, models.ContentTypeText)

	assert.Equal(t, a.Verdict, b.Verdict)
	assert.Equal(t, a.AIProbability, b.AIProbability)
	assert.Equal(t, a.ConfidenceScore, b.ConfidenceScore)
	assert.Equal(t, a.DetectedPatterns, b.DetectedPatterns)
	assert.Equal(t, a.ContentHash, b.ContentHash)
}

func TestPerplexityIsInverseEntropy(t *testing.T) {
	result := Score(variedText, models.ContentTypeText)
	assert.InDelta(t, 100, result.PerplexityScore+result.EntropyScore, 1e-9)
}
