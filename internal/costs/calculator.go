// Package costs provides cost estimation for Deepgram API usage.
package costs

import (
	"math"
	"os"
	"strconv"
)

// Pricing constants (in cents per unit for precision).
// These are based on published Deepgram pay-as-you-go rates and can be
// overridden via environment variables.
var (
	// TranscriptionCentsPerMinute is the cost per minute for Nova-3 prerecorded STT.
	// Default: $0.0043/min = 0.43 cents/min
	TranscriptionCentsPerMinute = getEnvFloat("COST_DEEPGRAM_STT_CENTS_PER_MIN", 0.43)

	// AnalysisCentsPerThousandTokens is the cost per 1K input tokens for text intelligence.
	// Default: $0.0003/1K = 0.03 cents/1K tokens
	AnalysisCentsPerThousandTokens = getEnvFloat("COST_DEEPGRAM_READ_CENTS_PER_1K_TOKENS", 0.03)

	// SpeechCentsPerThousandChars is the cost per 1K characters for Aura-2 TTS.
	// Default: $0.030/1K chars = 3 cents/1K chars
	SpeechCentsPerThousandChars = getEnvFloat("COST_DEEPGRAM_TTS_CENTS_PER_1K_CHARS", 3.0)
)

// charsPerToken approximates tokenization for English text.
const charsPerToken = 4

// ProcessingMetrics contains the usage of one processing run.
type ProcessingMetrics struct {
	AudioSeconds  float64 // Audio processed by STT, 0 for text input
	AnalyzedChars int     // Characters sent to text intelligence
}

// ProcessingCosts contains the estimated costs of a processing run in cents.
type ProcessingCosts struct {
	TranscriptionCents float64 `json:"transcription_cents"`
	AnalysisCents      float64 `json:"analysis_cents"`
	TotalCents         float64 `json:"total_cents"`
}

// CalculateProcessingCosts estimates the costs of a run based on usage metrics.
func CalculateProcessingCosts(m ProcessingMetrics) ProcessingCosts {
	minutes := m.AudioSeconds / 60.0
	tokens := math.Ceil(float64(m.AnalyzedChars) / charsPerToken)

	c := ProcessingCosts{
		TranscriptionCents: roundCents(minutes * TranscriptionCentsPerMinute),
		AnalysisCents:      roundCents((tokens / 1000.0) * AnalysisCentsPerThousandTokens),
	}
	c.TotalCents = roundCents(c.TranscriptionCents + c.AnalysisCents)
	return c
}

// CalculateSpeechCost estimates the cost in cents of synthesizing chars characters.
// Cache hits cost nothing and should not be passed here.
func CalculateSpeechCost(chars int) float64 {
	if chars <= 0 {
		return 0
	}
	return roundCents((float64(chars) / 1000.0) * SpeechCentsPerThousandChars)
}

// roundCents rounds to 1/10000 of a cent; per-request costs are far below a cent.
func roundCents(f float64) float64 {
	return math.Round(f*10000) / 10000
}

// getEnvFloat returns an environment variable as float64, or the default if not set.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
