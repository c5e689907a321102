// Package analysis turns Deepgram text-intelligence responses into a stable
// sentiment/topics/intents record.
package analysis

// Sentiment is the averaged sentiment over the analysed text.
type Sentiment struct {
	Label string   `json:"label"`
	Score *float64 `json:"score"`
}

// Topic is one detected topic. Entries keep the order the service returned.
type Topic struct {
	Topic string   `json:"topic"`
	Score *float64 `json:"score"`
}

// Intent is one detected intent.
type Intent struct {
	Intent string   `json:"intent"`
	Score  *float64 `json:"score"`
}

// Result is the canonical analysis shape every consumer depends on.
// Topics and Intents are never nil so they always marshal as arrays.
type Result struct {
	Sentiment Sentiment `json:"sentiment"`
	Topics    []Topic   `json:"topics"`
	Intents   []Intent  `json:"intents"`
}

// Empty returns a Result with every field at its default.
func Empty() Result {
	return Result{Topics: []Topic{}, Intents: []Intent{}}
}

// Float returns a pointer to f, handy for building results by hand.
func Float(f float64) *float64 { return &f }

// ScoreOrZero returns the score value, treating a missing score as 0.
func ScoreOrZero(s *float64) float64 {
	if s == nil {
		return 0
	}
	return *s
}
