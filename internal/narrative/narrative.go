// Package narrative renders an analysis result as a short Markdown summary.
package narrative

import (
	"fmt"
	"sort"
	"strings"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/analysis"
)

// DefaultTopN is how many topics are listed when the caller does not say.
const DefaultTopN = 5

const (
	noTopics  = "No significant topics were detected."
	noIntents = "No clear intent was identified."
)

// Render builds the three-section narrative (sentiment, topics, intents).
// It is a pure function of r and topN; topN <= 0 means DefaultTopN.
func Render(r analysis.Result, topN int) string {
	if topN <= 0 {
		topN = DefaultTopN
	}

	var b strings.Builder

	b.WriteString("### Polarity / Sentiment\n")
	fmt.Fprintf(&b, "The overall sentiment of the text is **%s** with a confidence score of **%.2f**.\n",
		r.Sentiment.Label, analysis.ScoreOrZero(r.Sentiment.Score))

	b.WriteString("\n### Topics\n")
	top := TopTopics(r.Topics, topN)
	if len(top) == 0 {
		b.WriteString(noTopics + "\n")
	} else {
		b.WriteString("The main topics discussed include:\n")
		for _, t := range top {
			fmt.Fprintf(&b, "- %s (confidence %.2f)\n", t.Topic, analysis.ScoreOrZero(t.Score))
		}
	}

	b.WriteString("\n### Intent\n")
	switch len(r.Intents) {
	case 0:
		b.WriteString(noIntents + "\n")
	case 1:
		b.WriteString("The text suggests an intent of:\n")
	default:
		b.WriteString("The text suggests multiple intents, including:\n")
	}
	for _, it := range r.Intents {
		fmt.Fprintf(&b, "- %s (confidence %.2f)\n", it.Intent, analysis.ScoreOrZero(it.Score))
	}

	return strings.TrimRight(b.String(), "\n")
}

// TopTopics returns the n highest-scoring topics. Ties keep their input
// order and a missing score ranks as 0. The input slice is not modified.
func TopTopics(topics []analysis.Topic, n int) []analysis.Topic {
	ranked := make([]analysis.Topic, len(topics))
	copy(ranked, topics)
	sort.SliceStable(ranked, func(i, j int) bool {
		return analysis.ScoreOrZero(ranked[i].Score) > analysis.ScoreOrZero(ranked[j].Score)
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
