package narrative

import (
	"strings"
	"testing"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/analysis"
)

func TestRender_Full(t *testing.T) {
	r := analysis.Result{
		Sentiment: analysis.Sentiment{Label: "positive", Score: analysis.Float(0.756)},
		Topics: []analysis.Topic{
			{Topic: "a", Score: analysis.Float(0.2)},
			{Topic: "b", Score: analysis.Float(0.9)},
			{Topic: "c"},
		},
		Intents: []analysis.Intent{
			{Intent: "Purchase product", Score: analysis.Float(0.8)},
		},
	}

	want := `### Polarity / Sentiment
The overall sentiment of the text is **positive** with a confidence score of **0.76**.

### Topics
The main topics discussed include:
- b (confidence 0.90)
- a (confidence 0.20)
- c (confidence 0.00)

### Intent
The text suggests an intent of:
- Purchase product (confidence 0.80)`

	if got := Render(r, 5); got != want {
		t.Errorf("Render mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_EmptyResult(t *testing.T) {
	want := `### Polarity / Sentiment
The overall sentiment of the text is **** with a confidence score of **0.00**.

### Topics
No significant topics were detected.

### Intent
No clear intent was identified.`

	if got := Render(analysis.Empty(), DefaultTopN); got != want {
		t.Errorf("Render mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_Deterministic(t *testing.T) {
	r := analysis.Result{
		Sentiment: analysis.Sentiment{Label: "neutral"},
		Topics: []analysis.Topic{
			{Topic: "x", Score: analysis.Float(0.5)},
			{Topic: "y", Score: analysis.Float(0.5)},
			{Topic: "z", Score: analysis.Float(0.5)},
		},
		Intents: []analysis.Intent{{Intent: "i1"}, {Intent: "i2"}},
	}

	first := Render(r, 5)
	for i := 0; i < 10; i++ {
		if got := Render(r, 5); got != first {
			t.Fatalf("render %d differs:\n%s\nvs\n%s", i, got, first)
		}
	}
	if r.Topics[0].Topic != "x" || r.Topics[2].Topic != "z" {
		t.Error("Render must not reorder the caller's topics")
	}
}

func TestRender_IntentHeaders(t *testing.T) {
	tests := []struct {
		name    string
		intents []analysis.Intent
		want    string
		notWant []string
	}{
		{"none", nil, "No clear intent was identified.", []string{"an intent of", "multiple intents"}},
		{"one", []analysis.Intent{{Intent: "ask"}}, "The text suggests an intent of:", []string{"multiple intents", "No clear intent"}},
		{"two", []analysis.Intent{{Intent: "ask"}, {Intent: "buy"}}, "The text suggests multiple intents, including:", []string{"an intent of", "No clear intent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := analysis.Empty()
			if tt.intents != nil {
				r.Intents = tt.intents
			}
			got := Render(r, 5)
			if !strings.Contains(got, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, got)
			}
			for _, s := range tt.notWant {
				if strings.Contains(got, s) {
					t.Errorf("output should not contain %q:\n%s", s, got)
				}
			}
		})
	}
}

func TestRender_IntentsKeepOrderAndAreNotTruncated(t *testing.T) {
	r := analysis.Empty()
	for _, name := range []string{"low", "high", "mid", "four", "five", "six", "seven"} {
		r.Intents = append(r.Intents, analysis.Intent{Intent: name, Score: analysis.Float(0.1)})
	}
	r.Intents[1].Score = analysis.Float(0.99)

	got := Render(r, 2)
	last := -1
	for _, it := range r.Intents {
		idx := strings.Index(got, "- "+it.Intent+" ")
		if idx < 0 {
			t.Fatalf("intent %q missing from output", it.Intent)
		}
		if idx < last {
			t.Errorf("intent %q out of order", it.Intent)
		}
		last = idx
	}
}

func TestRender_TopNTruncation(t *testing.T) {
	r := analysis.Empty()
	for i, name := range []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7"} {
		r.Topics = append(r.Topics, analysis.Topic{Topic: name, Score: analysis.Float(float64(i) / 10)})
	}

	tests := []struct {
		topN int
		want []string
		miss []string
	}{
		{2, []string{"t7", "t6"}, []string{"t5", "t1"}},
		{0, []string{"t7", "t6", "t5", "t4", "t3"}, []string{"t2", "t1"}},
		{-1, []string{"t7", "t3"}, []string{"t2"}},
		{10, []string{"t7", "t1"}, nil},
	}

	for _, tt := range tests {
		got := Render(r, tt.topN)
		for _, s := range tt.want {
			if !strings.Contains(got, "- "+s+" ") {
				t.Errorf("topN=%d: missing %s", tt.topN, s)
			}
		}
		for _, s := range tt.miss {
			if strings.Contains(got, "- "+s+" ") {
				t.Errorf("topN=%d: should not list %s", tt.topN, s)
			}
		}
	}
}

func TestTopTopics_StableAndNilAsZero(t *testing.T) {
	topics := []analysis.Topic{
		{Topic: "nil-first"},
		{Topic: "neg", Score: analysis.Float(-0.1)},
		{Topic: "zero", Score: analysis.Float(0)},
		{Topic: "one", Score: analysis.Float(1)},
	}

	got := TopTopics(topics, 10)
	want := []string{"one", "nil-first", "zero", "neg"}
	for i, name := range want {
		if got[i].Topic != name {
			t.Errorf("rank %d = %q, want %q", i, got[i].Topic, name)
		}
	}
}
