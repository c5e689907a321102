package httpapi

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/costs"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/eventlog"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/narrative"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/tts"
)

// speakRequest selects the text to speak and how to prepare it.
// Format "narrative" strips Markdown from a rendered narrative,
// "transcript" cleans a transcript, and "" sends the text as is.
type speakRequest struct {
	Text     string `json:"text"`
	Voice    string `json:"voice"`
	Language string `json:"language"`
	MaxChars int    `json:"max_chars"`
	Format   string `json:"format"`
}

func (s speakRequest) speechText() string {
	switch s.Format {
	case "narrative":
		return narrative.SpeechText(s.Text)
	case "transcript":
		return narrative.PlainText(s.Text)
	}
	return s.Text
}

// handleListVoices returns the available voice personas
func (r *Router) handleListVoices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"voices":  tts.Voices(),
		"default": tts.DefaultVoice,
	})
}

// handleSpeak synthesizes speech, serving repeats from the cache.
// It returns raw audio unless the client asks for JSON.
func (r *Router) handleSpeak(w http.ResponseWriter, req *http.Request) {
	var body speakRequest
	if err := json.NewDecoder(io.LimitReader(req.Body, 1<<20)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	switch body.Format {
	case "", "narrative", "transcript":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be narrative, transcript or empty"})
		return
	}
	if body.Voice == "" {
		body.Voice = tts.DefaultVoice
	}

	text := body.speechText()
	artifact, hit, err := r.speaker.Synthesize(req.Context(), text, body.Voice, body.Language, body.MaxChars)
	if err != nil {
		r.writeError(w, req, err, "speak: synthesis failed")
		return
	}

	var costCents float64
	if !hit {
		maxChars := body.MaxChars
		if maxChars <= 0 {
			maxChars = r.speaker.MaxChars()
		}
		costCents = costs.CalculateSpeechCost(len([]rune(tts.Truncate(text, maxChars))))
	}
	r.eventLog.Log(req.Context(), eventlog.EventSpeechSynthesized, map[string]any{
		"voice":      body.Voice,
		"cached":     hit,
		"bytes":      len(artifact.Audio),
		"cost_cents": costCents,
	})

	cacheHeader := "MISS"
	if hit {
		cacheHeader = "HIT"
	}
	w.Header().Set("X-Cache", cacheHeader)

	if wantsJSON(req) {
		writeJSON(w, http.StatusOK, map[string]any{
			"html":       artifact.HTMLPlayer(),
			"data_uri":   artifact.DataURI(),
			"cached":     hit,
			"cost_cents": costCents,
		})
		return
	}

	contentType := artifact.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Audio)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Audio)
}

func wantsJSON(req *http.Request) bool {
	for _, part := range strings.Split(req.Header.Get("Accept"), ",") {
		if mt, _, err := mime.ParseMediaType(strings.TrimSpace(part)); err == nil && mt == "application/json" {
			return true
		}
	}
	return false
}
