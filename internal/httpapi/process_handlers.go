package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/analysis"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/apperr"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/costs"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/eventlog"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/narrative"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/pipeline"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/stt"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/tts"
	"github.com/sirupsen/logrus"
)

// processRequest is the JSON form of a processing request. Data holds the
// audio URL or the text, depending on Kind.
type processRequest struct {
	Kind     string `json:"kind"`
	Data     string `json:"data"`
	Model    string `json:"model"`
	Language string `json:"language"`
	TopN     int    `json:"top_n"`
}

func (p processRequest) input() pipeline.Input {
	in := pipeline.Input{Kind: pipeline.Kind(strings.ToLower(strings.TrimSpace(p.Kind)))}
	switch in.Kind {
	case pipeline.KindURL:
		in.URL = strings.TrimSpace(p.Data)
	case pipeline.KindText:
		in.Text = p.Data
	}
	return in
}

func (p processRequest) options() pipeline.Options {
	return pipeline.Options{Model: p.Model, Language: p.Language}
}

type processResponse struct {
	RequestID  string                `json:"request_id"`
	Transcript string                `json:"transcript"`
	Analysis   analysis.Result       `json:"analysis"`
	Narrative  string                `json:"narrative"`
	Raw        json.RawMessage       `json:"raw,omitempty"`
	Duration   float64               `json:"duration,omitempty"`
	Cost       costs.ProcessingCosts `json:"cost"`
}

func newProcessResponse(ctx context.Context, res pipeline.Result, topN int) processResponse {
	return processResponse{
		RequestID:  eventlog.RequestID(ctx),
		Transcript: res.Transcript,
		Analysis:   res.Analysis,
		Narrative:  narrative.Render(res.Analysis, topN),
		Raw:        res.Raw,
		Duration:   res.Duration,
		Cost: costs.CalculateProcessingCosts(costs.ProcessingMetrics{
			AudioSeconds:  res.Duration,
			AnalyzedChars: len([]rune(res.Transcript)),
		}),
	}
}

// handleOptions returns the selectable models, languages and voices
func (r *Router) handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models":    stt.Models,
		"languages": analysis.Languages,
		"voices":    tts.Voices(),
		"defaults": map[string]any{
			"model":    stt.DefaultModel,
			"language": analysis.DefaultLanguage,
			"voice":    tts.DefaultVoice,
			"top_n":    narrative.DefaultTopN,
		},
	})
}

// handleProcess runs the pipeline for a JSON (url/text) or multipart (file) request
func (r *Router) handleProcess(w http.ResponseWriter, req *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.handleProcessUpload(w, req)
		return
	}

	var body processRequest
	if err := json.NewDecoder(io.LimitReader(req.Body, 1<<20)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	r.runProcess(w, req, body.input(), body.options(), body.TopN)
}

func (r *Router) handleProcessUpload(w http.ResponseWriter, req *http.Request) {
	if req.ContentLength > r.cfg.MaxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
		return
	}
	req.Body = http.MaxBytesReader(w, req.Body, r.cfg.MaxUploadBytes)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()

	topN, _ := strconv.Atoi(req.FormValue("top_n"))
	in := pipeline.Input{
		Kind:        pipeline.KindFile,
		Audio:       file,
		ContentType: header.Header.Get("Content-Type"),
	}
	opts := pipeline.Options{Model: req.FormValue("model"), Language: req.FormValue("language")}

	r.runProcess(w, req, in, opts, topN)
}

func (r *Router) runProcess(w http.ResponseWriter, req *http.Request, in pipeline.Input, opts pipeline.Options, topN int) {
	res, err := r.pipeline.Process(req.Context(), in, opts)
	if err != nil {
		r.writeError(w, req, err, "process: pipeline failed")
		return
	}

	resp := newProcessResponse(req.Context(), res, topN)
	r.logger.WithFields(logrus.Fields{
		"request_id": resp.RequestID,
		"client":     clientID(req.Context()),
		"kind":       in.Kind,
		"cost_cents": resp.Cost.TotalCents,
	}).Info("process: completed")

	writeJSON(w, http.StatusOK, resp)
}

// handleNarrative renders a narrative for an existing analysis. The body
// carries either the canonical analysis or the raw analysis response.
func (r *Router) handleNarrative(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Analysis *analysis.Result `json:"analysis"`
		Raw      json.RawMessage  `json:"raw"`
		TopN     int              `json:"top_n"`
	}
	if err := json.NewDecoder(io.LimitReader(req.Body, 10<<20)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var result analysis.Result
	switch {
	case len(body.Raw) > 0:
		res, err := analysis.Normalize(body.Raw)
		if err != nil {
			// The caller sent the document, so a bad one is their fault.
			writeJSON(w, http.StatusBadRequest, errorBody{
				Error:     err.Error(),
				Kind:      string(apperr.KindOf(err)),
				RequestID: eventlog.RequestID(req.Context()),
			})
			return
		}
		result = res
	case body.Analysis != nil:
		result = *body.Analysis
		if result.Topics == nil {
			result.Topics = []analysis.Topic{}
		}
		if result.Intents == nil {
			result.Intents = []analysis.Intent{}
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "analysis or raw is required"})
		return
	}

	md := narrative.Render(result, body.TopN)
	writeJSON(w, http.StatusOK, map[string]any{
		"analysis":    result,
		"narrative":   md,
		"speech_text": narrative.SpeechText(md),
	})
}
