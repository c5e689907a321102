package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/apperr"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/eventlog"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/notifications"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/pipeline"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/tts"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	CORSOrigins []string

	// JWT Authentication (disabled when JWTSecret is empty)
	JWTSecret string
	JWTExpiry time.Duration
	AccessKey string

	// Uploads
	MaxUploadBytes int64

	// Served at /metrics when set
	MetricsHandler http.Handler
}

// Processor runs the transcribe and analyze stages.
type Processor interface {
	Process(ctx context.Context, in pipeline.Input, opts pipeline.Options) (pipeline.Result, error)
}

// Synthesizer turns text into cached speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, language string, maxChars int) (tts.Artifact, bool, error)
	// MaxChars is the ceiling applied when a request sets none.
	MaxChars() int
}

type Router struct {
	cfg      RouterConfig
	logger   *logrus.Logger
	pipeline Processor
	speaker  Synthesizer
	eventLog *eventlog.Logger
	discord  *notifications.Discord
	inflight *RequestRegistry
	mux      *http.ServeMux
}

func NewRouter(cfg RouterConfig, logger *logrus.Logger, p Processor, speaker Synthesizer, eventLog *eventlog.Logger, discord *notifications.Discord, inflight *RequestRegistry) http.Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 100 << 20
	}
	if cfg.JWTExpiry <= 0 {
		cfg.JWTExpiry = 24 * time.Hour
	}
	if inflight == nil {
		inflight = NewRequestRegistry()
	}

	r := &Router{
		cfg:      cfg,
		logger:   logger,
		pipeline: p,
		speaker:  speaker,
		eventLog: eventLog,
		discord:  discord,
		inflight: inflight,
		mux:      http.NewServeMux(),
	}

	r.routes()
	return withSentryRecovery(withCORS(cfg.CORSOrigins, withRequestID(r.mux)))
}

func (r *Router) routes() {
	// Health check
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)
	if r.cfg.MetricsHandler != nil {
		r.mux.Handle("GET /metrics", r.cfg.MetricsHandler)
	}

	// Auth endpoints (public)
	r.mux.HandleFunc("POST /auth/token", r.handleIssueToken)

	// Catalog
	r.mux.HandleFunc("GET /api/options", r.withAuth(r.handleOptions))
	r.mux.HandleFunc("GET /api/voices", r.withAuth(r.handleListVoices))

	// Processing (tracked for graceful drain)
	r.mux.HandleFunc("POST /api/process", r.withAuth(r.tracked(r.handleProcess)))
	r.mux.HandleFunc("POST /api/narrative", r.withAuth(r.handleNarrative))
	r.mux.HandleFunc("POST /api/speak", r.withAuth(r.tracked(r.handleSpeak)))
	r.mux.HandleFunc("GET /ws/process", r.withAuth(r.tracked(r.handleProcessWS)))
}

func (r *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	if r.inflight.IsDraining() {
		http.Error(w, "draining", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// tracked rejects new work while draining and counts in-flight requests.
func (r *Router) tracked(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if !r.inflight.Add() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "server is shutting down"})
			return
		}
		defer r.inflight.Done()
		next(w, req)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON shape of every failed API call.
type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Stage     string `json:"stage,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// newErrorBody maps err onto a status code and a response body. Validation
// failures are the caller's fault (400); everything else failed upstream (502).
func newErrorBody(ctx context.Context, err error) (int, errorBody) {
	body := errorBody{
		Error:     err.Error(),
		Kind:      string(apperr.KindOf(err)),
		RequestID: eventlog.RequestID(ctx),
	}
	var pe *pipeline.ProcessingError
	if errors.As(err, &pe) {
		body.Stage = pe.Stage
		body.Error = pe.Err.Error()
	}
	if apperr.Is(err, apperr.KindValidation) {
		return http.StatusBadRequest, body
	}
	return http.StatusBadGateway, body
}

// writeError reports err to the client; upstream failures also go to
// Sentry and Discord.
func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error, msg string) {
	status, body := newErrorBody(req.Context(), err)
	if status != http.StatusBadRequest {
		r.reportFailure(req, err, body, msg)
	}
	writeJSON(w, status, body)
}

func (r *Router) reportFailure(req *http.Request, err error, body errorBody, msg string) {
	r.logger.WithFields(logrus.Fields{
		"request_id": body.RequestID,
		"kind":       body.Kind,
		"stage":      body.Stage,
	}).WithError(err).Error(msg)
	captureError(req, err, msg)
	stage := body.Stage
	if stage == "" {
		stage = body.Kind
	}
	r.discord.NotifyProcessingFailed(req.Context(), body.RequestID, stage, body.Error)
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func withCORS(origins []string, next http.Handler) http.Handler {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		origin := req.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,Accept,X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Cache,X-Request-ID")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// withRequestID tags each request with an ID, reusing a sane X-Request-ID
// from the client.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, req.WithContext(eventlog.WithRequestID(req.Context(), id)))
	})
}

// captureError sends an error to Sentry with request context
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		scope.SetTag("request_id", eventlog.RequestID(req.Context()))
		if kind := apperr.KindOf(err); kind != "" {
			scope.SetTag("error_kind", string(kind))
		}
		sentry.CaptureException(err)
	})
}
