package eventlog

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EventType represents the type of processing event
type EventType string

const (
	EventTranscriptionStarted   EventType = "transcription_started"
	EventTranscriptionCompleted EventType = "transcription_completed"
	EventAnalysisStarted        EventType = "analysis_started"
	EventAnalysisCompleted      EventType = "analysis_completed"
	EventProcessingCompleted    EventType = "processing_completed"
	EventProcessingFailed       EventType = "processing_failed"
	EventSpeechSynthesized      EventType = "speech_synthesized"
)

// Event is one stage notification for a request.
type Event struct {
	RequestID string         `json:"request_id,omitempty"`
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Time      time.Time      `json:"time"`
}

// Listener receives events for a single request.
type Listener func(Event)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	listenersKey
)

// WithRequestID tags ctx with the request ID used on every event.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithListener attaches fn to ctx; events logged with that ctx are also
// delivered to fn, synchronously and in order.
func WithListener(ctx context.Context, fn Listener) context.Context {
	prev, _ := ctx.Value(listenersKey).([]Listener)
	next := make([]Listener, 0, len(prev)+1)
	next = append(next, prev...)
	next = append(next, fn)
	return context.WithValue(ctx, listenersKey, next)
}

// Logger writes processing events as structured log lines and fans them
// out to listeners attached to the request context.
type Logger struct {
	log *logrus.Logger
	mu  sync.Mutex // serializes listener delivery
}

// New creates a new event logger. A nil log disables log output but
// listeners still receive events.
func New(log *logrus.Logger) *Logger {
	return &Logger{log: log}
}

// Log records an event for the request carried by ctx.
func (l *Logger) Log(ctx context.Context, eventType EventType, data map[string]any) {
	if l == nil {
		return
	}

	ev := Event{
		RequestID: RequestID(ctx),
		Type:      eventType,
		Data:      data,
		Time:      time.Now(),
	}

	if l.log != nil {
		fields := logrus.Fields{"event": string(eventType)}
		if ev.RequestID != "" {
			fields["request_id"] = ev.RequestID
		}
		for k, v := range data {
			fields[k] = v
		}
		entry := l.log.WithFields(fields)
		if eventType == EventProcessingFailed {
			entry.Warn("event")
		} else {
			entry.Debug("event")
		}
	}

	listeners, _ := ctx.Value(listenersKey).([]Listener)
	if len(listeners) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}
