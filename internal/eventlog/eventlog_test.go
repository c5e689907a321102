package eventlog

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestEventTypeConstants(t *testing.T) {
	expectedEvents := map[EventType]string{
		EventTranscriptionStarted:   "transcription_started",
		EventTranscriptionCompleted: "transcription_completed",
		EventAnalysisStarted:        "analysis_started",
		EventAnalysisCompleted:      "analysis_completed",
		EventProcessingCompleted:    "processing_completed",
		EventProcessingFailed:       "processing_failed",
		EventSpeechSynthesized:      "speech_synthesized",
	}

	for eventType, expectedValue := range expectedEvents {
		if string(eventType) != expectedValue {
			t.Errorf("EventType %q = %q, want %q", expectedValue, string(eventType), expectedValue)
		}
	}
}

func TestLoggerNew(t *testing.T) {
	// Test that New returns a non-nil logger even with nil log
	logger := New(nil)
	if logger == nil {
		t.Error("New(nil) should return a non-nil logger")
	}
}

func TestLoggerNilSafe(t *testing.T) {
	var logger *Logger
	// Should not panic
	logger.Log(context.Background(), EventAnalysisStarted, nil)
}

func TestLoggerWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logrus.JSONFormatter{})

	ctx := WithRequestID(context.Background(), "req-1")
	New(log).Log(ctx, EventTranscriptionCompleted, map[string]any{"chars": 42})

	out := buf.String()
	for _, want := range []string{`"event":"transcription_completed"`, `"request_id":"req-1"`, `"chars":42`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %s", out, want)
		}
	}
}

func TestListenersReceiveEventsInOrder(t *testing.T) {
	var got []EventType
	var ids []string

	ctx := WithRequestID(context.Background(), "req-7")
	ctx = WithListener(ctx, func(ev Event) {
		got = append(got, ev.Type)
		ids = append(ids, ev.RequestID)
	})

	logger := New(nil)
	logger.Log(ctx, EventAnalysisStarted, nil)
	logger.Log(ctx, EventAnalysisCompleted, map[string]any{"topics": 2})

	if len(got) != 2 || got[0] != EventAnalysisStarted || got[1] != EventAnalysisCompleted {
		t.Errorf("events = %v", got)
	}
	for _, id := range ids {
		if id != "req-7" {
			t.Errorf("request id = %q, want req-7", id)
		}
	}

	// Events logged without the listener context are not delivered.
	logger.Log(context.Background(), EventProcessingFailed, nil)
	if len(got) != 2 {
		t.Errorf("listener got %d events, want 2", len(got))
	}
}

func TestWithListenerDoesNotLeakIntoParent(t *testing.T) {
	var parentCalls, childCalls int
	parent := WithListener(context.Background(), func(Event) { parentCalls++ })
	child := WithListener(parent, func(Event) { childCalls++ })

	logger := New(nil)
	logger.Log(parent, EventAnalysisStarted, nil)
	logger.Log(child, EventAnalysisStarted, nil)

	if parentCalls != 2 || childCalls != 1 {
		t.Errorf("parent=%d child=%d, want 2 and 1", parentCalls, childCalls)
	}
}
