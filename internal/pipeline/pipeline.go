// Package pipeline runs the transcribe, analyze and normalize stages for
// one input.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/analysis"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/apperr"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/eventlog"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/stt"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/telemetry"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Kind selects how the input is obtained.
type Kind string

const (
	KindURL  Kind = "url"
	KindFile Kind = "file"
	KindText Kind = "text"
)

// Stage names used in errors, events and metrics.
const (
	StageValidation    = "validation"
	StageTranscription = "transcription"
	StageAnalysis      = "analysis"
	StageNormalization = "normalization"
)

// Input is one request to process. Only the field matching Kind is used.
type Input struct {
	Kind        Kind
	URL         string
	Audio       io.Reader
	ContentType string
	Text        string
}

// Options tune the remote calls.
type Options struct {
	Model    string // transcription model, ignored for text input
	Language string // analysis language
}

// Result is the outcome of a successful run.
type Result struct {
	Transcript string          `json:"transcript"`
	Analysis   analysis.Result `json:"analysis"`
	Raw        json.RawMessage `json:"raw,omitempty"`
	Duration   float64         `json:"duration,omitempty"` // audio seconds, 0 for text
}

// ProcessingError reports which stage failed.
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("pipeline: %s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Analyzer returns the raw text-intelligence response for text.
type Analyzer interface {
	Analyze(ctx context.Context, text, language string) (json.RawMessage, error)
}

// Pipeline wires a transcriber and an analyzer.
type Pipeline struct {
	transcriber stt.Client
	analyzer    Analyzer
	events      *eventlog.Logger
	logger      *logrus.Logger
	metrics     *telemetry.Metrics
}

// New creates a Pipeline. events and metrics may be nil.
func New(transcriber stt.Client, analyzer Analyzer, events *eventlog.Logger, logger *logrus.Logger, metrics *telemetry.Metrics) *Pipeline {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pipeline{
		transcriber: transcriber,
		analyzer:    analyzer,
		events:      events,
		logger:      logger,
		metrics:     metrics,
	}
}

// Process turns the input into a transcript and a canonical analysis.
// Any failure aborts the run; no partial result is returned.
func (p *Pipeline) Process(ctx context.Context, in Input, opts Options) (Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "pipeline.Process")
	defer span.End()
	span.SetAttributes(attribute.String("input.kind", string(in.Kind)))

	res, stage, err := p.run(ctx, in, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.events.Log(ctx, eventlog.EventProcessingFailed, map[string]any{
			"stage": stage,
			"error": err.Error(),
		})
		p.logger.WithFields(logrus.Fields{
			"request_id": eventlog.RequestID(ctx),
			"kind":       in.Kind,
			"stage":      stage,
		}).WithError(err).Warn("pipeline: processing failed")
		return Result{}, &ProcessingError{Stage: stage, Err: err}
	}

	p.events.Log(ctx, eventlog.EventProcessingCompleted, map[string]any{
		"topics":  len(res.Analysis.Topics),
		"intents": len(res.Analysis.Intents),
	})
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, in Input, opts Options) (Result, string, error) {
	if err := validate(in); err != nil {
		return Result{}, StageValidation, err
	}
	if opts.Model == "" {
		opts.Model = stt.DefaultModel
	}
	if opts.Language == "" {
		opts.Language = analysis.DefaultLanguage
	}

	var res Result
	switch in.Kind {
	case KindText:
		res.Transcript = in.Text
	default:
		tr, err := p.transcribe(ctx, in, opts.Model)
		if err != nil {
			return Result{}, StageTranscription, err
		}
		res.Transcript = tr.Text
		res.Duration = tr.Duration
	}

	p.events.Log(ctx, eventlog.EventAnalysisStarted, map[string]any{"language": opts.Language})
	start := time.Now()
	raw, err := p.analyzer.Analyze(ctx, res.Transcript, opts.Language)
	p.metrics.ObserveStage(ctx, StageAnalysis, time.Since(start), err)
	if err != nil {
		return Result{}, StageAnalysis, apperr.Wrap(apperr.KindAnalysis, err)
	}

	a, err := analysis.Normalize(raw)
	if err != nil {
		return Result{}, StageNormalization, err
	}
	p.events.Log(ctx, eventlog.EventAnalysisCompleted, map[string]any{
		"sentiment": a.Sentiment.Label,
		"topics":    len(a.Topics),
		"intents":   len(a.Intents),
	})

	res.Analysis = a
	res.Raw = raw
	return res, "", nil
}

func (p *Pipeline) transcribe(ctx context.Context, in Input, model string) (stt.Transcript, error) {
	p.events.Log(ctx, eventlog.EventTranscriptionStarted, map[string]any{"kind": string(in.Kind), "model": model})

	start := time.Now()
	var tr stt.Transcript
	var err error
	if in.Kind == KindURL {
		tr, err = p.transcriber.TranscribeURL(ctx, in.URL, model)
	} else {
		tr, err = p.transcriber.TranscribeFile(ctx, in.Audio, in.ContentType, model)
	}
	if err == nil && strings.TrimSpace(tr.Text) == "" {
		err = apperr.New(apperr.KindTranscription, emptyTranscriptHint(in.Kind))
	}
	p.metrics.ObserveStage(ctx, StageTranscription, time.Since(start), err)
	if err != nil {
		return stt.Transcript{}, apperr.Wrap(apperr.KindTranscription, err)
	}

	p.logger.WithField("request_id", eventlog.RequestID(ctx)).Infof("pipeline: %s", tr)
	p.events.Log(ctx, eventlog.EventTranscriptionCompleted, map[string]any{
		"chars":    len(tr.Text),
		"duration": tr.Duration,
	})
	return tr, nil
}

func validate(in Input) error {
	switch in.Kind {
	case KindURL:
		if strings.TrimSpace(in.URL) == "" {
			return apperr.New(apperr.KindValidation, "audio URL is required")
		}
	case KindFile:
		if in.Audio == nil {
			return apperr.New(apperr.KindValidation, "audio file is required")
		}
	case KindText:
		if strings.TrimSpace(in.Text) == "" {
			return apperr.New(apperr.KindValidation, "text is required")
		}
	default:
		return apperr.New(apperr.KindValidation, fmt.Sprintf("unsupported input kind %q", in.Kind))
	}
	return nil
}

func emptyTranscriptHint(kind Kind) string {
	if kind == KindFile {
		return "Empty transcript. Check the audio file, model, or credentials."
	}
	return "Empty transcript. Check the audio URL, model, or credentials."
}
