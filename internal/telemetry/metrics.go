package telemetry

import (
	"context"
	"time"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/apperr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Metrics holds the service instruments. A nil *Metrics records nothing.
type Metrics struct {
	cacheLookups  metric.Int64Counter
	failures      metric.Int64Counter
	stageDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	cacheLookups, err := meter.Int64Counter("speech_cache_lookups_total",
		metric.WithDescription("Speech cache lookups by result (hit, miss)."))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("stage_failures_total",
		metric.WithDescription("Failed remote calls and validations by stage and error kind."))
	if err != nil {
		return nil, err
	}
	stageDuration, err := meter.Float64Histogram("stage_duration_seconds",
		metric.WithDescription("Latency of transcription, analysis and synthesis calls."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		cacheLookups:  cacheLookups,
		failures:      failures,
		stageDuration: stageDuration,
	}, nil
}

// NewGlobalMetrics creates the instruments on the global meter provider.
func NewGlobalMetrics() (*Metrics, error) {
	return NewMetrics(otel.Meter(InstrumentationName))
}

// CacheLookup records a speech cache hit or miss.
func (m *Metrics) CacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// ObserveStage records how long a stage took and whether it failed.
func (m *Metrics) ObserveStage(ctx context.Context, stage string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
	if err != nil {
		m.Failure(ctx, stage, err)
	}
}

// Failure counts a failed stage, labelled with the error kind.
func (m *Metrics) Failure(ctx context.Context, stage string, err error) {
	if m == nil || err == nil {
		return
	}
	kind := string(apperr.KindOf(err))
	if kind == "" {
		kind = "unknown"
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("kind", kind),
	))
}

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}
