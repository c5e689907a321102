// Package telemetry wires OpenTelemetry tracing and metrics, exporting
// metrics in Prometheus format.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"
)

// InstrumentationName scopes every tracer and meter of this service.
const InstrumentationName = "github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence"

// Config controls exporters.
type Config struct {
	ServiceName  string
	Environment  string
	OTLPEndpoint string // traces go to OTLP/gRPC when set
	OTLPInsecure bool
	Stdout       bool // print traces to stdout when no OTLP endpoint is set
}

// Setup installs global tracer and meter providers. It returns a shutdown
// func and the /metrics handler (nil when the Prometheus exporter failed).
func Setup(ctx context.Context, cfg Config, logger *logrus.Logger) (func(context.Context) error, http.Handler, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	traceProvider, err := initTracer(ctx, cfg, res, logger)
	if err != nil {
		return nil, nil, err
	}
	if traceProvider != nil {
		otel.SetTracerProvider(traceProvider)
	}

	meterProvider, metricHandler := initMetrics(res, logger)
	otel.SetMeterProvider(meterProvider)

	shutdown := func(ctx context.Context) error {
		var errs []error
		if err := meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		if traceProvider != nil {
			if err := traceProvider.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	return shutdown, metricHandler, nil
}

// initTracer returns nil when tracing is disabled; the global no-op provider stays in place.
func initTracer(ctx context.Context, cfg Config, res *resource.Resource, logger *logrus.Logger) (*sdktrace.TracerProvider, error) {
	if endpoint := strings.TrimSpace(cfg.OTLPEndpoint); endpoint != "" {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		logger.WithField("endpoint", endpoint).Info("telemetry: tracing to OTLP")
		return sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		), nil
	}

	if !cfg.Stdout {
		return nil, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	logger.Info("telemetry: tracing to stdout")
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

func initMetrics(res *resource.Resource, logger *logrus.Logger) (*sdkmetric.MeterProvider, http.Handler) {
	promExporter, err := prometheus.New()
	if err != nil {
		logger.WithError(err).Warn("telemetry: failed to initialize prometheus exporter")
		return sdkmetric.NewMeterProvider(sdkmetric.WithResource(res)), nil
	}
	meter := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(res),
	)
	return meter, promhttp.Handler()
}
