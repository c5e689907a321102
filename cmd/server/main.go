package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/app"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	logger := app.NewLogger(cfg, os.Stdout)

	// Initialize Sentry for error monitoring
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		})
		if err != nil {
			logger.WithError(err).Warn("sentry init failed")
		} else {
			logger.Info("sentry initialized")
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		if cfg.SentryDSN != "" {
			sentry.CaptureException(err)
			sentry.Flush(2 * time.Second)
		}
		logger.WithError(err).Fatal("init app")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := a.Drain(shutdownCtx); err != nil {
		logger.WithError(err).Warn("in-flight requests did not finish before shutdown timeout")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.WithError(err).Warn("telemetry shutdown")
	}
}
