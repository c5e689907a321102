package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/analysis"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/deepgram"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/eventlog"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/httpapi"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/notifications"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/pipeline"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/stt"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/telemetry"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/tts"
	"github.com/sirupsen/logrus"
)

type App struct {
	cfg            Config
	logger         *logrus.Logger
	eventLog       *eventlog.Logger
	pipeline       *pipeline.Pipeline
	speaker        *tts.Speaker
	discord        *notifications.Discord
	inflight       *httpapi.RequestRegistry
	metricsHandler http.Handler
	shutdownTel    func(context.Context) error
}

func New(ctx context.Context, cfg Config, logger *logrus.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shutdownTel, metricsHandler, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:  "deepgram-stt-tts-intelligence",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.OTLPInsecure,
		Stdout:       cfg.TelemetryStdout,
	}, logger)
	if err != nil {
		return nil, err
	}
	metrics, err := telemetry.NewGlobalMetrics()
	if err != nil {
		_ = shutdownTel(ctx)
		return nil, err
	}

	// Shared HTTP client with connection pooling; every Deepgram call goes
	// to a single host.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	api := deepgram.New(deepgram.Config{
		APIKey:     cfg.DeepgramAPIKey,
		BaseURL:    cfg.DeepgramBaseURL,
		HTTPClient: httpClient,
	})

	el := eventlog.New(logger)

	p := pipeline.New(
		stt.NewDeepgramClient(api),
		analysis.NewDeepgramClient(api),
		el, logger, metrics,
	)

	speaker := tts.NewSpeaker(tts.NewDeepgramClient(api), tts.SpeakerConfig{
		MaxChars:  cfg.TTSMaxChars,
		Timeout:   cfg.TTSTimeout,
		CacheSize: cfg.TTSCacheSize,
		CacheTTL:  cfg.TTSCacheTTL,
	}, logger, metrics)

	logger.WithFields(logrus.Fields{
		"auth":        cfg.AuthEnabled(),
		"environment": cfg.Environment,
		"tts_cache":   cfg.TTSCacheSize,
	}).Info("app: initialized")

	return &App{
		cfg:            cfg,
		logger:         logger,
		eventLog:       el,
		pipeline:       p,
		speaker:        speaker,
		discord:        notifications.NewDiscord(cfg.DiscordWebhookURL, logger),
		inflight:       httpapi.NewRequestRegistry(),
		metricsHandler: metricsHandler,
		shutdownTel:    shutdownTel,
	}, nil
}

func (a *App) Router() http.Handler {
	routerCfg := httpapi.RouterConfig{
		CORSOrigins:    a.cfg.CORSOrigins,
		JWTSecret:      a.cfg.JWTSecret,
		JWTExpiry:      a.cfg.JWTExpiry,
		AccessKey:      a.cfg.AccessKey,
		MaxUploadBytes: a.cfg.MaxUploadBytes,
		MetricsHandler: a.metricsHandler,
	}
	return httpapi.NewRouter(routerCfg, a.logger, a.pipeline, a.speaker, a.eventLog, a.discord, a.inflight)
}

// Drain stops accepting processing requests and waits for in-flight ones.
func (a *App) Drain(ctx context.Context) error {
	a.inflight.StartDraining()
	a.logger.Infof("draining %d in-flight requests", a.inflight.ActiveCount())
	return a.inflight.Wait(ctx)
}

func (a *App) Close(ctx context.Context) error {
	if a.shutdownTel != nil {
		return a.shutdownTel(ctx)
	}
	return nil
}
