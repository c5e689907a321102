package tts

import (
	"context"
	"strings"
	"time"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/apperr"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/telemetry"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultMaxChars = 500
	DefaultLanguage = "en"
	DefaultTimeout  = 30 * time.Second
)

// SpeakerConfig tunes synthesis limits and the cache.
type SpeakerConfig struct {
	MaxChars  int
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

// Speaker synthesizes text through a Client and caches the audio.
type Speaker struct {
	client  Client
	cache   *SpeechCache
	group   singleflight.Group
	cfg     SpeakerConfig
	logger  *logrus.Logger
	metrics *telemetry.Metrics
}

// NewSpeaker creates a Speaker. metrics may be nil.
func NewSpeaker(client Client, cfg SpeakerConfig, logger *logrus.Logger, metrics *telemetry.Metrics) *Speaker {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Speaker{
		client:  client,
		cache:   NewSpeechCache(cfg.CacheSize, cfg.CacheTTL),
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// Cache exposes the underlying cache.
func (s *Speaker) Cache() *SpeechCache {
	return s.cache
}

// MaxChars is the default truncation ceiling.
func (s *Speaker) MaxChars() int {
	return s.cfg.MaxChars
}

// Synthesize returns audio for text, serving repeated requests from the
// cache. The bool reports a cache hit. maxChars <= 0 uses the configured
// ceiling.
func (s *Speaker) Synthesize(ctx context.Context, text, voice, language string, maxChars int) (Artifact, bool, error) {
	if !IsVoice(voice) {
		return Artifact{}, false, apperr.New(apperr.KindValidation, "unknown voice "+voice)
	}
	if strings.TrimSpace(text) == "" {
		return Artifact{}, false, apperr.New(apperr.KindValidation, "no text available for speech synthesis")
	}
	if language == "" {
		language = DefaultLanguage
	}
	if maxChars <= 0 {
		maxChars = s.cfg.MaxChars
	}

	text = Truncate(text, maxChars)
	key := CacheKey(text, voice, language)

	if a, ok := s.cache.Get(key); ok {
		s.metrics.CacheLookup(ctx, true)
		s.logger.WithFields(logrus.Fields{"voice": voice, "language": language}).Debug("tts: cache hit")
		return a, true, nil
	}
	s.metrics.CacheLookup(ctx, false)

	ch := s.group.DoChan(key, func() (any, error) {
		// Another caller may have filled the entry while we waited.
		if a, ok := s.cache.Get(key); ok {
			return a, nil
		}

		// Shared by every caller waiting on key, so one caller going away
		// must not cancel it.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
		defer cancel()

		start := time.Now()
		audio, err := s.client.Synthesize(callCtx, text, voice, language)
		s.metrics.ObserveStage(ctx, "synthesis", time.Since(start), err)
		if err != nil {
			return nil, err
		}

		a := Artifact{Audio: audio, ContentType: "audio/mpeg"}
		s.cache.Add(key, a)
		s.logger.WithFields(logrus.Fields{
			"voice":    voice,
			"language": language,
			"chars":    len([]rune(text)),
			"bytes":    len(audio),
		}).Info("tts: synthesized")
		return a, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			s.logger.WithError(res.Err).Warn("tts: synthesis failed")
			return Artifact{}, false, apperr.Wrap(apperr.KindSynthesis, res.Err)
		}
		return res.Val.(Artifact), false, nil
	case <-ctx.Done():
		return Artifact{}, false, apperr.Wrap(apperr.KindSynthesis, ctx.Err())
	}
}
