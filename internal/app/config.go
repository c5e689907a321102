package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr    string   `yaml:"http_addr"`
	CORSOrigins []string `yaml:"cors_origins"`
	LogLevel    string   `yaml:"log_level"`
	LogFormat   string   `yaml:"log_format"` // text or json
	Environment string   `yaml:"environment"`

	// Deepgram
	DeepgramAPIKey  string        `yaml:"deepgram_api_key"`
	DeepgramBaseURL string        `yaml:"deepgram_base_url"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"` // transcription and analysis calls

	// Speech synthesis
	TTSMaxChars  int           `yaml:"tts_max_chars"`
	TTSTimeout   time.Duration `yaml:"tts_timeout"`
	TTSCacheSize int           `yaml:"tts_cache_size"`
	TTSCacheTTL  time.Duration `yaml:"tts_cache_ttl"` // 0 keeps entries until evicted

	// Uploads
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// JWT Authentication (disabled when JWTSecret is empty)
	JWTSecret string        `yaml:"jwt_secret"`
	JWTExpiry time.Duration `yaml:"jwt_expiry"`
	AccessKey string        `yaml:"access_key"` // exchanged for a JWT at /auth/token

	// Monitoring
	SentryDSN         string `yaml:"sentry_dsn"`
	DiscordWebhookURL string `yaml:"discord_webhook_url"`
	OTLPEndpoint      string `yaml:"otlp_endpoint"`
	OTLPInsecure      bool   `yaml:"otlp_insecure"`
	TelemetryStdout   bool   `yaml:"telemetry_stdout"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func defaultConfig() Config {
	return Config{
		HTTPAddr:        ":8080",
		CORSOrigins:     []string{"*"},
		LogLevel:        "info",
		LogFormat:       "text",
		Environment:     "development",
		DeepgramBaseURL: "https://api.deepgram.com",
		HTTPTimeout:     120 * time.Second,
		TTSMaxChars:     500,
		TTSTimeout:      30 * time.Second,
		TTSCacheSize:    256,
		MaxUploadBytes:  100 << 20,
		JWTExpiry:       24 * time.Hour,
		ShutdownTimeout: 30 * time.Second,
	}
}

// LoadConfig builds the config from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.CORSOrigins = getenvList("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("LOG_FORMAT", cfg.LogFormat)
	cfg.Environment = getenv("ENVIRONMENT", cfg.Environment)

	// Deepgram
	cfg.DeepgramAPIKey = getenv("DEEPGRAM_API_KEY", cfg.DeepgramAPIKey)
	cfg.DeepgramBaseURL = getenv("DEEPGRAM_BASE_URL", cfg.DeepgramBaseURL)
	cfg.HTTPTimeout = getenvDuration("HTTP_TIMEOUT", cfg.HTTPTimeout)

	// Speech synthesis
	cfg.TTSMaxChars = getenvIntClamped("TTS_MAX_CHARS", cfg.TTSMaxChars, 1, 10000)
	cfg.TTSTimeout = getenvDuration("TTS_TIMEOUT", cfg.TTSTimeout)
	cfg.TTSCacheSize = getenvIntClamped("TTS_CACHE_SIZE", cfg.TTSCacheSize, 1, 100000)
	cfg.TTSCacheTTL = getenvDuration("TTS_CACHE_TTL", cfg.TTSCacheTTL)

	cfg.MaxUploadBytes = int64(getenvIntClamped("MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes), 1<<10, 1<<30))

	// JWT Authentication
	cfg.JWTSecret = getenv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTExpiry = getenvDuration("JWT_EXPIRY", cfg.JWTExpiry)
	cfg.AccessKey = getenv("ACCESS_KEY", cfg.AccessKey)

	// Monitoring
	cfg.SentryDSN = getenv("SENTRY_DSN", cfg.SentryDSN)
	cfg.DiscordWebhookURL = getenv("DISCORD_WEBHOOK_URL", cfg.DiscordWebhookURL)
	cfg.OTLPEndpoint = getenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.OTLPInsecure = getenvBool("OTEL_EXPORTER_OTLP_INSECURE", cfg.OTLPInsecure)
	cfg.TelemetryStdout = getenvBool("TELEMETRY_STDOUT", cfg.TelemetryStdout)

	cfg.ShutdownTimeout = getenvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.DeepgramAPIKey == "" {
		errs = append(errs, errors.New("DEEPGRAM_API_KEY is required"))
	}
	if c.JWTSecret != "" && c.AccessKey == "" {
		errs = append(errs, errors.New("ACCESS_KEY is required when JWT_SECRET is set"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether /api and /ws routes require a bearer token.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getenvIntClamped parses k as an int and clamps it to [min, max].
func getenvIntClamped(k string, def, min, max int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvList(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
