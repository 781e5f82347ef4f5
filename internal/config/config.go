package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the Neha chat service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	LLMProvider       string
	LLMBaseURL        string
	LLMAPIKey         string
	LLMChatModel      string
	LLMTimeout        time.Duration
	LLMMaxRetries     int
	LLMRetryBaseDelay time.Duration

	SerperAPIKey   string
	SerperEndpoint string
	SearchTimeout  time.Duration

	TTSProvider      string
	TTSBaseURL       string
	TTSAPIKey        string
	TTSModel         string
	TTSVoice         string
	TTSLanguage      string
	SynthesisTimeout time.Duration

	MemoryDir   string
	DatabaseURL string
	UserLogPath string

	DefaultTimezone string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "neha"),
		AllowAnyOrigin:   false,
		LLMProvider:      strings.ToLower(envOrDefault("LLM_PROVIDER", "openai")),
		// Default to the Gemini OpenAI-compatible endpoint the product runs on.
		LLMBaseURL:               envOrDefault("LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMAPIKey:                envTrimmed("LLM_API_KEY"),
		LLMChatModel:             envOrDefault("LLM_CHAT_MODEL", "gemini-2.5-flash"),
		SerperAPIKey:             envTrimmed("SERPER_API_KEY"),
		SerperEndpoint:           envOrDefault("SERPER_ENDPOINT", "https://google.serper.dev/search"),
		TTSProvider:              strings.ToLower(envOrDefault("TTS_PROVIDER", "auto")),
		TTSBaseURL:               envTrimmed("TTS_BASE_URL"),
		TTSAPIKey:                envTrimmed("TTS_API_KEY"),
		TTSModel:                 envOrDefault("TTS_MODEL", "gemini-2.5-flash-tts"),
		TTSVoice:                 envOrDefault("TTS_VOICE", "hindi_female_1"),
		TTSLanguage:              envOrDefault("TTS_LANGUAGE", "hi"),
		MemoryDir:                envOrDefault("MEMORY_DIR", "user_memories"),
		DatabaseURL:              envTrimmed("DATABASE_URL"),
		UserLogPath:              envOrDefault("USERLOG_DB_PATH", "userlog.db"),
		DefaultTimezone:          envOrDefault("APP_DEFAULT_TIMEZONE", "Asia/Kolkata"),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
		LLMTimeout:               30 * time.Second,
		LLMMaxRetries:            5,
		LLMRetryBaseDelay:        500 * time.Millisecond,
		SearchTimeout:            12 * time.Second,
		SynthesisTimeout:         20 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMTimeout, err = durationFromEnv("LLM_TIMEOUT", cfg.LLMTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMMaxRetries, err = intFromEnv("LLM_MAX_RETRIES", cfg.LLMMaxRetries)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMRetryBaseDelay, err = durationFromEnv("LLM_RETRY_BASE_DELAY", cfg.LLMRetryBaseDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.SearchTimeout, err = durationFromEnv("SEARCH_TIMEOUT", cfg.SearchTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SynthesisTimeout, err = durationFromEnv("TTS_TIMEOUT", cfg.SynthesisTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	switch cfg.LLMProvider {
	case "openai":
		if cfg.LLMAPIKey == "" {
			return Config{}, fmt.Errorf("LLM_API_KEY is required (set LLM_PROVIDER=mock for local development)")
		}
	case "mock":
	default:
		return Config{}, fmt.Errorf("invalid LLM_PROVIDER: %q (expected openai|mock)", cfg.LLMProvider)
	}
	switch cfg.TTSProvider {
	case "auto", "hosted", "gtts", "mock":
	default:
		return Config{}, fmt.Errorf("invalid TTS_PROVIDER: %q (expected auto|hosted|gtts|mock)", cfg.TTSProvider)
	}
	if cfg.TTSProvider == "hosted" && cfg.TTSAPIKey == "" {
		return Config{}, fmt.Errorf("TTS_PROVIDER=hosted but TTS_API_KEY is not set")
	}
	if cfg.LLMMaxRetries <= 0 {
		return Config{}, fmt.Errorf("LLM_MAX_RETRIES must be positive")
	}
	if cfg.LLMRetryBaseDelay <= 0 {
		return Config{}, fmt.Errorf("LLM_RETRY_BASE_DELAY must be positive")
	}
	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

// envTrimmed reads an environment variable and trims surrounding whitespace.
func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
