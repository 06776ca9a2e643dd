package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the ttsgen client and stub server.
type Config struct {
	BaseURL           string
	Transport         string
	RequestTimeout    time.Duration
	StreamIdleTimeout time.Duration
	ShutdownTimeout   time.Duration

	ArtifactDir      string
	MetricsNamespace string

	DefaultSpeed         float64
	DefaultCFGStrength   float64
	DefaultNFESteps      int
	DefaultRemoveSilence bool

	// Stub server settings.
	BindAddr       string
	AllowAnyOrigin bool
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BaseURL:          envOrDefault("TTSGEN_BASE_URL", "http://127.0.0.1:8000"),
		Transport:        envOrDefault("TTSGEN_TRANSPORT", "auto"),
		MetricsNamespace: envOrDefault("TTSGEN_METRICS_NAMESPACE", "ttsgen"),
		ArtifactDir:      envOrDefault("TTSGEN_ARTIFACT_DIR", ""),
		BindAddr:         envOrDefault("TTSGEN_BIND_ADDR", ":8000"),
		AllowAnyOrigin:   false,
		// Defaults match the generation service's documented parameter defaults.
		DefaultSpeed:         1.0,
		DefaultCFGStrength:   2.0,
		DefaultNFESteps:      32,
		DefaultRemoveSilence: false,
		RequestTimeout:       30 * time.Second,
		// Generation jobs are long; the stream is considered dead only after
		// this long with no event at all.
		StreamIdleTimeout: 5 * time.Minute,
		ShutdownTimeout:   15 * time.Second,
	}

	var err error
	cfg.RequestTimeout, err = durationFromEnv("TTSGEN_REQUEST_TIMEOUT", cfg.RequestTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.StreamIdleTimeout, err = durationFromEnv("TTSGEN_STREAM_IDLE_TIMEOUT", cfg.StreamIdleTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownTimeout, err = durationFromEnv("TTSGEN_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.DefaultSpeed, err = floatFromEnv("TTSGEN_DEFAULT_SPEED", cfg.DefaultSpeed)
	if err != nil {
		return Config{}, err
	}
	cfg.DefaultCFGStrength, err = floatFromEnv("TTSGEN_DEFAULT_CFG_STRENGTH", cfg.DefaultCFGStrength)
	if err != nil {
		return Config{}, err
	}
	cfg.DefaultNFESteps, err = intFromEnv("TTSGEN_DEFAULT_NFE_STEPS", cfg.DefaultNFESteps)
	if err != nil {
		return Config{}, err
	}
	cfg.DefaultRemoveSilence, err = boolFromEnv("TTSGEN_DEFAULT_REMOVE_SILENCE", cfg.DefaultRemoveSilence)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("TTSGEN_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return Config{}, fmt.Errorf("TTSGEN_BASE_URL must not be empty")
	}
	if cfg.RequestTimeout < time.Second {
		return Config{}, fmt.Errorf("TTSGEN_REQUEST_TIMEOUT must be at least 1s")
	}
	if cfg.StreamIdleTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("TTSGEN_STREAM_IDLE_TIMEOUT must be at least 5s")
	}
	if cfg.DefaultSpeed <= 0 {
		return Config{}, fmt.Errorf("TTSGEN_DEFAULT_SPEED must be positive")
	}
	if cfg.DefaultNFESteps <= 0 {
		return Config{}, fmt.Errorf("TTSGEN_DEFAULT_NFE_STEPS must be positive")
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

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
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
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
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
