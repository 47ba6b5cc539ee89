package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config carries every policy knob the engine recognizes. Thresholds and
// margins are policy choices with no universally correct value, so nothing
// outside this package hardcodes them.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	MatchThreshold  float64
	AmbiguityMargin float64
	DistanceFunc    string

	SessionTTL        time.Duration
	SingleUseSessions bool
	TokenSecret       string

	MaxTxAmount    decimal.Decimal
	RecordFailures bool

	PostgresDSN  string
	KafkaBrokers string
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:          envString("BIOLEDGER_HTTP_ADDR", ":8080"),
		MetricsAddr:       envString("BIOLEDGER_METRICS_ADDR", ":9090"),
		DistanceFunc:      envString("BIOLEDGER_DISTANCE_FUNC", "hamming"),
		TokenSecret:       envString("BIOLEDGER_TOKEN_SECRET", "dev-only-secret"),
		PostgresDSN:       os.Getenv("BIOLEDGER_POSTGRES_DSN"),
		KafkaBrokers:      os.Getenv("BIOLEDGER_KAFKA_BROKERS"),
		SingleUseSessions: envBool("BIOLEDGER_SINGLE_USE_SESSIONS", false),
		RecordFailures:    envBool("BIOLEDGER_RECORD_FAILURES", true),
	}

	var err error
	if cfg.MatchThreshold, err = envFloat("BIOLEDGER_MATCH_THRESHOLD", 0.85); err != nil {
		return nil, err
	}
	if cfg.AmbiguityMargin, err = envFloat("BIOLEDGER_AMBIGUITY_MARGIN", 0.02); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = envDuration("BIOLEDGER_SESSION_TTL", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxTxAmount, err = envDecimal("BIOLEDGER_MAX_TX_AMOUNT", "10000"); err != nil {
		return nil, err
	}

	if cfg.MatchThreshold <= 0 || cfg.MatchThreshold > 1 {
		return nil, fmt.Errorf("match threshold must be in (0, 1], got %f", cfg.MatchThreshold)
	}
	if cfg.AmbiguityMargin < 0 {
		return nil, fmt.Errorf("ambiguity margin cannot be negative, got %f", cfg.AmbiguityMargin)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be positive, got %s", cfg.SessionTTL)
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func envDecimal(key, fallback string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	parsed, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
