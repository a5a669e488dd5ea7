package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	RawDataDir     string
	CleanedDataDir string
	Month          string // YYYYMM archive month, e.g. "202409"
	Cities         []string

	MinDurationMinutes float64
	MaxDurationMinutes float64

	CleanWorkers int
	SkipIngest   bool

	DownloadTimeout time.Duration

	LogLevel  string
	LogFormat string
	HTTPAddr  string // empty disables the admin HTTP server

	// Optional cleaned-trip Kafka sink.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Optional Postgres sink for the merged final dataset.
	DatabaseURL string
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	minMinutes, err := envFloat("MIN_DURATION_MINUTES", 0)
	if err != nil {
		return nil, err
	}
	maxMinutes, err := envFloat("MAX_DURATION_MINUTES", 24*60)
	if err != nil {
		return nil, err
	}
	if maxMinutes < minMinutes {
		return nil, errors.New("MAX_DURATION_MINUTES must be >= MIN_DURATION_MINUTES")
	}

	workers, err := envInt("CLEAN_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	if workers < 1 || workers > 64 {
		return nil, errors.New("CLEAN_WORKERS must be between 1 and 64")
	}

	downloadTimeout, err := envDuration("DOWNLOAD_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	kafkaBrokers := splitNonEmpty(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		RawDataDir:         envOrDefault("RAW_DATA_DIR", "data/raw"),
		CleanedDataDir:     envOrDefault("CLEANED_DATA_DIR", "data/cleaned"),
		Month:              envOrDefault("ARCHIVE_MONTH", "202409"),
		Cities:             splitNonEmpty(envOrDefault("CITIES", strings.Join(DefaultCityNames(), ","))),
		MinDurationMinutes: minMinutes,
		MaxDurationMinutes: maxMinutes,
		CleanWorkers:       workers,
		SkipIngest:         os.Getenv("SKIP_INGEST") == "true",
		DownloadTimeout:    downloadTimeout,
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:           os.Getenv("HTTP_ADDR"),
		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       kafkaBrokers,
		KafkaTopic:         envOrDefault("KAFKA_TOPIC", "cleaned-bike-trips"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
	}

	if len(cfg.Month) != 6 {
		return nil, fmt.Errorf("ARCHIVE_MONTH must be YYYYMM, got %q", cfg.Month)
	}
	if _, err := time.Parse("200601", cfg.Month); err != nil {
		return nil, fmt.Errorf("ARCHIVE_MONTH must be YYYYMM, got %q", cfg.Month)
	}
	if len(cfg.Cities) == 0 {
		return nil, errors.New("CITIES must name at least one city")
	}
	for _, city := range cfg.Cities {
		if _, ok := CitySources[city]; !ok {
			return nil, fmt.Errorf("unknown city %q (known: %s)", city, strings.Join(DefaultCityNames(), ", "))
		}
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return f, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
