package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	GoogleProjectID string
	GoogleLocation  string

	VideoBucket       string
	VideoBucketRegion string
	VideoModel        string
	OutputPrefix      string
	InputPrefix       string

	PollInterval    time.Duration
	SignedURLTTL    time.Duration
	MaxVariants     int
	GenerateTimeout time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		GoogleProjectID:   os.Getenv("GOOGLE_PROJECT_ID"),
		GoogleLocation:    getEnv("GOOGLE_LOCATION", "us-central1"),
		VideoBucket:       os.Getenv("VIDEO_BUCKET"),
		VideoBucketRegion: getEnv("VIDEO_BUCKET_REGION", "us-central1"),
		VideoModel:        getEnv("VIDEO_MODEL", "veo-2.0-generate-001"),
		OutputPrefix:      getEnv("OUTPUT_PREFIX", "generated-videos"),
		InputPrefix:       getEnv("INPUT_PREFIX", "input-images"),
		PollInterval:      time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 15)),
		SignedURLTTL:      time.Second * time.Duration(getEnvInt("SIGNED_URL_TTL_SECONDS", 3600)),
		MaxVariants:       getEnvInt("MAX_VARIANTS", 4),
		GenerateTimeout:   time.Second * time.Duration(getEnvInt("GENERATE_TIMEOUT_SECONDS", 0)),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:    splitList(os.Getenv("ALLOWED_ORIGINS")),
	}

	if cfg.GoogleProjectID == "" {
		return nil, fmt.Errorf("GOOGLE_PROJECT_ID is required")
	}

	if cfg.VideoBucket == "" {
		return nil, fmt.Errorf("VIDEO_BUCKET is required")
	}

	if cfg.MaxVariants < 1 {
		return nil, fmt.Errorf("MAX_VARIANTS must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
