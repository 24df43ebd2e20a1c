package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Separation service
	APIBaseURL     string
	MaxUploadBytes int64

	// Playback
	PollInterval time.Duration
	SeekStep     time.Duration

	// Local state
	DataDir string
}

// Load reads configuration from the environment with sane defaults.
// A .env file in the working directory is honored when present.
// A missing or wrong API base URL is not validated here; it surfaces
// as request failures when the first upload is attempted.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIBaseURL:     envStr("TUNESPLIT_API_URL", "http://localhost:8000"),
		MaxUploadBytes: envInt64("TUNESPLIT_MAX_UPLOAD_BYTES", 10_000_000),
		PollInterval:   time.Duration(envInt("TUNESPLIT_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		SeekStep:       time.Duration(envInt("TUNESPLIT_SEEK_STEP_SECONDS", 10)) * time.Second,
		DataDir:        envStr("TUNESPLIT_DATA_DIR", "./data"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
