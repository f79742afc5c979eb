package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port      int
	LogLevel  string
	LogFormat string

	StoreBackend string
	DatabaseURL  string
	SavePath     string
	SaveKey      string

	OracleURL     string
	OracleAPIKey  string
	OracleModel   string
	OracleTimeout time.Duration

	ProgressionFile string

	MetricsAddr        string
	TracingEnabled     bool
	TracingExporter    string
	TracingEndpoint    string
	TracingSampleRatio float64
}

func Load() *Config {
	return &Config{
		Port:      getEnvInt("PORT", 8080),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		StoreBackend: getEnv("STORE_BACKEND", "file"),
		DatabaseURL:  getEnv("DATABASE_URL", "postgres://localhost:5432/dragonradar?sslmode=disable"),
		SavePath:     getEnv("SAVE_PATH", "./data"),
		SaveKey:      getEnv("SAVE_KEY", "dragon-radar-state"),

		OracleURL:     getEnv("ORACLE_URL", ""),
		OracleAPIKey:  getEnv("ORACLE_API_KEY", ""),
		OracleModel:   getEnv("ORACLE_MODEL", ""),
		OracleTimeout: getEnvDuration("ORACLE_TIMEOUT", 15*time.Second),

		ProgressionFile: getEnv("PROGRESSION_FILE", ""),

		MetricsAddr:        getEnv("METRICS_ADDR", ":9090"),
		TracingEnabled:     getEnvBool("TRACING_ENABLED", false),
		TracingExporter:    getEnv("TRACING_EXPORTER", "stdout"),
		TracingEndpoint:    getEnv("TRACING_ENDPOINT", ""),
		TracingSampleRatio: getEnvFloat("TRACING_SAMPLE_RATIO", 1.0),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
