// Package config provides process settings and the immutable game configuration.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendREST     = "rest"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Settings holds process-level settings read from the environment.
type Settings struct {
	// SSH server
	SSHHost        string
	SSHPort        string
	SSHHostKeyPath string

	// Web server
	WebHost        string
	WebPort        string
	SSHDisplayHost string
	Environment    string

	// Score storage
	StoreBackend   string
	ScoreAPIBase   string
	DatabaseURL    string
	RedisURL       string
	MigrateOnStart bool

	// Analytics
	AnalyticsURL string
	AnalyticsKey string

	// Local state and logging
	ProfileDir       string
	GameConfigPath   string
	LogLevel         string
	LogFile          string
	ValidationPolicy string

	// Identity used by the local terminal binary
	Pseudo string
	Email  string
}

// Load reads an optional .env file and returns the settings with defaults applied.
func Load() *Settings {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	return &Settings{
		SSHHost:        GetEnv("SSH_HOST", "::"),
		SSHPort:        GetEnv("SSH_PORT", "2222"),
		SSHHostKeyPath: GetEnv("SSH_HOST_KEY", "/app/keys/host_key"),

		WebHost:        GetEnv("WEB_HOST", "0.0.0.0"),
		WebPort:        GetEnv("WEB_PORT", "8080"),
		SSHDisplayHost: GetEnv("SSH_DISPLAY_HOST", "your-server.com"),
		Environment:    GetEnv("APP_ENV", "development"),

		StoreBackend:   GetEnv("STORE_BACKEND", BackendMemory),
		ScoreAPIBase:   GetEnv("SCORE_API_BASE", "https://n8n.miisteurniko.fr/webhook"),
		DatabaseURL:    GetEnv("DATABASE_URL", "postgres://localhost:5432/flappysavon?sslmode=disable"),
		RedisURL:       GetEnv("REDIS_URL", "redis://localhost:6379/0"),
		MigrateOnStart: GetEnvBool("MIGRATE_ON_START", false),

		AnalyticsURL: GetEnv("ANALYTICS_URL", ""),
		AnalyticsKey: GetEnv("ANALYTICS_KEY", ""),

		ProfileDir:       GetEnv("PROFILE_DIR", defaultProfileDir()),
		GameConfigPath:   GetEnv("FLAPPY_CONFIG", ""),
		LogLevel:         GetEnv("LOG_LEVEL", "info"),
		LogFile:          GetEnv("FLAPPY_LOG_FILE", ""),
		ValidationPolicy: GetEnv("VALIDATION_POLICY", PolicyLenient),

		Pseudo: GetEnv("FLAPPY_PSEUDO", ""),
		Email:  GetEnv("FLAPPY_EMAIL", ""),
	}
}

// GetEnv returns the value of the environment variable named by the key,
// or fallback if the variable is not set.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvInt is GetEnv for integers. Unparseable values yield the fallback.
func GetEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvBool is GetEnv for booleans ("1", "true", "yes" are true).
func GetEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch value {
	case "1", "true", "TRUE", "True", "yes", "YES":
		return true
	case "0", "false", "FALSE", "False", "no", "NO":
		return false
	}
	return fallback
}

func defaultProfileDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".flappysavon"
	}
	return dir + string(os.PathSeparator) + "flappysavon"
}
