package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Sessions
	SessionIdleSeconds     int
	IdleWorkerPollInterval int

	// Gameplay defaults
	ScreenWidth   int
	ScreenHeight  int
	ControlScheme string
	BallSizeMult  float64
	CupSizeMult   float64
	CupDraggable  bool
	SoundEnabled  bool
	HapticEnabled bool

	// Audio
	AudioBackend string
	SFXVolume    float64

	// Security
	JWTSecret         string
	SessionTimeoutMin int
}

const (
	AudioClient  = "client"
	AudioSpeaker = "speaker"
	AudioNone    = "none"
)

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		// Redis
		RedisURL: os.Getenv("REDIS_URL"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Sessions
		SessionIdleSeconds:     getEnvInt("SESSION_IDLE_SECONDS", 300),
		IdleWorkerPollInterval: getEnvInt("IDLE_WORKER_POLL_SECONDS", 5),

		// Gameplay defaults
		ScreenWidth:   getEnvInt("SCREEN_WIDTH", 1080),
		ScreenHeight:  getEnvInt("SCREEN_HEIGHT", 2340),
		ControlScheme: getEnv("CONTROL_SCHEME", "pull"),
		BallSizeMult:  getEnvFloat("BALL_SIZE_MULT", 1.0),
		CupSizeMult:   getEnvFloat("CUP_SIZE_MULT", 1.0),
		CupDraggable:  getEnvBool("CUP_DRAGGABLE", true),
		SoundEnabled:  getEnvBool("SOUND_ENABLED", true),
		HapticEnabled: getEnvBool("HAPTIC_ENABLED", true),

		// Audio
		AudioBackend: audioBackend(getEnv("AUDIO_BACKEND", AudioClient)),
		SFXVolume:    clampUnit(getEnvFloat("SFX_VOLUME", 1.0)),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func audioBackend(v string) string {
	switch v = strings.ToLower(strings.TrimSpace(v)); v {
	case AudioSpeaker, AudioNone:
		return v
	default:
		return AudioClient
	}
}

func clampUnit(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
