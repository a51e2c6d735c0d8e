package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string
	AppBaseURL  string

	// Auth
	JWTSecret             string
	JWTExpiryHours        int
	EmailVerifyTTLHours   int
	PasswordResetTTLHours int

	// Email (Resend)
	ResendAPIKey          string
	ResendFrom            string
	EmailRateLimitSeconds int

	// Public views
	BoardCacheSeconds   int
	WaitEstimateMinutes int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/kue?sslmode=disable"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		AppBaseURL:  getEnv("APP_BASE_URL", "http://localhost:5173"),

		// Auth
		JWTSecret:             getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpiryHours:        getEnvInt("JWT_EXPIRY_HOURS", 24),
		EmailVerifyTTLHours:   getEnvInt("EMAIL_VERIFY_TTL_HOURS", 24),
		PasswordResetTTLHours: getEnvInt("PASSWORD_RESET_TTL_HOURS", 2),

		// Email
		ResendAPIKey:          getEnv("RESEND_API_KEY", ""),
		ResendFrom:            getEnv("RESEND_FROM", "Kue <no-reply@kueapp.local>"),
		EmailRateLimitSeconds: getEnvInt("EMAIL_RATE_LIMIT_SECONDS", 60),

		// Public views
		BoardCacheSeconds:   getEnvInt("BOARD_CACHE_SECONDS", 5),
		WaitEstimateMinutes: getEnvInt("WAIT_ESTIMATE_MINUTES", 15),
	}
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
