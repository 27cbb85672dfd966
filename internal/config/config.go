package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string

	CBRURL        string
	RedisAddr     string
	RatesCacheTTL time.Duration

	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
	SenderEmail string

	// Cron specs for the scheduled jobs.
	RateRefreshSpec string
	AccrualSpec     string
	ReminderSpec    string
	// Days before a due date a payment reminder goes out.
	ReminderDays int
}

// NewConfig loads configuration from a .env file (when present) and the
// environment.
func NewConfig() (*Config, error) {
	// Missing .env is fine, the environment wins anyway.
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		DBConn:   getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=ledger sslmode=disable"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		CBRURL:        getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RatesCacheTTL: getEnvDuration("RATES_CACHE_TTL", 6*time.Hour),

		SMTPHost:    getEnv("SMTP_HOST", "localhost"),
		SMTPPort:    getEnv("SMTP_PORT", "587"),
		SMTPUser:    getEnv("SMTP_USER", ""),
		SMTPPass:    getEnv("SMTP_PASS", ""),
		SenderEmail: getEnv("SENDER_EMAIL", "noreply@ledger.local"),

		RateRefreshSpec: getEnv("RATE_REFRESH_SPEC", "0 7 * * *"),
		AccrualSpec:     getEnv("ACCRUAL_SPEC", "0 9 1 * *"),
		ReminderSpec:    getEnv("REMINDER_SPEC", "0 10 * * *"),
		ReminderDays:    getEnvInt("REMINDER_DAYS", 3),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.ReminderDays < 0 {
		return nil, fmt.Errorf("REMINDER_DAYS must not be negative")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultVal
}
