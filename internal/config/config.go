package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the service reads from the environment.
// None of these values change core computation semantics.
type Config struct {
	HTTPAddr string

	DB   DBConfig
	JWT  JWTConfig
	OTP  OTPConfig
	SMTP SMTPConfig
	Log  LogConfig
}

type DBConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// DSN renders the gorm/postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// OTPConfig tunes the external identity provider's one-time codes. The
// service itself never issues codes; the values are passed through so one
// deployment manifest can configure both sides.
type OTPConfig struct {
	ExpiryMinutes int
	MaxAttempts   int
}

// SMTPConfig points at the outbound mail relay used by notification
// collaborators.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type LogConfig struct {
	Level string
	JSON  bool
}

// Load reads the environment with sane local-dev defaults.
func Load() Config {
	return Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8085"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "declarations"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "dev-secret"),
			Expiry: time.Duration(getEnvInt("JWT_EXPIRY_MINUTES", 60)) * time.Minute,
		},
		OTP: OTPConfig{
			ExpiryMinutes: getEnvInt("OTP_EXPIRY_MINUTES", 5),
			MaxAttempts:   getEnvInt("OTP_MAX_ATTEMPTS", 3),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnvInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "noreply@salyq.kz"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			JSON:  getEnv("LOG_FORMAT", "text") == "json",
		},
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
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
