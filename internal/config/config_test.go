package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8085", cfg.HTTPAddr)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "declarations", cfg.DB.Name)
	assert.Equal(t, time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 5, cfg.OTP.ExpiryMinutes)
	assert.Equal(t, 3, cfg.OTP.MaxAttempts)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "noreply@salyq.kz", cfg.SMTP.From)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.JSON)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("JWT_EXPIRY_MINUTES", "15")
	t.Setenv("OTP_MAX_ATTEMPTS", "5")
	t.Setenv("SMTP_HOST", "mail.salyq.kz")
	t.Setenv("LOG_FORMAT", "json")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, 6432, cfg.DB.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.Expiry)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, "mail.salyq.kz", cfg.SMTP.Host)
	assert.True(t, cfg.Log.JSON)
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	cfg := Load()
	assert.Equal(t, 5432, cfg.DB.Port)
}

func TestDSN(t *testing.T) {
	db := DBConfig{Host: "db", Port: 5432, Name: "declarations", User: "svc", Password: "pw", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=svc password=pw dbname=declarations sslmode=disable", db.DSN())
}
