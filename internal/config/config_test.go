package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("VERIFY_TOKEN_TTL", "")
	t.Setenv("MAILER_WORKERS", "")
	t.Setenv("DB_MAX_CONNS", "")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 20, cfg.DBMaxConns)
	assert.Equal(t, 30*time.Minute, cfg.DBMaxConnLifetime)
	assert.Equal(t, 72*time.Hour, cfg.VerifyTokenTTL)
	assert.Equal(t, 4, cfg.MailerWorkers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("BASE_URL", "https://books.example/")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("MAILER_WORKERS", "not-a-number")
	t.Setenv("DB_MAX_CONNS", "40")
	t.Setenv("DB_MAX_CONN_LIFETIME", "5m")

	cfg := Load()
	assert.Equal(t, 40, cfg.DBMaxConns)
	assert.Equal(t, 5*time.Minute, cfg.DBMaxConnLifetime)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "https://books.example", cfg.BaseURL)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 4, cfg.MailerWorkers)
}
