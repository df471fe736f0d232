package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("TOKEN_TTL_MINUTES", "")
	t.Setenv("DIRECTORY_TIMEOUT_MS", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := Load()

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, time.Hour, cfg.TokenTTL())
	assert.Equal(t, 3*time.Second, cfg.DirectoryTimeout())
	assert.Equal(t, []string{"localhost:9093"}, cfg.KafkaBrokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("USE_REDIS", "1")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("DIRECTORY_TIMEOUT_MS", "not-a-number")
	t.Setenv("STORE_SERVICE_URL", "http://stores.internal")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.True(t, cfg.UseRedis)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3000, cfg.DirectoryTimeoutMs)
	assert.Equal(t, "http://stores.internal", cfg.StoreServiceURL)
}
