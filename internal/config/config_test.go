package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("KAFKA_ENABLED", "")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Runtime.CapabilityTTL)
	assert.Equal(t, 30*time.Second, cfg.Redis.LockTTL)
	assert.Len(t, cfg.Kafka.Topics.All(), 6)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("CAPABILITY_TTL", "2s")
	t.Setenv("RECORD_LOCK_TTL", "not-a-duration")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Runtime.CapabilityTTL)
	assert.Equal(t, 30*time.Second, cfg.Redis.LockTTL, "invalid durations fall back to the default")
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
}
