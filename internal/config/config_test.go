package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 168*time.Hour, cfg.CartTTLDuration())
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle())
	assert.Equal(t, 2*time.Second, cfg.CartPersistTimeout())
	assert.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL())
	assert.False(t, cfg.KafkaEnabled)
	assert.False(t, cfg.PprofEnabled)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, 20.0, cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.prod:6380")
	t.Setenv("CART_TTL_HOURS", "24")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://foodie.example,https://admin.foodie.example")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "redis.prod:6380", cfg.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.CartTTLDuration())
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Len(t, cfg.CORSAllowedOrigins, 2)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"port", "STOREFRONT_HTTP_PORT", "0", "invalid HTTP port"},
		{"cart ttl", "CART_TTL_HOURS", "0", "CART_TTL_HOURS must be positive"},
		{"idle", "SESSION_IDLE_MINUTES", "-1", "SESSION_IDLE_MINUTES must be positive"},
		{"backend url", "BACKEND_BASE_URL", "not a url", "invalid BACKEND_BASE_URL"},
		{"retries", "BACKEND_MAX_RETRIES", "-1", "BACKEND_MAX_RETRIES"},
		{"cb ratio", "CB_FAILURE_RATIO", "1.5", "CB_FAILURE_RATIO"},
		{"rate", "RATE_LIMIT_RPS", "-1", "RATE_LIMIT_RPS"},
		{"burst", "RATE_LIMIT_BURST", "0", "RATE_LIMIT_BURST must be positive"},
		{"otel", "OTEL_SAMPLE_RATE", "2.0", "OTEL_SAMPLE_RATE must be between 0.0 and 1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MalformedNumber(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	assert.Error(t, err)
}
