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
	assert.Equal(t, "0.0.0.0:8083", cfg.Server.Address())
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
	assert.True(t, cfg.MongoDB.Transactions)
	assert.False(t, cfg.Products.RequireApproval)
	assert.Equal(t, 10*time.Minute, cfg.Products.CategoriesCacheTTL)
	assert.Equal(t, "product_events", cfg.Kafka.Topic)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("MONGODB_TRANSACTIONS", "false")
	t.Setenv("PRODUCTS_REQUIRE_APPROVAL", "true")
	t.Setenv("CATEGORIES_CACHE_TTL", "30s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.MongoDB.Transactions)
	assert.True(t, cfg.Products.RequireApproval)
	assert.Equal(t, 30*time.Second, cfg.Products.CategoriesCacheTTL)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"REDIS_DB", "zero"},
		{"MONGODB_TRANSACTIONS", "maybe"},
		{"PRODUCTS_REQUIRE_APPROVAL", "sometimes"},
		{"CATEGORIES_CACHE_TTL", "ten minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()

			assert.Error(t, err)
		})
	}
}
