package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JUDRAGONII/AI----sub000/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	assert.False(t, client.Enabled())
	assert.Nil(t, client.Redis())
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "quant")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "factor:2330", map[string]float64{"total": 61.2}, TTLDaily))

	var dest map[string]float64
	found, err := cache.Get(ctx, "factor:2330", &dest)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "factor:2330"))
}

func TestCache_RoundTrip(t *testing.T) {
	host := os.Getenv("REDIS_HOST")
	if host == "" || testing.Short() {
		t.Skip("REDIS_HOST not set")
	}

	ctx := context.Background()
	client, err := New(ctx, &config.Config{Redis: config.RedisConfig{
		Host:    host,
		Port:    envOr("REDIS_PORT", "6379"),
		Enabled: true,
	}})
	require.NoError(t, err)
	defer client.Close()

	cache := NewCache(client, "quant-test")
	key := "indicators:TEST:" + time.Now().Format("150405.000000")
	defer cache.Delete(ctx, key)

	type panel struct {
		SecurityID string    `json:"security_id"`
		RSI        []float64 `json:"rsi"`
	}
	want := panel{SecurityID: "TEST", RSI: []float64{55.5, 61.25}}
	require.NoError(t, cache.Set(ctx, key, want, time.Minute))

	var got panel
	found, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	found, err = cache.Get(ctx, key+":absent", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
