package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOptionsFromEnv(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "")
	t.Setenv("REDIS_PASSWORD", "secret")

	opts := LoadOptionsFromEnv()

	assert.Equal(t, Options{Host: "cache", Port: "6379", Password: "secret"}, opts)
	assert.True(t, opts.Enabled())
}

func TestNewRedisClient_Disabled(t *testing.T) {
	rdb, err := NewRedisClient(context.Background(), Options{})

	require.NoError(t, err)
	assert.Nil(t, rdb)
}
