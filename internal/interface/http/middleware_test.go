package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/health-voice/internal/infra/config"
)

func TestClientLimiter_CostAndRefill(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	limiter := newClientLimiter(config.RateLimitConfig{RequestsPerMinute: 6, Burst: 5})
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.take("10.0.0.1", 5))
	require.False(t, limiter.take("10.0.0.1", 1))
	require.True(t, limiter.take("10.0.0.2", 1), "buckets are per client")

	now = now.Add(30 * time.Second)
	require.True(t, limiter.take("10.0.0.1", 3))
	require.False(t, limiter.take("10.0.0.1", 1))

	now = now.Add(time.Hour)
	require.True(t, limiter.take("10.0.0.1", 5), "idle clients start with a full bucket")
	require.False(t, limiter.take("10.0.0.1", 1))
}

func TestClientLimiter_SweepsIdleBuckets(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	limiter := newClientLimiter(config.RateLimitConfig{RequestsPerMinute: 60, Burst: 2})
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.take("a", 1))
	require.True(t, limiter.take("b", 1))
	require.Len(t, limiter.buckets, 2)

	now = now.Add(10 * time.Minute)
	require.True(t, limiter.take("c", 1))
	require.Len(t, limiter.buckets, 1)
	require.Contains(t, limiter.buckets, "c")
}
