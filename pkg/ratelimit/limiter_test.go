package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotogether/ride-pooling/pkg/config"
)

func testRateLimitConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:       true,
		WindowSeconds: 60,
		DefaultLimit:  10,
		DefaultBurst:  5,
		RedisPrefix:   "ratelimit",
	}
}

func newTestLimiter(t *testing.T, cfg config.RateLimitConfig) (*Limiter, redismock.ClientMock) {
	t.Helper()

	client, mock := redismock.NewClientMock()
	limiter := NewLimiter(client, cfg)
	limiter.now = func() time.Time {
		return time.UnixMilli(1_700_000_000_000)
	}
	return limiter, mock
}

func scriptArgs(rule Rule) (key string, args []interface{}) {
	windowMillis := rule.Window.Milliseconds()
	refillRate := float64(rule.Limit) / float64(windowMillis)
	capacity := float64(rule.Limit + rule.Burst)

	key = "ratelimit:POST:/api/v1/trips/search:1.2.3.4"
	args = []interface{}{
		int64(1_700_000_000_000),
		formatFloat(refillRate),
		formatFloat(capacity),
		windowMillis * 2,
	}
	return key, args
}

func TestAllow_DisabledConfigAlwaysAllows(t *testing.T) {
	cfg := testRateLimitConfig()
	cfg.Enabled = false
	limiter, mock := newTestLimiter(t, cfg)

	result, err := limiter.Allow(context.Background(), "POST:/api/v1/trips/search", "1.2.3.4", limiter.DefaultRule())

	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllow_WithinLimit(t *testing.T) {
	limiter, mock := newTestLimiter(t, testRateLimitConfig())
	rule := limiter.DefaultRule()

	key, args := scriptArgs(rule)
	sha := redis.NewScript(tokenBucketScript).Hash()
	mock.ExpectEvalSha(sha, []string{key}, args...).
		SetVal([]interface{}{int64(1), "13.5", int64(0)})

	result, err := limiter.Allow(context.Background(), "POST:/api/v1/trips/search", "1.2.3.4", rule)

	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 13, result.Remaining)
	assert.Equal(t, 10, result.Limit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllow_DeniesWhenBucketEmpty(t *testing.T) {
	limiter, mock := newTestLimiter(t, testRateLimitConfig())
	rule := limiter.DefaultRule()

	key, args := scriptArgs(rule)
	sha := redis.NewScript(tokenBucketScript).Hash()
	mock.ExpectEvalSha(sha, []string{key}, args...).
		SetVal([]interface{}{int64(0), "0", int64(500)})

	result, err := limiter.Allow(context.Background(), "POST:/api/v1/trips/search", "1.2.3.4", rule)

	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, 500*time.Millisecond, result.RetryAfter)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllow_PropagatesRedisError(t *testing.T) {
	limiter, mock := newTestLimiter(t, testRateLimitConfig())
	rule := limiter.DefaultRule()

	key, args := scriptArgs(rule)
	sha := redis.NewScript(tokenBucketScript).Hash()
	mock.ExpectEvalSha(sha, []string{key}, args...).
		SetErr(errors.New("connection refused"))

	_, err := limiter.Allow(context.Background(), "POST:/api/v1/trips/search", "1.2.3.4", rule)

	require.Error(t, err)
}

func TestAllow_ZeroLimitRuleAllows(t *testing.T) {
	limiter, mock := newTestLimiter(t, testRateLimitConfig())

	result, err := limiter.Allow(context.Background(), "POST:/api/v1/trips/search", "1.2.3.4", Rule{Limit: 0})

	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefaultRule(t *testing.T) {
	limiter, _ := newTestLimiter(t, testRateLimitConfig())

	rule := limiter.DefaultRule()

	assert.Equal(t, 10, rule.Limit)
	assert.Equal(t, 5, rule.Burst)
	assert.Equal(t, time.Minute, rule.Window)
}
