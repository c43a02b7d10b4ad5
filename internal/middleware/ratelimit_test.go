package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pekoMaster/ticketticket/internal/config"
)

func rateTestConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       5,
		RefillTokens:   5,
		RefillInterval: time.Second,
		TTL:            time.Minute,
		Prefix:         "rl",
		KeyStrategy:    "ip_user_route",
	}
}

func TestTokenBucketDisabledPassThrough(t *testing.T) {
	cfg := rateTestConfig()
	cfg.Enabled = false
	c, rec := newEchoContext(http.MethodGet, "/v1/listings", "/v1/listings")

	err := NewTokenBucket(cfg, nil)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenBucketFailsOpenOnRedisError(t *testing.T) {
	// A mock with no expectations rejects every command, standing in
	// for an unreachable Redis.  The limiter must still serve.
	rdb, _ := redismock.NewClientMock()
	c, rec := newEchoContext(http.MethodGet, "/v1/listings", "/v1/listings")

	called := false
	err := NewTokenBucket(rateTestConfig(), rdb)(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	})(c)

	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildRateKeyStrategies(t *testing.T) {
	cfg := rateTestConfig()
	c, _ := newEchoContext(http.MethodGet, "/v1/listings", "/v1/listings")
	c.Set("user_id", uint64(42))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, c))

	cfg.KeyStrategy = "route"
	assert.Equal(t, "rl:route:GET /v1/listings", buildRateKey(cfg, c))

	cfg.KeyStrategy = "ip_user_route"
	key := buildRateKey(cfg, c)
	assert.Contains(t, key, ":user:42:")
	assert.Contains(t, key, "GET /v1/listings")
}

func TestCurrentUserIDAnonymous(t *testing.T) {
	c, _ := newEchoContext(http.MethodGet, "/", "/")
	assert.Equal(t, "anon", currentUserID(c))

	c.Set("user_id", float64(7))
	assert.Equal(t, "7", currentUserID(c))

	c.Set("user_id", "abc")
	assert.Equal(t, "abc", currentUserID(c))
}

func TestAsInt64(t *testing.T) {
	assert.Equal(t, int64(3), asInt64(int64(3)))
	assert.Equal(t, int64(3), asInt64(3))
	assert.Equal(t, int64(3), asInt64(3.9))
	assert.Equal(t, int64(3), asInt64("3"))
	assert.Equal(t, int64(0), asInt64("nope"))
	assert.Equal(t, int64(0), asInt64(nil))
}
