package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pekoMaster/ticketticket/internal/config"
)

func cacheTestConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{"GET": true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "cache",
	}
}

func newEchoContext(method, target, path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)
	return c, rec
}

func TestCacheMissInvokesHandler(t *testing.T) {
	cfg := cacheTestConfig()
	rdb, mock := redismock.NewClientMock()
	c, rec := newEchoContext(http.MethodGet, "/v1/listings?limit=10", "/v1/listings")

	mock.ExpectGet(cacheKeyFrom(cfg, c)).RedisNil()

	called := false
	next := func(c echo.Context) error {
		called = true
		return c.JSON(http.StatusOK, echo.Map{"listings": []string{}})
	}
	err := NewRedisCache(cfg, rdb)(next)(c)

	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

func TestCacheHitSkipsHandler(t *testing.T) {
	cfg := cacheTestConfig()
	rdb, mock := redismock.NewClientMock()
	c, rec := newEchoContext(http.MethodGet, "/v1/listings", "/v1/listings")

	body := []byte(`{"listings":[]}`)
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	payload, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)
	mock.ExpectGet(cacheKeyFrom(cfg, c)).SetVal(string(payload))

	next := func(c echo.Context) error {
		t.Fatal("handler must not run on a cache hit")
		return nil
	}
	err = NewRedisCache(cfg, rdb)(next)(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, string(body), rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheSkipsUncachedMethods(t *testing.T) {
	cfg := cacheTestConfig()
	rdb, _ := redismock.NewClientMock()
	c, rec := newEchoContext(http.MethodPost, "/v1/listings", "/v1/listings")

	called := false
	next := func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusCreated)
	}
	err := NewRedisCache(cfg, rdb)(next)(c)

	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCacheDisabledPassThrough(t *testing.T) {
	cfg := cacheTestConfig()
	cfg.Enabled = false
	c, rec := newEchoContext(http.MethodGet, "/v1/listings", "/v1/listings")

	err := NewRedisCache(cfg, nil)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"X-Test": []string{"a", "b"}}
	payload, err := encodePayload(http.StatusTeapot, hdr, []byte("body"))
	require.NoError(t, err)

	status, decoded, body, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusTeapot, status)
	assert.Equal(t, []string{"a", "b"}, decoded["X-Test"])
	assert.Equal(t, "body", string(body))

	_, _, _, ok = decodePayload([]byte("short"))
	assert.False(t, ok)
}
