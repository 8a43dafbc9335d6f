package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/config"
)

func testContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestRateIdentityRendersClaimTypes(t *testing.T) {
	c := testContext("/v1/reservations")
	require.Equal(t, "anon", rateIdentity(c))

	// JWTAuth stores the subject claim as it came out of the JSON
	// parser, a float64.
	c.Set("user_id", float64(42))
	require.Equal(t, "42", rateIdentity(c))

	c.Set("user_id", uint64(7))
	require.Equal(t, "7", rateIdentity(c))
}

func TestRateKeyStrategies(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "restaurant:rl", KeyStrategy: "user"}
	c := testContext("/v1/reservations")
	c.Set("user_id", float64(42))

	key := rateKey(cfg, c)
	require.Equal(t, "restaurant:rl:user:42", key)

	cfg.KeyStrategy = "ip_user_route"
	key = rateKey(cfg, c)
	require.Contains(t, key, ":user:42")
	require.Contains(t, key, "GET")
}

func TestCacheEntryRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	body := []byte(`{"tables":[]}`)

	entry, err := encodeEntry(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodeEntry(entry)
	require.True(t, ok)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	require.Equal(t, body, gotBody)

	_, _, _, ok = decodeEntry([]byte("short"))
	require.False(t, ok)
}

func TestMiddlewareDisabledPassThrough(t *testing.T) {
	called := false
	next := func(c echo.Context) error { called = true; return nil }

	c := testContext("/v1/tables")
	require.NoError(t, NewRedisCache(config.CacheConfig{}, nil)(next)(c))
	require.True(t, called)

	called = false
	require.NoError(t, NewTokenBucket(config.RateLimitConfig{}, nil)(next)(c))
	require.True(t, called)
}
