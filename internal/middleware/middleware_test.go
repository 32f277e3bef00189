package middleware

import (
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/go-redis/redismock/v9"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cinema-seat-booking/internal/config"
    "github.com/iliyamo/cinema-seat-booking/internal/utils"
)

func protected(secret string) *echo.Echo {
    e := echo.New()
    e.GET("/me", func(c echo.Context) error {
        id, ok := UserID(c)
        if !ok {
            return c.NoContent(http.StatusInternalServerError)
        }
        return c.JSON(http.StatusOK, echo.Map{"user_id": id})
    }, JWTAuth(secret))
    return e
}

func TestJWTAuthSetsUserID(t *testing.T) {
    tok, err := utils.NewAccessToken("s3cret", 42, 5)
    require.NoError(t, err)

    req := httptest.NewRequest(http.MethodGet, "/me", nil)
    req.Header.Set("Authorization", "Bearer "+tok.Token)
    rec := httptest.NewRecorder()
    protected("s3cret").ServeHTTP(rec, req)

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"user_id":42}`, rec.Body.String())
}

func TestJWTAuthRejects(t *testing.T) {
    wrong, err := utils.NewAccessToken("other", 42, 5)
    require.NoError(t, err)
    expired, err := utils.NewAccessToken("s3cret", 42, -5)
    require.NoError(t, err)

    cases := map[string]string{
        "missing":   "",
        "malformed": "Bearer not-a-jwt",
        "wrong key": "Bearer " + wrong.Token,
        "expired":   "Bearer " + expired.Token,
        "basic":     "Basic abc",
    }
    for name, header := range cases {
        t.Run(name, func(t *testing.T) {
            req := httptest.NewRequest(http.MethodGet, "/me", nil)
            if header != "" {
                req.Header.Set("Authorization", header)
            }
            rec := httptest.NewRecorder()
            protected("s3cret").ServeHTTP(rec, req)
            assert.Equal(t, http.StatusUnauthorized, rec.Code)
            assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
        })
    }
}

func TestParseUserID(t *testing.T) {
    id, ok := parseUserID("17")
    assert.True(t, ok)
    assert.Equal(t, uint64(17), id)
    id, ok = parseUserID(float64(9))
    assert.True(t, ok)
    assert.Equal(t, uint64(9), id)
    for _, v := range []interface{}{"0", "-1", "abc", float64(1.5), float64(0), float64(1 << 64), 1e20, nil, true} {
        _, ok := parseUserID(v)
        assert.False(t, ok, "%v", v)
    }
}

func limited(cfg config.RateLimitConfig, mw echo.MiddlewareFunc) *echo.Echo {
    e := echo.New()
    asUser := func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            c.Set(UserIDKey, uint64(7))
            return next(c)
        }
    }
    e.POST("/v1/seat-locks", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, asUser, mw)
    return e
}

func testRateConfig() config.RateLimitConfig {
    return config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: 3 * time.Second,
        TTL:            time.Minute,
        KeyStrategy:    "user_route",
        Prefix:         "rl",
    }
}

func fixClock(t *testing.T) time.Time {
    at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
    prev := now
    now = func() time.Time { return at }
    t.Cleanup(func() { now = prev })
    return at
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
    cfg := testRateConfig()
    cfg.Enabled = false
    rec := httptest.NewRecorder()
    limited(cfg, NewTokenBucket(cfg, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/seat-locks", nil))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestTokenBucketAllowsAndBlocks(t *testing.T) {
    at := fixClock(t)
    cfg := testRateConfig()
    rdb, mock := redismock.NewClientMock()
    key := "rl:user:7:route:POST /v1/seat-locks"
    args := []interface{}{at.UnixMilli(), cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), int64(60)}

    mock.ExpectEvalSha(limiterScript.Hash(), []string{key}, args...).SetVal([]interface{}{int64(1), int64(1), int64(0)})
    mock.ExpectEvalSha(limiterScript.Hash(), []string{key}, args...).SetVal([]interface{}{int64(0), int64(0), int64(1500)})

    e := limited(cfg, NewTokenBucket(cfg, rdb))

    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/seat-locks", nil))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
    assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

    rec = httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/seat-locks", nil))
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.Equal(t, "2", rec.Header().Get("Retry-After"))
    assert.Contains(t, rec.Body.String(), `"code":"TOO_MANY_REQUESTS"`)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenBucketFailsOpenOnRedisError(t *testing.T) {
    at := fixClock(t)
    cfg := testRateConfig()
    rdb, mock := redismock.NewClientMock()
    key := "rl:user:7:route:POST /v1/seat-locks"
    mock.ExpectEvalSha(limiterScript.Hash(), []string{key},
        at.UnixMilli(), cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), int64(60)).
        SetErr(errors.New("connection refused"))

    rec := httptest.NewRecorder()
    limited(cfg, NewTokenBucket(cfg, rdb)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/seat-locks", nil))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildRateKeyStrategies(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/reservations", nil)
    req.RemoteAddr = "10.0.0.5:4242"
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/reservations")

    cfg := testRateConfig()
    cfg.KeyStrategy = "ip_route"
    assert.Equal(t, "rl:ip:10.0.0.5:route:POST /v1/reservations", buildRateKey(cfg, c))

    cfg.KeyStrategy = "user"
    assert.Equal(t, "rl:user:anon", buildRateKey(cfg, c))

    c.Set(UserIDKey, uint64(3))
    assert.Equal(t, "rl:user:3", buildRateKey(cfg, c))
}
