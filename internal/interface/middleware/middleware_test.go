package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	"github.com/oksasatya/loan-simulator/internal/infrastructure/redisstore"
	"github.com/oksasatya/loan-simulator/pkg/helpers"
	"github.com/oksasatya/loan-simulator/pkg/response"
)

func init() { gin.SetMode(gin.TestMode) }

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"id":    c.GetString(CtxUserID),
		"name":  c.GetString(CtxUserName),
		"email": c.GetString(CtxUserEmail),
		"role":  c.GetString(CtxUserRole),
	})
}

func TestAuth(t *testing.T) {
	_, rdb := newRedis(t)
	sessions := redisstore.NewSessionStore(rdb)
	jwt := helpers.NewJWTManager("access", "refresh", time.Minute, time.Hour)

	require.NoError(t, sessions.SetCurrentUser(context.Background(), &entity.Session{
		UserID: "u-1", SessionID: "s-1", Email: "ana@example.com", Name: "Ana", Role: entity.RoleAnalyst,
	}, time.Hour))

	r := gin.New()
	r.GET("/me", Auth(sessions, jwt), whoami)
	r.GET("/analyst", Auth(sessions, jwt), RequireRole(entity.RoleAnalyst), whoami)
	r.GET("/customer", Auth(sessions, jwt), RequireRole(entity.RoleCustomer), whoami)

	good, _, err := jwt.GenerateAccessToken("u-1", "s-1")
	require.NoError(t, err)
	stale, _, err := jwt.GenerateAccessToken("u-1", "s-0")
	require.NoError(t, err)
	refresh, _, err := jwt.GenerateRefreshToken("u-1", "s-1")
	require.NoError(t, err)

	do := func(path string, mod func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if mod != nil {
			mod(req)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	cookie := func(tok string) func(*http.Request) {
		return func(req *http.Request) { req.AddCookie(&http.Cookie{Name: helpers.AccessCookie, Value: tok}) }
	}

	t.Run("cookie", func(t *testing.T) {
		w := do("/me", cookie(good))
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, map[string]string{"id": "u-1", "name": "Ana", "email": "ana@example.com", "role": "analyst"}, body)
	})
	t.Run("bearer", func(t *testing.T) {
		w := do("/me", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+good) })
		assert.Equal(t, http.StatusOK, w.Code)
	})
	t.Run("missing", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("/me", nil).Code)
	})
	t.Run("refresh token is not an access token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("/me", cookie(refresh)).Code)
	})
	t.Run("replaced session", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("/me", cookie(stale)).Code)
	})
	t.Run("role", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do("/analyst", cookie(good)).Code)
		assert.Equal(t, http.StatusForbidden, do("/customer", cookie(good)).Code)
	})
	t.Run("logged out", func(t *testing.T) {
		require.NoError(t, sessions.ClearCurrentUser(context.Background(), "u-1"))
		assert.Equal(t, http.StatusUnauthorized, do("/me", cookie(good)).Code)
	})
}

func TestRateLimit(t *testing.T) {
	mr, rdb := newRedis(t)
	r := gin.New()
	r.Use(RealIP())
	r.GET("/quote", RateLimit(rdb, 2, time.Minute, KeyByIPAndPath(), nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/open", RateLimit(rdb, 1, time.Minute, KeyByIP(), AllowPrivateIP()), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	hit := func(path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := hit("/quote", "203.0.113.7")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusNoContent, hit("/quote", "203.0.113.7").Code)

	w = hit("/quote", "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, hit("/quote", "198.51.100.1").Code, "other clients have their own bucket")

	mr.FastForward(time.Minute)
	assert.Equal(t, http.StatusNoContent, hit("/quote", "203.0.113.7").Code, "window expired")

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, hit("/open", "10.0.0.5").Code)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	r := gin.New()
	r.GET("/x", RateLimit(rdb, 1, time.Minute, KeyByIP(), nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, ClientIP(c)) })

	cases := map[string]map[string]string{
		"198.51.100.9": {"CF-Connecting-IP": "198.51.100.9", "X-Forwarded-For": "203.0.113.1"},
		"203.0.113.1":  {"CF-Connecting-IP": "garbage", "X-Forwarded-For": "203.0.113.1, 10.0.0.1"},
		"192.0.2.44":   {"X-Real-IP": "192.0.2.44", "X-Forwarded-For": "203.0.113.1"},
		"192.0.2.1":    {"X-Forwarded-For": "not-an-ip"},
	}
	for want, headers := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(response.RequestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Body.String()
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Header().Get(HeaderRequestID))

	const incoming = "0b5e8f4e-3a63-4c0e-9d7e-5f6c2b1a9e10"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "not a uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not a uuid", w.Body.String())
}
