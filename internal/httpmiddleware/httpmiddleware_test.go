package httpmiddleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTokenBucketRefills(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewSimpleTokenBucket(2, 60)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.True(t, l.allow("b"))

	now = now.Add(time.Second)
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
}

func TestTokenBucketEvictsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewSimpleTokenBucket(2, 2)
	l.now = func() time.Time { return now }

	for i := 0; i < 50; i++ {
		l.allow(fmt.Sprintf("client-%d", i))
	}
	assert.Len(t, l.state, 50)

	now = now.Add(30 * time.Second)
	assert.True(t, l.allow("client-0"))
	assert.True(t, l.allow("client-0"))
	assert.False(t, l.allow("client-0"))

	now = now.Add(45 * time.Second)
	assert.True(t, l.allow("fresh"))
	assert.Len(t, l.state, 2, "only the recently used and the new bucket survive")
	assert.Contains(t, l.state, "client-0")
}

func TestGinMiddlewareKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewSimpleTokenBucket(1, 1)
	r := gin.New()
	r.Use(l.GinMiddleware(func(c *gin.Context) string { return c.GetHeader("X-Who") }))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(who string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Who", who)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, do("ada"))
	assert.Equal(t, http.StatusTooManyRequests, do("ada"))
	assert.Equal(t, http.StatusOK, do("grace"))
}

func TestLoggerSkipsPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core), "/healthz"))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/x", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, p := range []string{"/healthz", "/api/x"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	}

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "/api/x", entries[0].ContextMap()["path"])
		assert.Equal(t, int64(404), entries[0].ContextMap()["status"])
	}
}
