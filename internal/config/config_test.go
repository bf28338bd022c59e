package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "")
	t.Setenv("SEARCH_DEBOUNCE", "")
	t.Setenv("WORKER_METRICS_PORT", "")
	cfg := Load()
	assert.Equal(t, "http://localhost:8090/api/v1", cfg.UpstreamURL)
	assert.Equal(t, 500*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "9091", cfg.MetricsPort)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("RATE_LIMIT_PER_MIN", "abc")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test,")
	cfg := Load()
	assert.True(t, cfg.Production())
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSOrigins)
}
