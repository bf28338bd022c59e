package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// SimpleTokenBucket is an in-memory rate limiter keyed per client.
type SimpleTokenBucket struct {
	capacity int
	rate     int
	mu       sync.Mutex
	state    map[string]*bucket
	now      func() time.Time
	swept    time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewSimpleTokenBucket creates limiter with capacity tokens and rate per minute.
func NewSimpleTokenBucket(capacity, perMinute int) *SimpleTokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &SimpleTokenBucket{
		capacity: capacity,
		rate:     perMinute,
		state:    make(map[string]*bucket),
		now:      time.Now,
	}
}

// KeyFunc picks the bucket a request draws from.
type KeyFunc func(c *gin.Context) string

// ClientIP keys buckets by remote address.
func ClientIP(c *gin.Context) string { return c.ClientIP() }

// GinMiddleware returns gin handler enforcing per-key limits. A nil key
// falls back to the client IP.
func (l *SimpleTokenBucket) GinMiddleware(key KeyFunc) gin.HandlerFunc {
	if key == nil {
		key = ClientIP
	}
	return func(c *gin.Context) {
		k := key(c)
		if k == "" {
			k = "unknown"
		}
		if !l.allow(k) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
			return
		}
		c.Next()
	}
}

func (l *SimpleTokenBucket) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.evictIdle(now)
	b, ok := l.state[key]
	if !ok {
		b = &bucket{tokens: l.capacity - 1, last: now}
		l.state[key] = b
		return true
	}
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// fullAfter is how long an untouched bucket takes to refill completely.
func (l *SimpleTokenBucket) fullAfter() time.Duration {
	if l.rate <= 0 {
		return time.Minute
	}
	d := time.Duration(float64(l.capacity) / float64(l.rate) * float64(time.Minute))
	if d < time.Minute {
		d = time.Minute
	}
	return d
}

// evictIdle drops buckets that have refilled completely; a full bucket acts
// exactly like a missing one. Runs at most once per refill window.
func (l *SimpleTokenBucket) evictIdle(now time.Time) {
	window := l.fullAfter()
	if now.Sub(l.swept) < window {
		return
	}
	l.swept = now
	for k, b := range l.state {
		if now.Sub(b.last) >= window {
			delete(l.state, k)
		}
	}
}
