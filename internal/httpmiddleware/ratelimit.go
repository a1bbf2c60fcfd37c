package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// PerIPLimiter caps requests per client IP over a fixed window. In-memory;
// swap for a Redis-backed limiter when running more than one API instance.
type PerIPLimiter struct {
	limit  int
	window time.Duration
	mu     sync.Mutex
	state  map[string]*windowState
}

type windowState struct {
	count int
	start time.Time
}

// NewPerIPLimiter allows limit requests per window for each client IP.
func NewPerIPLimiter(limit int, window time.Duration) *PerIPLimiter {
	if limit <= 0 {
		limit = 120
	}
	if window <= 0 {
		window = time.Minute
	}
	return &PerIPLimiter{
		limit:  limit,
		window: window,
		state:  make(map[string]*windowState),
	}
}

// Middleware returns a gin handler rejecting over-limit clients with 429.
func (l *PerIPLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (l *PerIPLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	w, ok := l.state[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.state[key] = &windowState{count: 1, start: now}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}
