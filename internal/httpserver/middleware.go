package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// corsMiddleware allows browser dashboards on any origin to call the API.
// Preflight requests are answered here and never reach the handlers.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, x-api-key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// authMiddleware enforces the shared x-api-key header. An empty configured
// key disables the check entirely.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.apiKey != "" && c.GetHeader("x-api-key") != s.apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// rateLimitMiddleware throttles the expensive threat report per caller.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter != nil && !s.limiter.allow(callerKey(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}

// callerKey identifies a caller for rate limiting: the API key when one is
// presented, the remote IP otherwise.
func callerKey(c *gin.Context) string {
	if key := c.GetHeader("x-api-key"); key != "" {
		return key
	}
	return c.ClientIP()
}

// callerLimiter hands out one token-bucket limiter per caller key.
type callerLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// newCallerLimiter allows n requests per window for each distinct caller,
// with the full window's quota available as burst.
func newCallerLimiter(n int, window time.Duration) *callerLimiter {
	return &callerLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(n) / window.Seconds()),
		burst:    n,
	}
}

func (l *callerLimiter) allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
