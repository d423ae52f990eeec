package main

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Fixed-window rate limiter keyed by client IP. Windows reset lazily on the
// next request after expiry, so an idle client costs nothing.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow

	max    int
	window time.Duration
}

type clientWindow struct {
	count     int
	resetTime time.Time
}

func newRateLimiter(max int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*clientWindow),
		max:     max,
		window:  window,
	}
}

// allow reports whether the client may proceed, counting this request.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.clients[clientIP]
	if !ok || now.After(w.resetTime) {
		rl.clients[clientIP] = &clientWindow{count: 1, resetTime: now.Add(rl.window)}
		return true
	}
	if w.count >= rl.max {
		return false
	}
	w.count++
	return true
}

// middleware rejects over-limit requests with the structured error body the
// frontend keys on.
func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(getClientIP(c)) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
				"code":  "RATE_LIMIT_EXCEEDED",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// getClientIP prefers proxy headers over the socket address since the app
// runs behind a reverse proxy in production.
func getClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("x-forwarded-for"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := c.GetHeader("x-real-ip"); realIP != "" {
		return realIP
	}
	if vercelIP := c.GetHeader("x-vercel-forwarded-for"); vercelIP != "" {
		return vercelIP
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
