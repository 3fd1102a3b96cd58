// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a lightweight, in-memory, token-bucket rate limiter
// with per-identity buckets and opportunistic garbage collection. On the
// interactions route the identity is the invoking Discord user; the web
// routes fall back to the client IP.
//
// The limiter is process-local and intended for abuse control; it is not an
// authorization mechanism.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP prefers the Discord user stored under "userID" by
// VerifyInteraction and falls back to the client IP. Keys are prefixed so
// the two namespaces never collide.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if uid := userIDFromCtx(c); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

// visitor holds a single rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements a per-key token-bucket rate limiter.
//
// Buckets are created on demand and evicted after ttl of inactivity during
// opportunistic cleanup. This type is safe for concurrent use.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	keyFn    keyFunc
	deny     gin.HandlerFunc
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// LimiterOption customizes a RateLimiter.
type LimiterOption func(*RateLimiter)

// WithDeny replaces the default 429 answer. The handler must write a
// response; the chain is aborted afterwards.
func WithDeny(h gin.HandlerFunc) LimiterOption {
	return func(rl *RateLimiter) { rl.deny = h }
}

// NewRateLimiter constructs a RateLimiter with the given tokens-per-second
// and burst size, keyed by keyFn. A burst <= 0 is coerced to 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc, opts ...LimiterOption) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	rl := &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		deny:     tooManyRequests,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
	for _, o := range opts {
		o(rl)
	}
	return rl
}

// getVisitor returns (and updates) the limiter for key, creating it if absent.
// Idle entries are collected every 5000 lookups, before the requested
// visitor is touched so that a stale bucket can be evicted even when it is
// the one being fetched.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, vv := range rl.visitors {
			if now.Sub(vv.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler returns a Gin middleware that enforces per-key token-bucket limits.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		rl.deny(c)
		c.Abort()
	}
}

// tooManyRequests is the default denial:
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: 1
//	{"request_id": "<uuid>", "code": "rate_limited", "message": "rate limit exceeded"}
func tooManyRequests(c *gin.Context) {
	c.Header("Retry-After", "1")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "rate_limited",
		"message":    "rate limit exceeded",
	})
}
