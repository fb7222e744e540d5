package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"agrispray/utils"

	"github.com/gin-gonic/gin"
)

const (
	visitorIdleTimeout = time.Hour
	sweepInterval      = 10 * time.Minute
)

// RateLimiter keeps one token bucket per client.
type RateLimiter struct {
	visitors  map[string]*Visitor
	mutex     sync.Mutex
	rate      time.Duration
	burst     int
	lastSweep time.Time
}

type Visitor struct {
	limiter  *TokenBucket
	lastSeen time.Time
}

type TokenBucket struct {
	tokens     int
	capacity   int
	refillRate time.Duration
	lastRefill time.Time
	mutex      sync.Mutex
}

// NewRateLimiter allows burst requests per client, refilling one token every
// rate/burst.
func NewRateLimiter(rate time.Duration, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		visitors:  make(map[string]*Visitor),
		rate:      rate,
		burst:     burst,
		lastSweep: time.Now(),
	}
}

func NewTokenBucket(capacity int, refillRate time.Duration) *TokenBucket {
	return &TokenBucket{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)

	if tb.refillRate > 0 && elapsed >= tb.refillRate {
		tokensToAdd := int(elapsed / tb.refillRate)
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = tb.lastRefill.Add(time.Duration(tokensToAdd) * tb.refillRate)
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mutex.Lock()
	now := time.Now()
	if now.Sub(rl.lastSweep) >= sweepInterval {
		rl.sweep(now)
	}

	visitor, exists := rl.visitors[key]
	if !exists {
		visitor = &Visitor{
			limiter: NewTokenBucket(rl.burst, rl.rate/time.Duration(rl.burst)),
		}
		rl.visitors[key] = visitor
	}
	visitor.lastSeen = now
	rl.mutex.Unlock()

	return visitor.limiter.Allow()
}

// sweep drops idle visitors. Caller holds rl.mutex.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, visitor := range rl.visitors {
		if now.Sub(visitor.lastSeen) > visitorIdleTimeout {
			delete(rl.visitors, key)
		}
	}
	rl.lastSweep = now
}

// RateLimitMiddleware applies the limiter per authenticated account, or per
// client IP before authentication.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(getClientID(c)) {
			c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.burst))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(limiter.rate).Unix(), 10))

			utils.TooManyRequestsResponse(c, "Rate limit exceeded")
			c.Abort()
			return
		}

		c.Next()
	}
}

func getClientID(c *gin.Context) string {
	if userID, exists := utils.GetUserIDFromContext(c); exists {
		return fmt.Sprintf("user:%s", userID.Hex())
	}
	return fmt.Sprintf("ip:%s", c.ClientIP())
}
