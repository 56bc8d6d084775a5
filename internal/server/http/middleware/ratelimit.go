package middleware

import (
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const minLimiterIdle = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter keeps one token bucket per authenticated user. Buckets idle
// long enough to have refilled completely are dropped.
type UserRateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	limiters  map[uuid.UUID]*userLimiter
	lastSweep time.Time
}

// NewUserRateLimiter allows perSecond requests per user with the given burst.
func NewUserRateLimiter(perSecond float64, burst int) *UserRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &UserRateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idle:     limiterIdle(rate.Limit(perSecond), burst),
		now:      time.Now,
		limiters: make(map[uuid.UUID]*userLimiter),
	}
}

// limiterIdle is the refill time of a full bucket, so evicting a bucket idle
// that long hands out no extra tokens.
func limiterIdle(limit rate.Limit, burst int) time.Duration {
	if limit <= 0 || limit == rate.Inf {
		return minLimiterIdle
	}
	refill := float64(burst) / float64(limit) * float64(time.Second)
	if refill >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return max(time.Duration(refill), minLimiterIdle)
}

// Allow consumes a token for userID.
func (l *UserRateLimiter) Allow(userID uuid.UUID) bool {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	entry, ok := l.limiters[userID]
	if !ok {
		entry = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// Len reports how many user buckets are tracked.
func (l *UserRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *UserRateLimiter) sweep(now time.Time) {
	for id, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.idle {
			delete(l.limiters, id)
		}
	}
	l.lastSweep = now
}

// Middleware responds 429 once the caller's bucket is empty. It must run
// after AuthRequired.
func (l *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := Principal(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if !l.Allow(principal.UserID) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
