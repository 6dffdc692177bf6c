package middleware

import (
	"log"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPRateLimiter manages per-IP rate limiting
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  r,
		burst: burst,
	}
}

// PerMinute creates a limiter allowing n requests per minute per IP, with a burst of n
func PerMinute(n int) *IPRateLimiter {
	return NewIPRateLimiter(rate.Every(time.Minute/time.Duration(n)), n)
}

// GetLimiter returns the rate limiter for a given IP
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	if limiter, ok := l.limiters.Load(ip); ok {
		return limiter.(*rate.Limiter)
	}
	limiter, _ := l.limiters.LoadOrStore(ip, rate.NewLimiter(l.rate, l.burst))
	return limiter.(*rate.Limiter)
}

// DailyQuota manages global daily request quota
type DailyQuota struct {
	count   int64
	limit   int64
	loc     *time.Location
	resetAt time.Time
	mu      sync.Mutex
}

// NewDailyQuota creates a new daily quota manager that resets at midnight in loc.
// A nil loc means UTC.
func NewDailyQuota(limit int64, loc *time.Location) *DailyQuota {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyQuota{
		limit:   limit,
		loc:     loc,
		resetAt: nextMidnight(time.Now(), loc),
	}
}

// Allow checks if a request is allowed and increments the counter
func (q *DailyQuota) Allow() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	if now.After(q.resetAt) {
		log.Printf("[QUOTA] Daily quota reset. Previous count: %d", q.count)
		q.count = 0
		q.resetAt = nextMidnight(now, q.loc)
	}

	if q.count >= q.limit {
		return false
	}
	q.count++
	return true
}

// Remaining returns the remaining quota
func (q *DailyQuota) Remaining() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.limit - q.count
}

// untilReset returns the time left before the counter resets
func (q *DailyQuota) untilReset() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return time.Until(q.resetAt)
}

func nextMidnight(now time.Time, loc *time.Location) time.Time {
	now = now.In(loc)
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, loc)
}

// RateLimitMiddleware creates a Gin middleware for rate limiting.
// The per-IP limiter is checked first so throttled callers never draw on the
// daily quota (when non-nil). Both reject with 429 and a Retry-After header.
func RateLimitMiddleware(ipLimiter *IPRateLimiter, quota *DailyQuota) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		reservation := ipLimiter.GetLimiter(ip).Reserve()
		if !reservation.OK() {
			reject(c, time.Minute, "rate limit exceeded")
			return
		}
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			log.Printf("[RATELIMIT] Rejected request from %s, retry in %v", ip, delay)
			reject(c, delay, "rate limit exceeded")
			return
		}

		if quota != nil && !quota.Allow() {
			log.Printf("[QUOTA] Daily quota exhausted")
			reject(c, quota.untilReset(), "daily request quota exceeded")
			return
		}

		c.Next()
	}
}

func reject(c *gin.Context, retryAfter time.Duration, detail string) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"detail": detail,
		"code":   "RATE_LIMITED",
	})
}
