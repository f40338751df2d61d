package middlewares

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type LimiterConfig struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration // buckets unused for this long are dropped
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one in-memory token bucket per caller. Buckets are keyed
// "<scope>:<caller>" so the global and login limiters never share state even
// when they are keyed by the same client address.
type RateLimiter struct {
	scope   string
	conf    LimiterConfig
	mu      sync.Mutex
	buckets map[string]*bucket

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRateLimiter starts a sweeper goroutine that lives until Close.
func NewRateLimiter(scope string, conf LimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		scope:   scope,
		conf:    conf,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *RateLimiter) sweepLoop() {
	defer close(rl.done)
	interval := rl.conf.IdleTTL / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

// Close stops the sweeper and waits for it to exit. Safe to call twice.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.stop) })
	<-rl.done
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for k, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.conf.IdleTTL {
			delete(rl.buckets, k)
		}
	}
}

func (rl *RateLimiter) bucketFor(caller string) *rate.Limiter {
	key := rl.scope + ":" + caller
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rate.Limit(rl.conf.RPS), rl.conf.Burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// retryAfter is how many whole seconds one token takes to refill.
func (rl *RateLimiter) retryAfter() string {
	secs := 1
	if rl.conf.RPS > 0 && rl.conf.RPS < 1 {
		secs = int(math.Ceil(1 / rl.conf.RPS))
	}
	return strconv.Itoa(secs)
}

// KeySelector names the caller a request is charged to.
type KeySelector func(c *gin.Context) string

// ByClientIP charges requests to the client address.
func ByClientIP(c *gin.Context) string { return c.ClientIP() }

func (rl *RateLimiter) Middleware(caller KeySelector) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.bucketFor(caller(c)).Allow() {
			c.Header("Retry-After", rl.retryAfter())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
