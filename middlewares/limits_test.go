package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RPS=1, Burst=1: the second immediate request gets 429 with Retry-After.
func TestRateLimiter_429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter("test", LimiterConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	t.Cleanup(rl.Close)

	s := gin.New()
	s.Use(rl.Middleware(func(c *gin.Context) string { return "k" }))
	s.GET("/x", func(c *gin.Context) { c.String(200, "ok") })

	w1 := httptest.NewRecorder()
	s.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w1.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w1.Code)
	}

	w2 := httptest.NewRecorder()
	s.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", w2.Code)
	}
	if w2.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter("test", LimiterConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	t.Cleanup(rl.Close)

	s := gin.New()
	s.Use(rl.Middleware(func(c *gin.Context) string { return c.Query("k") }))
	s.GET("/x", func(c *gin.Context) { c.String(200, "ok") })

	for _, k := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?k="+k, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("key %s: want 200, got %d", k, w.Code)
		}
	}
}

func TestRateLimiter_SweepDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter("test", LimiterConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	t.Cleanup(rl.Close)

	rl.bucketFor("old")
	rl.sweep(time.Now().Add(2 * time.Minute))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.buckets) != 0 {
		t.Fatalf("idle bucket not swept: %d left", len(rl.buckets))
	}
}

func TestRateLimiter_ScopesDoNotShareBuckets(t *testing.T) {
	a := NewRateLimiter("ip", LimiterConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	b := NewRateLimiter("login", LimiterConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	t.Cleanup(a.Close)
	t.Cleanup(b.Close)

	if !a.bucketFor("10.0.0.1").Allow() || !b.bucketFor("10.0.0.1").Allow() {
		t.Fatalf("first request in each scope should pass")
	}
	b.mu.Lock()
	_, ok := b.buckets["login:10.0.0.1"]
	b.mu.Unlock()
	if !ok {
		t.Fatalf("bucket key not scoped")
	}
}

func TestRateLimiter_RetryAfterFollowsRate(t *testing.T) {
	slow := NewRateLimiter("login", LimiterConfig{RPS: 0.2, Burst: 1, IdleTTL: time.Minute})
	t.Cleanup(slow.Close)
	if got := slow.retryAfter(); got != "5" {
		t.Fatalf("want 5, got %s", got)
	}
}

// Close stops the sweeper goroutine and can be called again.
func TestRateLimiter_CloseStopsSweeper(t *testing.T) {
	rl := NewRateLimiter("test", LimiterConfig{RPS: 1, Burst: 1, IdleTTL: time.Millisecond})
	rl.Close()
	select {
	case <-rl.done:
	default:
		t.Fatalf("sweeper still running after Close")
	}
	rl.Close()
}

// Limit=2: two requests pass, the third gets 429.
func TestQuota_Exceed429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s := gin.New()
	s.Use(Quota(rdb, QuotaRule{
		Limit:  2,
		Window: time.Hour,
		KeyFn:  func(c *gin.Context) string { return "quota:comments:u7:day" },
	}))
	s.POST("/x", func(c *gin.Context) { c.String(200, "ok") })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
		if w.Code != 200 {
			t.Fatalf("unexpected %d", w.Code)
		}
	}

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d; body=%s", w.Code, w.Body.String())
	}

	// window over, counter gone
	mr.FastForward(2 * time.Hour)
	w = httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	if w.Code != 200 {
		t.Fatalf("want 200 after window, got %d", w.Code)
	}
}

func TestQuota_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// nothing listens here
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})

	s := gin.New()
	s.Use(Quota(rdb, QuotaRule{Limit: 0, Window: time.Hour, KeyFn: func(*gin.Context) string { return "q" }}))
	s.POST("/x", func(c *gin.Context) { c.String(200, "ok") })

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	if w.Code != 200 {
		t.Fatalf("want 200 with redis down, got %d", w.Code)
	}
}

// failed requests do not count against the quota
func TestQuota_RefundsRejectedRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s := gin.New()
	s.Use(Quota(rdb, QuotaRule{
		Limit:  1,
		Window: time.Hour,
		KeyFn:  func(c *gin.Context) string { return "quota:comments:u8:day" },
	}))
	s.POST("/x", func(c *gin.Context) {
		if c.Query("bad") != "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "nope"})
			return
		}
		c.String(http.StatusCreated, "ok")
	})

	post := func(path string) int {
		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		return w.Code
	}

	for i := 0; i < 3; i++ {
		if code := post("/x?bad=1"); code != http.StatusInternalServerError {
			t.Fatalf("want 500, got %d", code)
		}
	}
	if got, _ := mr.Get("quota:comments:u8:day"); got != "0" {
		t.Fatalf("counter should be back to 0, got %q", got)
	}
	if code := post("/x"); code != http.StatusCreated {
		t.Fatalf("want 201, got %d", code)
	}
	if code := post("/x"); code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", code)
	}
}
