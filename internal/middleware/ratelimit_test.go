package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	defer rl.Stop()

	limiter := rl.GetLimiter("client-a")
	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Fatalf("request %d should be allowed within burst of 3", i)
		}
	}
	if limiter.Allow() {
		t.Error("request beyond burst should be throttled")
	}
}

func TestRateLimiterPerIdentifier(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()

	a := rl.GetLimiter("client-a")
	b := rl.GetLimiter("client-b")

	if !a.Allow() {
		t.Fatal("client-a first request should be allowed")
	}
	if !b.Allow() {
		t.Fatal("client-b should have its own independent bucket")
	}
	if a.Allow() {
		t.Error("client-a second immediate request should be throttled")
	}
}

func TestRateLimiterCount(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()

	rl.GetLimiter("a")
	rl.GetLimiter("b")
	rl.GetLimiter("a") // repeat, shouldn't add a new entry

	if got := rl.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestRateLimitMiddlewareRejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0, 1) // zero refill rate, burst of 1
	defer rl.Stop()

	r := gin.New()
	r.Use(RateLimitMiddleware(rl))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, req)
	if w1.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w1.Code)
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	if w2.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", w2.Code)
	}
}

func TestPerUserRateLimiterStop(t *testing.T) {
	rl := NewPerUserRateLimiter(10, 5, 1, 10)
	rl.Stop() // must not panic
}
