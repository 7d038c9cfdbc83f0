package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"secondbrain/internal/platform/config"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{APIReadPerMinute: 3})

	for i := 0; i < 3; i++ {
		if !rl.Allow("usr_1:api_read", 3) {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}
	if rl.Allow("usr_1:api_read", 3) {
		t.Error("Fourth request should be rejected")
	}

	// Buckets are independent per key.
	if !rl.Allow("usr_2:api_read", 3) {
		t.Error("A different key should have its own bucket")
	}
}

func TestRateLimiter_LimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{APIWritePerMinute: 1})

	handler := rl.Limit("api_write")(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("First request expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Second request expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}
