package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewLimiter(2, 200*time.Millisecond)
	defer limiter.Close()
	ip := "203.0.113.10"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first request to be allowed")
	}
	if !limiter.Allow(ip) {
		t.Fatalf("expected second request to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected third request to be blocked")
	}
}

func TestLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewLimiter(1, 150*time.Millisecond)
	defer limiter.Close()
	ip := "203.0.113.20"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first request to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected second request to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Allow(ip) {
		t.Fatalf("expected request after window to be allowed")
	}
}

func TestLimiterIsPerIP(t *testing.T) {
	limiter := NewLimiter(1, time.Second)
	defer limiter.Close()

	if !limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.Allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestLimiterHandler(t *testing.T) {
	limiter := NewLimiter(1, time.Minute)
	defer limiter.Close()

	handler := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/og-metadata", nil)
		req.RemoteAddr = "198.51.100.7:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusNoContent {
		t.Errorf("First status mismatch: got %d, want %d", codes[0], http.StatusNoContent)
	}
	if codes[1] != http.StatusTooManyRequests {
		t.Errorf("Second status mismatch: got %d, want %d", codes[1], http.StatusTooManyRequests)
	}
}

func TestLimiterHandler_Disabled(t *testing.T) {
	limiter := NewLimiter(0, time.Minute)
	defer limiter.Close()

	handler := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("Status mismatch: got %d, want %d", rec.Code, http.StatusNoContent)
		}
	}
}

func TestMetrics_ObservesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/api/templates/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.CollectAndCount(promResponseDurationMilliseconds)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/templates/full", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("Status mismatch: got %d, want %d", rec.Code, http.StatusTeapot)
	}
	if after := testutil.CollectAndCount(promResponseDurationMilliseconds); after != before+1 {
		t.Errorf("Series count mismatch: got %d, want %d", after, before+1)
	}
}
