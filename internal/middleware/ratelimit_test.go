package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func resetRateLimits() {
	rateLimitMu.Lock()
	rateLimitStore = make(map[string][]time.Time)
	rateLimitMu.Unlock()
}

func TestCheckRateLimit(t *testing.T) {
	resetRateLimits()

	for i := 0; i < 5; i++ {
		allowed, remaining, _ := checkRateLimit("default|10.0.0.1", 5)
		if !allowed {
			t.Fatalf("request %d blocked early", i+1)
		}
		if remaining != 5-i-1 {
			t.Errorf("remaining = %d, want %d", remaining, 5-i-1)
		}
	}

	allowed, _, resetIn := checkRateLimit("default|10.0.0.1", 5)
	if allowed {
		t.Error("6th request should be blocked")
	}
	if resetIn <= 0 {
		t.Errorf("resetIn = %d, want positive", resetIn)
	}

	// another key is unaffected
	if allowed, _, _ := checkRateLimit("default|10.0.0.2", 5); !allowed {
		t.Error("other IP should not be blocked")
	}
	if allowed, _, _ := checkRateLimit("login|10.0.0.1", 5); !allowed {
		t.Error("other route class should not be blocked")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	resetRateLimits()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})
	h := RateLimit(next)

	var last *httptest.ResponseRecorder
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest("POST", "/api/login", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.9")
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
	}
	if last.Code != 429 {
		t.Errorf("11th login = %d, want 429", last.Code)
	}
	if last.Header().Get("X-RateLimit-Limit") != "10" {
		t.Errorf("login limit header = %q, want 10", last.Header().Get("X-RateLimit-Limit"))
	}

	// default class for the same IP is still open
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Errorf("health after login block = %d, want 200", rec.Code)
	}
}

func TestRateLimitStoreCap(t *testing.T) {
	resetRateLimits()

	rateLimitMu.Lock()
	for i := 0; i < maxRateLimitEntries; i++ {
		rateLimitStore["default|10.1."+strconv.Itoa(i/256)+"."+strconv.Itoa(i%256)+"|"+strconv.Itoa(i)] = []time.Time{time.Now()}
	}
	rateLimitMu.Unlock()

	if allowed, _, _ := checkRateLimit("brand|new-key", 5); allowed {
		t.Error("new key should be denied once the store is full")
	}
	// a key already in the store is unaffected by the cap
	if allowed, _, _ := checkRateLimit("default|10.1.0.0|0", 5); !allowed {
		t.Error("tracked key denied by the store cap")
	}

	resetRateLimits()
}

func TestRouteClass(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/api/login", "login"},
		{"/api/compress", "compress"},
		{"/api/compress-url", "compress"},
		{"/api/video/upload", "video-upload"},
		{"/api/merge", "compress"},
		{"/api/batch", "compress"},
		{"/health", "default"},
		{"/api/video/status/x", "default"},
	}
	for _, c := range cases {
		r := httptest.NewRequest("GET", c.path, nil)
		if got := routeClass(r); got != c.want {
			t.Errorf("routeClass(%s) = %q, want %q", c.path, got, c.want)
		}
	}
}
