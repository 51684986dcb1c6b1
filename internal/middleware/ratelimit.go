package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
	"github.com/sanjayjain8513/vdo-image-app/internal/util"
)

var (
	rateLimitStore = make(map[string][]time.Time)
	rateLimitMu    sync.Mutex
)

// RateLimit applies a sliding-window per-IP limit. The window size is
// shared; the max varies per route class (login, compress, uploads).
func RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := routeClass(r)
		max := config.RateLimits[class]
		if max == 0 {
			max = config.RateLimits["default"]
		}

		key := class + "|" + util.GetClientIP(r)
		allowed, remaining, resetIn := checkRateLimit(key, max)

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetIn))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(429)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   "Too many requests. Please slow down.",
				"resetIn": resetIn,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func routeClass(r *http.Request) string {
	p := r.URL.Path
	switch {
	case p == "/api/login":
		return "login"
	case strings.HasPrefix(p, "/api/compress"):
		return "compress"
	case p == "/api/merge" || p == "/api/watermark" || p == "/api/batch":
		return "compress"
	case p == "/api/video/upload":
		return "video-upload"
	}
	return "default"
}

const maxRateLimitEntries = 100000

func checkRateLimit(key string, max int) (allowed bool, remaining int, resetIn int) {
	rateLimitMu.Lock()
	defer rateLimitMu.Unlock()

	now := time.Now()
	windowStart := now.Add(-config.RateLimitWindow)

	requests, tracked := rateLimitStore[key]
	filtered := requests[:0]
	for _, t := range requests {
		if t.After(windowStart) {
			filtered = append(filtered, t)
		}
	}

	if len(filtered) >= max {
		resetSec := int(filtered[0].Add(config.RateLimitWindow).Sub(now).Seconds()) + 1
		rateLimitStore[key] = filtered
		return false, 0, resetSec
	}

	// Cap only applies to keys not yet tracked, known clients keep working.
	if !tracked && len(rateLimitStore) >= maxRateLimitEntries {
		return false, 0, 60
	}

	filtered = append(filtered, now)
	rateLimitStore[key] = filtered
	return true, max - len(filtered), 0
}

func StartRateLimitCleanup() {
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		for range ticker.C {
			rateLimitMu.Lock()
			now := time.Now()
			windowStart := now.Add(-config.RateLimitWindow)
			for key, requests := range rateLimitStore {
				filtered := requests[:0]
				for _, t := range requests {
					if t.After(windowStart) {
						filtered = append(filtered, t)
					}
				}
				if len(filtered) == 0 {
					delete(rateLimitStore, key)
				} else {
					rateLimitStore[key] = filtered
				}
			}
			rateLimitMu.Unlock()
		}
	}()
}
