package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/sanjayjain8513/vdo-image-app/internal/store"
	"github.com/sanjayjain8513/vdo-image-app/internal/util"
)

// VisitorLog appends one line per request to visitors.log. Health
// checks are skipped so uptime probes don't inflate the stats.
func VisitorLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" && !strings.HasPrefix(r.URL.Path, "/api/video/status/") {
			if err := store.Visitors.Record(util.GetClientIP(r)); err != nil {
				log.Printf("[Visitors] append failed: %v", err)
			}
		}
		next.ServeHTTP(w, r)
	})
}
