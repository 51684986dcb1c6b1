package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
)

type ctxKey int

const sessionKey ctxKey = 0

// FromContext returns the session attached by LoginRequired.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

func LoginRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, s := Current(r)
		if s == nil {
			deny(w, 401, "Login required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, s)))
	})
}

// AdminRequired accepts either an admin session or the ADMIN_TOKEN
// header, so monitoring can hit admin endpoints without a cookie jar.
func AdminRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if config.AdminToken != "" && r.Header.Get("X-Admin-Token") == config.AdminToken {
			next.ServeHTTP(w, r)
			return
		}
		_, s := Current(r)
		if s == nil {
			deny(w, 401, "Login required")
			return
		}
		if s.Role != "admin" {
			deny(w, 403, "Admin access required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, s)))
	})
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
