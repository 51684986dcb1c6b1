package routes

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sanjayjain8513/vdo-image-app/internal/auth"
	"github.com/sanjayjain8513/vdo-image-app/internal/store"
	"github.com/sanjayjain8513/vdo-image-app/internal/util"
)

func AuthRoutes(r chi.Router) {
	r.Post("/api/login", handleLogin)
	r.Post("/api/logout", handleLogout)
	r.Get("/api/check-auth", handleCheckAuth)
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, 400, "Invalid JSON body")
		return
	}
	if body.Username == "" || body.Password == "" {
		respondError(w, 400, "Username and password are required")
		return
	}

	if !store.Users.VerifyPassword(body.Username, body.Password) {
		log.Printf("[Auth] Failed login for %q from %s", body.Username, util.GetClientIP(r))
		respondError(w, 401, "Invalid username or password")
		return
	}

	user, _ := store.Users.Get(body.Username)
	store.Users.TouchLogin(body.Username)
	auth.Start(w, body.Username, user.Role)

	log.Printf("[Auth] %s logged in", body.Username)
	respondJSON(w, 200, map[string]interface{}{
		"success":  true,
		"username": body.Username,
		"role":     user.Role,
	})
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.End(w, r)
	respondJSON(w, 200, map[string]bool{"success": true})
}

func handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	_, s := auth.Current(r)
	if s == nil {
		respondJSON(w, 200, map[string]interface{}{"authenticated": false})
		return
	}
	respondJSON(w, 200, map[string]interface{}{
		"authenticated": true,
		"username":      s.Username,
		"role":          s.Role,
	})
}
