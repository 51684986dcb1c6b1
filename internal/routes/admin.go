package routes

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sanjayjain8513/vdo-image-app/internal/auth"
	"github.com/sanjayjain8513/vdo-image-app/internal/store"
)

func AdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.AdminRequired)
		r.Get("/admin/users", handleListUsers)
		r.Post("/admin/users", handleCreateUser)
		r.Delete("/admin/users/{name}", handleDeleteUser)
		r.Post("/admin/users/{name}/password", handleSetPassword)
		r.Get("/admin/stats", handleAdminStats)
	})
}

func handleListUsers(w http.ResponseWriter, r *http.Request) {
	users := store.Users.List()
	out := make([]map[string]string, 0, len(users))
	for name, u := range users {
		out = append(out, map[string]string{
			"username":   name,
			"role":       u.Role,
			"created_at": u.CreatedAt,
			"last_login": u.LastLogin,
		})
	}
	respondJSON(w, 200, map[string]interface{}{"users": out})
}

func handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, 400, "Invalid JSON body")
		return
	}
	if body.Role == "" {
		body.Role = "user"
	}
	if err := store.Users.Create(body.Username, body.Password, body.Role); err != nil {
		respondError(w, 400, err.Error())
		return
	}
	log.Printf("[Admin] Created user %s (%s)", body.Username, body.Role)
	respondJSON(w, 201, map[string]bool{"success": true})
}

func handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if s := auth.FromContext(r.Context()); s != nil && s.Username == name {
		respondError(w, 400, "Cannot delete your own account")
		return
	}
	if err := store.Users.Delete(name); err != nil {
		respondError(w, 400, err.Error())
		return
	}
	log.Printf("[Admin] Deleted user %s", name)
	respondJSON(w, 200, map[string]bool{"success": true})
}

func handleSetPassword(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, 400, "Invalid JSON body")
		return
	}
	if err := store.Users.SetPassword(name, body.Password); err != nil {
		respondError(w, 400, err.Error())
		return
	}
	log.Printf("[Admin] Password changed for %s", name)
	respondJSON(w, 200, map[string]bool{"success": true})
}

func handleAdminStats(w http.ResponseWriter, r *http.Request) {
	visitors, err := store.Visitors.DailyStats()
	if err != nil {
		respondError(w, 500, "Failed to read visitor log")
		return
	}
	totalJobs, activeJobs := store.Jobs.Count()
	respondJSON(w, 200, map[string]interface{}{
		"visitors":        visitors,
		"users":           store.Users.Count(),
		"active_sessions": auth.ActiveCount(),
		"video_jobs": map[string]int{
			"total":  totalJobs,
			"active": activeJobs,
		},
	})
}
