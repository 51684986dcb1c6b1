package auth

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
)

const CookieName = "session"

type Session struct {
	Username string
	Role     string
	Created  time.Time
	LastSeen time.Time
}

var (
	mu       sync.Mutex
	sessions = make(map[string]*Session)
)

func Start(w http.ResponseWriter, username, role string) string {
	id := uuid.New().String()
	now := time.Now()

	mu.Lock()
	sessions[id] = &Session{Username: username, Role: role, Created: now, LastSeen: now}
	mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   config.EnvMode == "production",
	})
	return id
}

// Current resolves the request's session, bumping LastSeen. Expired
// sessions are dropped on access.
func Current(r *http.Request) (string, *Session) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", nil
	}

	mu.Lock()
	defer mu.Unlock()
	s, ok := sessions[c.Value]
	if !ok {
		return "", nil
	}
	if time.Since(s.LastSeen) > config.SessionTimeout {
		delete(sessions, c.Value)
		return "", nil
	}
	s.LastSeen = time.Now()
	return c.Value, s
}

func End(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		mu.Lock()
		delete(sessions, c.Value)
		mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func ActiveCount() int {
	mu.Lock()
	defer mu.Unlock()
	return len(sessions)
}

func StartSweeper() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		for range ticker.C {
			mu.Lock()
			now := time.Now()
			swept := 0
			for id, s := range sessions {
				if now.Sub(s.LastSeen) > config.SessionTimeout {
					delete(sessions, id)
					swept++
				}
			}
			mu.Unlock()
			if swept > 0 {
				log.Printf("[Session] Swept %d expired sessions", swept)
			}
		}
	}()
}
