package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
)

func withSessionTimeout(t *testing.T, d time.Duration) {
	old := config.SessionTimeout
	config.SessionTimeout = d
	t.Cleanup(func() { config.SessionTimeout = old })
}

func requestWithCookie(id string) *http.Request {
	r := httptest.NewRequest("GET", "/api/check-auth", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: id})
	return r
}

func TestStartAndCurrent(t *testing.T) {
	withSessionTimeout(t, time.Hour)

	w := httptest.NewRecorder()
	id := Start(w, "alice", "user")
	if id == "" {
		t.Fatal("empty session id")
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || cookies[0].Value != id {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("cookie should be HttpOnly")
	}

	gotID, s := Current(requestWithCookie(id))
	if gotID != id || s == nil {
		t.Fatal("session not resolved")
	}
	if s.Username != "alice" || s.Role != "user" {
		t.Errorf("session = %q/%q, want alice/user", s.Username, s.Role)
	}
}

func TestCurrentMisses(t *testing.T) {
	withSessionTimeout(t, time.Hour)

	if id, s := Current(httptest.NewRequest("GET", "/", nil)); id != "" || s != nil {
		t.Error("no cookie should resolve to nothing")
	}
	if id, s := Current(requestWithCookie("not-a-session")); id != "" || s != nil {
		t.Error("unknown id should resolve to nothing")
	}
}

func TestExpiry(t *testing.T) {
	withSessionTimeout(t, time.Hour)

	id := Start(httptest.NewRecorder(), "bob", "user")

	mu.Lock()
	sessions[id].LastSeen = time.Now().Add(-2 * time.Hour)
	mu.Unlock()

	if gotID, s := Current(requestWithCookie(id)); gotID != "" || s != nil {
		t.Error("expired session should be dropped")
	}
	// dropped for good, not just hidden
	mu.Lock()
	_, still := sessions[id]
	mu.Unlock()
	if still {
		t.Error("expired session still in store")
	}
}

func TestEnd(t *testing.T) {
	withSessionTimeout(t, time.Hour)

	id := Start(httptest.NewRecorder(), "carol", "admin")

	w := httptest.NewRecorder()
	End(w, requestWithCookie(id))

	if _, s := Current(requestWithCookie(id)); s != nil {
		t.Error("ended session still resolves")
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Errorf("logout should clear the cookie, got %+v", cookies)
	}
}

func TestActiveCount(t *testing.T) {
	withSessionTimeout(t, time.Hour)

	mu.Lock()
	sessions = make(map[string]*Session)
	mu.Unlock()

	Start(httptest.NewRecorder(), "a", "user")
	Start(httptest.NewRecorder(), "b", "user")
	if n := ActiveCount(); n != 2 {
		t.Errorf("ActiveCount = %d, want 2", n)
	}
}
