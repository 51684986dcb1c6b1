package store

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
)

type User struct {
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
	CreatedAt    string `json:"created_at"`
	LastLogin    string `json:"last_login,omitempty"`
}

type UserStore struct {
	mu    sync.RWMutex
	path  string
	users map[string]*User
}

// OpenUserStore loads users.json, creating it with a default admin
// account (password "admin") when it doesn't exist yet.
func OpenUserStore(path string) (*UserStore, error) {
	s := &UserStore{path: path, users: make(map[string]*User)}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &s.users); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if len(s.users) == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		s.users["admin"] = &User{
			PasswordHash: string(hash),
			Role:         "admin",
			CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.save(); err != nil {
			return nil, err
		}
		log.Println("[Users] Created default admin account, change its password")
	}

	return s, nil
}

func (s *UserStore) save() error {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *UserStore) Get(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return User{}, false
	}
	return *u, true
}

func (s *UserStore) List() map[string]User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]User, len(s.users))
	for name, u := range s.users {
		out[name] = *u
	}
	return out
}

func (s *UserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *UserStore) Create(username, password, role string) error {
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}
	if role != "admin" && role != "user" {
		return fmt.Errorf("invalid role %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return fmt.Errorf("user %q already exists", username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.users[username] = &User{
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	return s.save()
}

// Delete refuses to remove the last remaining admin.
func (s *UserStore) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return fmt.Errorf("user %q not found", username)
	}
	if u.Role == "admin" && s.adminCount() == 1 {
		return fmt.Errorf("cannot delete the last admin")
	}
	delete(s.users, username)
	return s.save()
}

func (s *UserStore) adminCount() int {
	n := 0
	for _, u := range s.users {
		if u.Role == "admin" {
			n++
		}
	}
	return n
}

func (s *UserStore) SetPassword(username, password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return fmt.Errorf("user %q not found", username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return s.save()
}

// VerifyPassword checks bcrypt hashes and legacy "salt$hex" SHA-256
// hashes. Legacy hashes are upgraded to bcrypt on a successful match.
func (s *UserStore) VerifyPassword(username, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return false
	}

	if strings.HasPrefix(u.PasswordHash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
	}

	salt, want, ok := strings.Cut(u.PasswordHash, "$")
	if !ok {
		return false
	}
	sum := sha256.Sum256([]byte(salt + password))
	if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(want)) != 1 {
		return false
	}

	if hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost); err == nil {
		u.PasswordHash = string(hash)
		if err := s.save(); err != nil {
			log.Printf("[Users] Failed to persist hash upgrade for %s: %v", username, err)
		}
	}
	return true
}

func (s *UserStore) TouchLogin(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return
	}
	u.LastLogin = time.Now().UTC().Format(time.RFC3339)
	if err := s.save(); err != nil {
		log.Printf("[Users] Failed to persist last_login for %s: %v", username, err)
	}
}

var Users *UserStore

func InitUsers() error {
	s, err := OpenUserStore(config.UsersFile())
	if err != nil {
		return err
	}
	Users = s
	return nil
}
