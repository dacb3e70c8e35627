package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"lemonade/internal/api"
	"lemonade/internal/models"
	"lemonade/internal/storage"
)

// defaultPassword is the placeholder the client sends to the auth
// service; accounts are identified by email or phone, not a chosen
// password.
const defaultPassword = "default-password"

// ErrSignupRequired signals a failed login for which the caller should
// prompt the user to sign up instead.
var ErrSignupRequired = fmt.Errorf("login failed, please try signing up first")

// SessionService holds the current authenticated user, if any, and
// mirrors the profile to the durable store.
type SessionService struct {
	store  storage.Store
	client api.AuthAPI
	users  api.UserAPI
	user   *models.User
}

// NewSessionService creates a SessionService and restores any persisted
// user record. Absent or corrupt data leaves the session
// unauthenticated.
func NewSessionService(store storage.Store, client api.AuthAPI, users api.UserAPI) *SessionService {
	s := &SessionService{store: store, client: client, users: users}
	if raw, ok := store.Get(storage.KeyUser); ok {
		var user models.User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			log.Printf("Discarding corrupt stored user: %v", err)
		} else if user.Name != "" {
			s.user = &user
		}
	}
	return s
}

// Current returns the authenticated user, or nil when signed out.
func (s *SessionService) Current() *models.User {
	return s.user
}

// Login authenticates by a single identifier: an email when it contains
// '@', a phone number otherwise. On failure the current user is left
// unchanged and ErrSignupRequired is returned so the caller can steer
// the user to signup.
func (s *SessionService) Login(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("please enter your email or phone number")
	}

	var email, phone string
	if strings.Contains(identifier, "@") {
		email = identifier
	} else {
		phone = identifier
	}

	user, err := s.client.Login(ctx, email, phone, defaultPassword)
	if err != nil {
		log.Printf("Login failed for %q: %v", identifier, err)
		return nil, ErrSignupRequired
	}

	s.user = user
	s.persist()
	return user, nil
}

// Signup registers a new account. Name is required and at least one of
// email/phone must be given.
func (s *SessionService) Signup(ctx context.Context, name, email, phone string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)

	if name == "" {
		return nil, fmt.Errorf("please enter your name")
	}
	if email == "" && phone == "" {
		return nil, fmt.Errorf("please enter either email or phone number")
	}

	user, err := s.client.Signup(ctx, name, email, phone, defaultPassword)
	if err != nil {
		return nil, fmt.Errorf("signup failed: %w", err)
	}

	s.user = user
	s.persist()
	return user, nil
}

// Logout clears the session from memory and the durable store. It is
// idempotent.
func (s *SessionService) Logout() {
	s.user = nil
	s.store.Remove(storage.KeyUser)
}

// UpdateProfile edits the signed-in user's name, email and phone and
// persists the result locally.
func (s *SessionService) UpdateProfile(name, email, phone string) error {
	if s.user == nil {
		return fmt.Errorf("not signed in")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	s.user.Name = strings.TrimSpace(name)
	s.user.Email = strings.TrimSpace(email)
	s.user.Phone = strings.TrimSpace(phone)
	s.persist()
	return nil
}

// SaveAddress stores a delivery address, remote first with local
// persistence as an acceptable lesser success. The returned flag
// reports whether the remote save went through.
func (s *SessionService) SaveAddress(ctx context.Context, address models.Address) (bool, error) {
	if s.user == nil {
		return false, fmt.Errorf("not signed in")
	}
	if strings.TrimSpace(address.Street) == "" || strings.TrimSpace(address.City) == "" {
		return false, fmt.Errorf("delivery address and city are required")
	}
	address.Derive()

	remote := true
	if err := s.users.SaveAddress(ctx, s.user.ID, address); err != nil {
		log.Printf("Remote address save failed, keeping local copy: %v", err)
		remote = false
	}

	s.user.Address = &address
	s.persist()
	return remote, nil
}

// RecordOrder updates the user's running order stats after a confirmed
// order.
func (s *SessionService) RecordOrder(total float64) {
	if s.user == nil {
		return
	}
	now := time.Now()
	s.user.Orders++
	s.user.TotalSpent += total
	s.user.LastOrder = &now
	s.persist()
}

func (s *SessionService) persist() {
	if s.user == nil {
		s.store.Remove(storage.KeyUser)
		return
	}
	payload, err := json.Marshal(s.user)
	if err != nil {
		log.Printf("Failed to marshal user for persistence: %v", err)
		return
	}
	s.store.Set(storage.KeyUser, string(payload))
}
