// Package memory provides in-process store implementations for development
// and testing, selected with STORE_DRIVER=memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aurora-ai/aurora-api/internal/core/domain"
)

// UserStore is an in-memory CredentialStore guarded by a RWMutex. Values are
// cloned on the way in and out so callers can never mutate shared state.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*domain.User // keyed by user id
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*domain.User)}
}

// SeedDevUser inserts the fixed development account (test@aurora.ai /
// "test123") when it is not already present. Used only with the memory
// driver in development mode.
func (s *UserStore) SeedDevUser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == "test@aurora.ai" {
			return
		}
	}
	now := time.Now().UTC()
	s.users["dev-user-1"] = &domain.User{
		ID:           "dev-user-1",
		Email:        "test@aurora.ai",
		Username:     "testuser",
		PasswordHash: "$2a$12$DVOrG9J7WAtnqhOrbhJWM.cUvPbZeHEjLq0K5Plv9.GzZoH8pSEHy",
		FirstName:    "Test",
		LastName:     "User",
		Role:         domain.RoleUser,
		IsActive:     true,
		IsVerified:   true,
		Preferences: map[string]any{
			"theme":         "dark",
			"language":      "zh-CN",
			"notifications": true,
			"privacy":       "standard",
		},
		CreatedAt: now,
	}
}

func (s *UserStore) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailExists
		}
		if u.Username == user.Username {
			return nil, domain.ErrUsernameExists
		}
	}
	s.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (s *UserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.findBy(func(u *domain.User) bool { return u.Email == email })
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.findBy(func(u *domain.User) bool { return u.Username == username })
}

func (s *UserStore) findBy(match func(*domain.User) bool) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *UserStore) RecordLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	last := at
	u.LastLogin = &last
	u.LoginCount++
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.LastLogin != nil {
		last := *u.LastLogin
		c.LastLogin = &last
	}
	if u.Preferences != nil {
		c.Preferences = make(map[string]any, len(u.Preferences))
		for k, v := range u.Preferences {
			c.Preferences[k] = v
		}
	}
	return &c
}
