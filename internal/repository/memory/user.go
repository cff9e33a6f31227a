// Package memory provides an in-process CredentialStore backed by a map.
package memory

import (
	"context"
	"sync"

	"github.com/codilore/codilore/internal/domain"
)

// UserStore implements domain.CredentialStore in memory. It is safe for
// concurrent use.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserStore creates an empty in-memory store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]domain.User)}
}

func (s *UserStore) Insert(_ context.Context, user *domain.User) error {
	key := domain.NormalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[key]; exists {
		return domain.ErrAlreadyExists
	}
	s.users[key] = *user
	return nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*domain.User, bool, error) {
	s.mu.RLock()
	user, ok := s.users[domain.NormalizeEmail(email)]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	return &user, true, nil
}

func (s *UserStore) Update(_ context.Context, user *domain.User) error {
	key := domain.NormalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[key]; !exists {
		return domain.ErrNotFound
	}
	s.users[key] = *user
	return nil
}

// Len returns the number of stored records.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
