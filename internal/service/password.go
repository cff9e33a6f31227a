package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// PasswordHasher hashes and verifies passwords with bcrypt at a fixed cost.
// The number of hashes computed at once is bounded so a burst of
// registrations cannot monopolize every CPU.
type PasswordHasher struct {
	cost     int
	sem      *semaphore.Weighted
	observer prometheus.Observer
}

// NewPasswordHasher creates a hasher. concurrency must be at least 1.
func NewPasswordHasher(cost int, concurrency int64) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if concurrency < 1 {
		return nil, fmt.Errorf("hash concurrency must be positive, got %d", concurrency)
	}
	return &PasswordHasher{
		cost: cost,
		sem:  semaphore.NewWeighted(concurrency),
	}, nil
}

// Cost returns the bcrypt work factor.
func (h *PasswordHasher) Cost() int { return h.cost }

// Hash returns a salted bcrypt hash of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hash slot: %w", err)
	}
	defer h.sem.Release(1)

	start := time.Now()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	h.observe(start)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. A malformed hash is a
// mismatch, not an error; errors are only returned when ctx ends before a
// hashing slot frees up.
func (h *PasswordHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("acquire hash slot: %w", err)
	}
	defer h.sem.Release(1)

	start := time.Now()
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	h.observe(start)
	return err == nil, nil
}

func (h *PasswordHasher) observe(start time.Time) {
	if h.observer != nil {
		h.observer.Observe(time.Since(start).Seconds())
	}
}

// dummyHash produces a hash of a random secret at the hasher's cost. Login
// verifies against it when the account does not exist so both paths take
// the same time.
func (h *PasswordHasher) dummyHash() (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("generate dummy secret: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(fmt.Sprintf("%x", secret)), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash dummy secret: %w", err)
	}
	return string(hash), nil
}
