package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codilore/codilore/internal/domain"
)

// User-facing failure messages.
const (
	MsgRegisterFieldsRequired = "Email, password, and name are required"
	MsgLoginFieldsRequired    = "Email and password are required"
	MsgPasswordTooShort       = "Password must be at least 8 characters long"
	MsgPasswordTooLong        = "Password must be at most 72 bytes long"
	MsgUserExists             = "User with this email already exists"
	MsgInvalidCredentials     = "Invalid email or password"
	MsgUserNotFound           = "User not found"
	MsgPasswordFieldsRequired = "Current and new password are required"
	MsgWrongCurrentPassword   = "Current password is incorrect"
)

const (
	minPasswordLength = 8
	// bcrypt only reads the first 72 bytes of its input.
	maxPasswordBytes = 72
)

// AuthService handles registration, login, session tokens and password
// rotation. It holds no mutable state and is safe for concurrent use.
type AuthService struct {
	users     domain.CredentialStore
	hasher    *PasswordHasher
	tokens    *TokenIssuer
	now       func() time.Time
	dummyHash string
}

type options struct {
	now             func() time.Time
	tokenTTL        time.Duration
	hashConcurrency int64
	hashObserver    prometheus.Observer
}

// Option configures an AuthService.
type Option func(*options)

// WithClock overrides the time source used for timestamps and token expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTokenTTL overrides the session token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *options) { o.tokenTTL = ttl }
}

// WithHashConcurrency bounds how many bcrypt operations run at once.
func WithHashConcurrency(n int64) Option {
	return func(o *options) { o.hashConcurrency = n }
}

// WithHashObserver records the duration in seconds of every bcrypt operation.
func WithHashObserver(obs prometheus.Observer) Option {
	return func(o *options) { o.hashObserver = obs }
}

// NewAuthService creates a new AuthService. An empty jwtSecret is rejected.
func NewAuthService(users domain.CredentialStore, jwtSecret string, bcryptCost int, opts ...Option) (*AuthService, error) {
	o := options{
		now:             time.Now,
		tokenTTL:        DefaultTokenTTL,
		hashConcurrency: int64(runtime.GOMAXPROCS(0)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	tokens, err := NewTokenIssuer(jwtSecret, o.tokenTTL, o.now)
	if err != nil {
		return nil, err
	}

	hasher, err := NewPasswordHasher(bcryptCost, o.hashConcurrency)
	if err != nil {
		return nil, err
	}
	hasher.observer = o.hashObserver

	dummy, err := hasher.dummyHash()
	if err != nil {
		return nil, err
	}

	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		now:       o.now,
		dummyHash: dummy,
	}, nil
}

// Register creates a new identity and returns its public profile.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (domain.Profile, error) {
	email = domain.NormalizeEmail(email)
	name = strings.TrimSpace(name)

	if email == "" || password == "" || name == "" {
		return domain.Profile{}, domain.Validation(MsgRegisterFieldsRequired)
	}
	if err := validatePassword(password); err != nil {
		return domain.Profile{}, err
	}

	if _, exists, err := s.users.FindByEmail(ctx, email); err != nil {
		return domain.Profile{}, fmt.Errorf("find user: %w", err)
	} else if exists {
		return domain.Profile{}, domain.Conflict(MsgUserExists)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return domain.Profile{}, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The store decides races between concurrent registrations.
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.Profile{}, domain.Conflict(MsgUserExists)
		}
		return domain.Profile{}, fmt.Errorf("insert user: %w", err)
	}

	return user.Profile(), nil
}

// Login verifies credentials and returns the user's public profile. Unknown
// emails and wrong passwords fail with the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Profile, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.Profile{}, domain.Validation(MsgLoginFieldsRequired)
	}

	user, exists, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("find user: %w", err)
	}

	target := s.dummyHash
	if exists {
		target = user.PasswordHash
	}

	match, err := s.hasher.Verify(ctx, password, target)
	if err != nil {
		return domain.Profile{}, err
	}
	if !exists || !match {
		return domain.Profile{}, domain.Unauthorized(MsgInvalidCredentials)
	}

	return user.Profile(), nil
}

// GenerateToken mints a signed session token for the profile.
func (s *AuthService) GenerateToken(p domain.Profile) (string, error) {
	return s.tokens.Issue(p)
}

// VerifyToken returns the profile carried by a valid token. Malformed,
// tampered and expired tokens all yield ok == false.
func (s *AuthService) VerifyToken(token string) (domain.Profile, bool) {
	return s.tokens.Verify(token)
}

// HashPassword returns a bcrypt hash of password.
func (s *AuthService) HashPassword(ctx context.Context, password string) (string, error) {
	return s.hasher.Hash(ctx, password)
}

// VerifyPassword reports whether password matches hash.
func (s *AuthService) VerifyPassword(ctx context.Context, password, hash string) (bool, error) {
	return s.hasher.Verify(ctx, password, hash)
}

// GetUserByEmail returns the full identity record, including the password
// hash. Callers must not expose the hash.
func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	user, ok, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, false, fmt.Errorf("find user: %w", err)
	}
	return user, ok, nil
}

// UpdatePassword replaces the stored hash for email. Tokens issued before
// the change remain valid until they expire.
func (s *AuthService) UpdatePassword(ctx context.Context, email, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, exists, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if !exists {
		return domain.NotFound(MsgUserNotFound)
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound(MsgUserNotFound)
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// ChangePassword rotates the password after re-checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return domain.Validation(MsgPasswordFieldsRequired)
	}
	if _, err := s.Login(ctx, email, currentPassword); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return domain.Unauthorized(MsgWrongCurrentPassword)
		}
		return err
	}
	return s.UpdatePassword(ctx, email, newPassword)
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return domain.Validation(MsgPasswordTooShort)
	}
	if len(password) > maxPasswordBytes {
		return domain.Validation(MsgPasswordTooLong)
	}
	return nil
}
