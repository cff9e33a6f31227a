package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/codilore/codilore/internal/domain"
)

// DefaultTokenTTL is how long a session token stays valid after issuance.
const DefaultTokenTTL = 7 * 24 * time.Hour

const tokenIssuer = "codilore"

// ErrMissingSecret is returned when no signing secret is configured.
var ErrMissingSecret = errors.New("jwt signing secret is required")

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer signing with secret.
func NewTokenIssuer(secret string, ttl time.Duration, now func() time.Time) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// Issue signs a token carrying the profile's email and display name.
func (t *TokenIssuer) Issue(p domain.Profile) (string, error) {
	now := t.now()
	claims := sessionClaims{
		Email: p.Email,
		Name:  p.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, algorithm, issuer and expiry of tokenString.
// Any failure yields ok == false; it never returns an error.
func (t *TokenIssuer) Verify(tokenString string) (domain.Profile, bool) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid || claims.Email == "" {
		return domain.Profile{}, false
	}
	return domain.Profile{Email: claims.Email, DisplayName: claims.Name}, true
}
