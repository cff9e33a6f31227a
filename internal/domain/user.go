package domain

import (
	"context"
	"strings"
	"time"
)

// User is the stored identity record for one registered account.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public view of a user carried by session tokens and
// returned from register/login. It never contains the id or password hash.
type Profile struct {
	Email       string
	DisplayName string
}

// Profile returns the public view of the user.
func (u *User) Profile() Profile {
	return Profile{Email: u.Email, DisplayName: u.DisplayName}
}

// CredentialStore holds one identity record per normalized email.
//
// Insert and Update must be atomic with respect to concurrent readers of the
// same key. Implementations return copies, so callers may mutate the records
// they receive without affecting stored state.
type CredentialStore interface {
	// Insert adds a new record. Returns ErrAlreadyExists if the email is taken.
	Insert(ctx context.Context, user *User) error
	// FindByEmail returns the record for the email. A missing record is
	// reported as ok == false with a nil error.
	FindByEmail(ctx context.Context, email string) (user *User, ok bool, err error)
	// Update replaces the record stored for user.Email. Returns ErrNotFound
	// if no such record exists.
	Update(ctx context.Context, user *User) error
}

// NormalizeEmail lower-cases and trims an email address for use as the
// uniqueness key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
