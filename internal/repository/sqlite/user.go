package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/codilore/codilore/internal/domain"
)

// UserRepository implements domain.CredentialStore using SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	updatedAt := user.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = user.CreatedAt
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, domain.NormalizeEmail(user.Email), user.DisplayName, user.PasswordHash,
		user.CreatedAt.UTC(), updatedAt.UTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, password_hash, created_at, updated_at
		 FROM users WHERE email = ?`, domain.NormalizeEmail(email),
	).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query user by email: %w", err)
	}
	return user, true, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	updatedAt := user.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET display_name = ?, password_hash = ?, updated_at = ?
		 WHERE email = ?`,
		user.DisplayName, user.PasswordHash, updatedAt.UTC(), domain.NormalizeEmail(user.Email),
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// isUniqueConstraintError reports whether err is a SQLite UNIQUE violation.
func isUniqueConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
