package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/codilore/codilore/internal/domain"
)

// pool is the subset of *pgxpool.Pool used by the repository.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements domain.CredentialStore using PostgreSQL.
type UserRepository struct {
	pool pool
}

// NewUserRepository creates a new PostgreSQL-backed UserRepository.
func NewUserRepository(p pool) *UserRepository {
	return &UserRepository{pool: p}
}

func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	updatedAt := user.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = user.CreatedAt
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		user.ID,
		domain.NormalizeEmail(user.Email),
		user.DisplayName,
		user.PasswordHash,
		user.CreatedAt,
		updatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id::text, email, display_name, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`, domain.NormalizeEmail(email))

	user := &domain.User{}
	err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query user by email: %w", err)
	}
	return user, true, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	updatedAt := user.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET display_name = $1, password_hash = $2, updated_at = $3
		WHERE email = $4
	`,
		user.DisplayName,
		user.PasswordHash,
		updatedAt,
		domain.NormalizeEmail(user.Email),
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
