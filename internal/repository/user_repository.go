package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vonout/Backend/internal/domain"
	backend_errors "github.com/vonout/Backend/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type PostgresUserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &PostgresUserRepository{db: db}
}

const upsertUserSQL = `
INSERT INTO discord_users (id, username, global_name, avatar, email, created_at, updated_at, last_login_at)
VALUES ($1, $2, $3, $4, $5, now(), now(), now())
ON CONFLICT (id) DO UPDATE SET
	username = EXCLUDED.username,
	global_name = EXCLUDED.global_name,
	avatar = EXCLUDED.avatar,
	email = COALESCE(NULLIF(EXCLUDED.email, ''), discord_users.email),
	updated_at = now(),
	last_login_at = now()
RETURNING created_at, updated_at, last_login_at`

// Upsert inserts the user or refreshes its profile, and stamps the login.
func (r *PostgresUserRepository) Upsert(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRow(ctx, upsertUserSQL, u.ID, u.Username, u.GlobalName, u.Avatar, u.Email).
		Scan(&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", u.ID, err)
	}
	return nil
}

const getUserSQL = `
SELECT id, username, global_name, avatar, email, created_at, updated_at, last_login_at
FROM discord_users WHERE id = $1`

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, getUserSQL, id).Scan(
		&u.ID, &u.Username, &u.GlobalName, &u.Avatar, &u.Email,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, backend_errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &u, nil
}
