package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mentornet/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (types.User, error) {
	const query = `
		SELECT id, remote_id, data, created_at, updated_at
		FROM users
		WHERE id = $1`
	var user types.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.RemoteID,
		&user.Data,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByRemoteID(ctx context.Context, remoteID string) (types.User, error) {
	const query = `
		SELECT id, remote_id, data, created_at, updated_at
		FROM users
		WHERE remote_id = $1`
	var user types.User
	err := r.db.QueryRowContext(ctx, query, remoteID).Scan(
		&user.ID,
		&user.RemoteID,
		&user.Data,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// FindOrCreateByRemoteID returns the user with the given remote id, creating
// the row on first login. The display name from the SSO service is seeded
// into the profile document on creation only; an existing profile is left
// untouched.
func (r *UserRepository) FindOrCreateByRemoteID(ctx context.Context, remoteID, name string) (types.User, error) {
	now := time.Now()

	const query = `
		INSERT INTO users (remote_id, data, created_at, updated_at)
		VALUES ($1, jsonb_build_object('name', $2::text), $3, $3)
		ON CONFLICT (remote_id) DO UPDATE SET updated_at = $3
		RETURNING id, remote_id, data, created_at, updated_at`
	var user types.User
	err := r.db.QueryRowContext(ctx, query, remoteID, name, now).Scan(
		&user.ID,
		&user.RemoteID,
		&user.Data,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}
