package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"presto-bot/internal/domain"
	"presto-bot/internal/interfaces"
)

type userRepository struct {
	db DB
}

func NewUserRepository(db DB) interfaces.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Upsert(ctx context.Context, user domain.User) error {
	query := `
		INSERT INTO users (identity_key, phone, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (identity_key)
		DO UPDATE SET phone = EXCLUDED.phone, display_name = EXCLUDED.display_name, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, user.IdentityKey, user.Phone, user.DisplayName)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *userRepository) Find(ctx context.Context, identityKey int64) (*domain.User, error) {
	query := `
		SELECT id, identity_key, phone, display_name
		FROM users
		WHERE identity_key = $1
	`

	var user domain.User
	err := r.db.QueryRow(ctx, query, identityKey).Scan(
		&user.ID, &user.IdentityKey, &user.Phone, &user.DisplayName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &user, nil
}
