package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) FindByID(ctx context.Context, id, userID string) (*domain.SocialAccount, error) {
	query := `
		SELECT id, user_id, platform, handle, access_token, token_expires_at,
		       created_at, updated_at
		FROM social_accounts
		WHERE id = $1 AND user_id = $2`

	var a domain.SocialAccount
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&a.ID, &a.UserID, &a.Platform, &a.Handle, &a.AccessToken, &a.TokenExpiresAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}
