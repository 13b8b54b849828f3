package repository

import (
	"context"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
)

// AccountRepository is read-only here: connecting accounts and refreshing
// tokens belongs to the account-connection flow, not this service.
type AccountRepository interface {
	FindByID(ctx context.Context, id, userID string) (*domain.SocialAccount, error)
}
