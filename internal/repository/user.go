package repository

import (
	"context"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
)

type UserRepository interface {
	// Upsert makes sure the externally-issued user id has a row, so post and
	// account FK constraints are always satisfied.
	Upsert(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
