package repository

import (
	"context"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
)

type DeliveryRepository interface {
	Record(ctx context.Context, d *domain.Delivery) (*domain.Delivery, error)
	// ListByPostID returns deliveries newest first. Callers verify post
	// ownership before listing.
	ListByPostID(ctx context.Context, postID string, limit int) ([]*domain.Delivery, error)
}
