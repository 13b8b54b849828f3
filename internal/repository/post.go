package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
)

// ReplaceScheduleInput is the patch applied by a successful update: content,
// time and queue handle are replaced together, identity is preserved.
type ReplaceScheduleInput struct {
	Content        string
	MediaRefs      []string
	ScheduledAt    time.Time
	QueueMessageID string
}

// UseCase depends on interface, not concrete implementation.
// This way we get: 1) can swap DB later without touching usecase 2) We can pass a mock implementation of interface in tests
type PostRepository interface {
	Insert(ctx context.Context, post *domain.Post) (*domain.Post, error)

	// FindByID is unscoped: the webhook executor only has the id carried in
	// the queue payload. Everything caller-facing goes through FindByIDForUser.
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	FindByIDForUser(ctx context.Context, id, userID string) (*domain.Post, error)

	// ReplaceSchedule atomically rewrites content/time/queue handle on a row
	// that is still scheduled and owned by userID. ErrPostNotFound otherwise.
	ReplaceSchedule(ctx context.Context, id, userID string, input ReplaceScheduleInput) (*domain.Post, error)

	// Delete removes a still-scheduled row owned by userID.
	Delete(ctx context.Context, id, userID string) error

	// ListScheduled returns pending posts ordered by scheduled_at ascending.
	ListScheduled(ctx context.Context, userID string) ([]*domain.Post, error)

	// MarkPublished flips scheduled→published in one conditional update.
	// Returns false when the row was already published, i.e. the losing side of a
	// duplicate-delivery race observes that, not an error.
	MarkPublished(ctx context.Context, id, externalPostID string) (bool, error)

	// PurgePublishedBefore deletes published rows older than the cutoff.
	// Never touches scheduled rows.
	PurgePublishedBefore(ctx context.Context, cutoff time.Time, limit int) (int, error)
}
