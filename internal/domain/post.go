package domain

import (
	"errors"
	"time"
)

var (
	ErrContentInvalid  = errors.New("content must be between 1 and 280 characters")
	ErrScheduleTooSoon = errors.New("schedule time must be at least 1 minute in the future")
	ErrScheduleTooFar  = errors.New("schedule time must be within 1 year")
	ErrTooManyMedia    = errors.New("a post can carry at most 4 media attachments")

	ErrPostNotFound         = errors.New("post not found")
	ErrPostAlreadyPublished = errors.New("post is already published")

	ErrQueueUnavailable = errors.New("delivery queue unavailable")
	ErrCancelFailed     = errors.New("could not cancel the scheduled delivery")

	ErrSignatureInvalid   = errors.New("webhook signature is invalid")
	ErrCredentialsInvalid = errors.New("publishing credentials are missing or invalid")
	ErrUpstreamPublish    = errors.New("publishing platform rejected the post")
)

const (
	MaxContentLen = 280
	MaxMediaRefs  = 4

	MinLeadTime = time.Minute
	MaxLeadTime = 365 * 24 * time.Hour
)

// Post is a pending or completed scheduled publication.
//
// Invariants the store and usecases maintain:
//   - IsScheduled and IsPublished are never both true.
//   - QueueMessageID is non-nil iff IsScheduled && !IsPublished.
//   - ExternalPostID is non-nil iff IsPublished.
//   - ScheduledAt is written by Schedule/Update only; the webhook executor
//     never touches it.
type Post struct {
	ID        string
	UserID    string
	AccountID string

	Content   string
	MediaRefs []string // ordered platform media identifiers, at most 4

	QueueMessageID *string
	ExternalPostID *string

	ScheduledAt time.Time
	IsScheduled bool
	IsPublished bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
