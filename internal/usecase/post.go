package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
	"github.com/ErlanBelekov/post-scheduler/internal/metrics"
	"github.com/ErlanBelekov/post-scheduler/internal/queue"
	"github.com/ErlanBelekov/post-scheduler/internal/repository"
	"github.com/google/uuid"
)

// CallbackPayload is the body the queue delivers back to the webhook at fire
// time. It carries only the record id; everything else is looked up fresh.
type CallbackPayload struct {
	ID string `json:"id"`
}

// PostUsecase coordinates the delivery queue and the store. The ordering
// inside each operation is load-bearing: the queue is always touched before
// the store on the way in, and every failure after a queue write compensates
// with a best-effort cancel.
type PostUsecase struct {
	repo        repository.PostRepository
	deliveries  repository.DeliveryRepository
	queue       queue.Client
	callbackURL string
	logger      *slog.Logger
}

func NewPostUsecase(
	repo repository.PostRepository,
	deliveries repository.DeliveryRepository,
	queueClient queue.Client,
	callbackURL string,
	logger *slog.Logger,
) *PostUsecase {
	return &PostUsecase{
		repo:        repo,
		deliveries:  deliveries,
		queue:       queueClient,
		callbackURL: callbackURL,
		logger:      logger.With("component", "post_usecase"),
	}
}

type ScheduleInput struct {
	UserID      string
	AccountID   string
	Content     string
	ScheduledAt time.Time
	MediaRefs   []string
}

func (u *PostUsecase) Schedule(ctx context.Context, input ScheduleInput) (*domain.Post, error) {
	if err := ValidateSchedule(input.Content, input.ScheduledAt, input.MediaRefs, time.Now()); err != nil {
		return nil, err
	}

	// The id exists before the queue registration because the queue payload
	// carries it; the row is inserted after, under the same id.
	id := uuid.NewString()

	messageID, err := u.queue.Publish(ctx, u.callbackURL, input.ScheduledAt, CallbackPayload{ID: id})
	if err != nil {
		metrics.QueueRequestsTotal.WithLabelValues("publish", "error").Inc()
		return nil, fmt.Errorf("queue publish: %w", err)
	}
	metrics.QueueRequestsTotal.WithLabelValues("publish", "ok").Inc()

	post := &domain.Post{
		ID:             id,
		UserID:         input.UserID,
		AccountID:      input.AccountID,
		Content:        input.Content,
		MediaRefs:      input.MediaRefs,
		QueueMessageID: &messageID,
		ScheduledAt:    input.ScheduledAt,
		IsScheduled:    true,
	}

	created, err := u.repo.Insert(ctx, post)
	if err != nil {
		// Without the row the delivery would fire against nothing; take the
		// queue job back out. A failed compensation is logged, never returned
		// in place of the insert error.
		u.compensateCancel(ctx, "schedule_insert", messageID)
		return nil, fmt.Errorf("insert post: %w", err)
	}

	u.logger.InfoContext(ctx, "post scheduled",
		"post_id", created.ID,
		"scheduled_at", created.ScheduledAt,
		"message_id", messageID,
	)
	return created, nil
}

type UpdateInput struct {
	UserID      string
	PostID      string
	Content     string
	ScheduledAt time.Time
	MediaRefs   []string
}

func (u *PostUsecase) Update(ctx context.Context, input UpdateInput) (*domain.Post, error) {
	if err := ValidateSchedule(input.Content, input.ScheduledAt, input.MediaRefs, time.Now()); err != nil {
		return nil, err
	}

	post, err := u.repo.FindByIDForUser(ctx, input.PostID, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if post.IsPublished {
		return nil, domain.ErrPostAlreadyPublished
	}
	if post.QueueMessageID == nil {
		return nil, fmt.Errorf("post %s is scheduled but has no queue message id", post.ID)
	}

	// Retire the old delivery first. If this fails nothing has changed yet,
	// so the safe move is to abort.
	if err := u.queue.Cancel(ctx, *post.QueueMessageID); err != nil {
		metrics.QueueRequestsTotal.WithLabelValues("cancel", "error").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrCancelFailed, err)
	}
	metrics.QueueRequestsTotal.WithLabelValues("cancel", "ok").Inc()

	newMessageID, err := u.queue.Publish(ctx, u.callbackURL, input.ScheduledAt, CallbackPayload{ID: post.ID})
	if err != nil {
		metrics.QueueRequestsTotal.WithLabelValues("publish", "error").Inc()
		// The old job is already gone and cannot be restored: the stored row
		// now references a dead delivery until the user retries the update.
		u.logger.WarnContext(ctx, "update left post referencing a cancelled queue job",
			"post_id", post.ID,
			"dead_message_id", *post.QueueMessageID,
		)
		return nil, fmt.Errorf("queue publish: %w", err)
	}
	metrics.QueueRequestsTotal.WithLabelValues("publish", "ok").Inc()

	updated, err := u.repo.ReplaceSchedule(ctx, post.ID, input.UserID, repository.ReplaceScheduleInput{
		Content:        input.Content,
		MediaRefs:      input.MediaRefs,
		ScheduledAt:    input.ScheduledAt,
		QueueMessageID: newMessageID,
	})
	if err != nil {
		// Take the new job back out; the old one was already cancelled in
		// step one, so the unchanged row points at a dead delivery either way.
		u.compensateCancel(ctx, "update_replace", newMessageID)
		u.logger.WarnContext(ctx, "update failed after old queue job was cancelled",
			"post_id", post.ID,
			"dead_message_id", *post.QueueMessageID,
		)
		return nil, fmt.Errorf("replace schedule: %w", err)
	}

	u.logger.InfoContext(ctx, "post rescheduled",
		"post_id", updated.ID,
		"scheduled_at", updated.ScheduledAt,
		"message_id", newMessageID,
	)
	return updated, nil
}

func (u *PostUsecase) Cancel(ctx context.Context, postID, userID string) error {
	post, err := u.repo.FindByIDForUser(ctx, postID, userID)
	if err != nil {
		return fmt.Errorf("load post: %w", err)
	}
	if !post.IsScheduled || post.IsPublished || post.QueueMessageID == nil {
		// Cancelling something that already ran (or never existed for this
		// owner) reads as not-found to the caller.
		return domain.ErrPostNotFound
	}

	// Queue first: if the cancel fails the job may still fire, and deleting
	// the row would turn that delivery into a 404 the queue retries forever.
	if err := u.queue.Cancel(ctx, *post.QueueMessageID); err != nil {
		metrics.QueueRequestsTotal.WithLabelValues("cancel", "error").Inc()
		return fmt.Errorf("%w: %v", domain.ErrCancelFailed, err)
	}
	metrics.QueueRequestsTotal.WithLabelValues("cancel", "ok").Inc()

	if err := u.repo.Delete(ctx, postID, userID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	u.logger.InfoContext(ctx, "post cancelled", "post_id", postID)
	return nil
}

func (u *PostUsecase) GetPost(ctx context.Context, postID, userID string) (*domain.Post, error) {
	post, err := u.repo.FindByIDForUser(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

func (u *PostUsecase) ListScheduled(ctx context.Context, userID string) ([]*domain.Post, error) {
	posts, err := u.repo.ListScheduled(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list scheduled posts: %w", err)
	}
	return posts, nil
}

func (u *PostUsecase) ListDeliveries(ctx context.Context, postID, userID string, limit int) ([]*domain.Delivery, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	// Verify ownership
	if _, err := u.repo.FindByIDForUser(ctx, postID, userID); err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	deliveries, err := u.deliveries.ListByPostID(ctx, postID, limit)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return deliveries, nil
}

// compensateCancel undoes a queue publish after a later step failed. Best
// effort: the primary error always wins, a failed cancel only gets logged.
func (u *PostUsecase) compensateCancel(ctx context.Context, stage, messageID string) {
	if err := u.queue.Cancel(ctx, messageID); err != nil {
		metrics.CompensationsTotal.WithLabelValues(stage, "error").Inc()
		u.logger.ErrorContext(ctx, "compensating cancel failed; queue job may fire against no row",
			"stage", stage,
			"message_id", messageID,
			"error", err,
		)
		return
	}
	metrics.CompensationsTotal.WithLabelValues(stage, "ok").Inc()
}
