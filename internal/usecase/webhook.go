package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
	"github.com/ErlanBelekov/post-scheduler/internal/metrics"
	"github.com/ErlanBelekov/post-scheduler/internal/notify"
	"github.com/ErlanBelekov/post-scheduler/internal/publisher"
	"github.com/ErlanBelekov/post-scheduler/internal/repository"
)

// WebhookUsecase executes the publish when the queue fires. The queue
// delivers at least once, so every step here has to be safe to run again:
// the is_published read is the fast path, the conditional MarkPublished is
// the actual idempotency boundary.
type WebhookUsecase struct {
	posts      repository.PostRepository
	accounts   repository.AccountRepository
	users      repository.UserRepository
	deliveries repository.DeliveryRepository
	pub        publisher.Publisher
	notifier   notify.Notifier
	logger     *slog.Logger
}

func NewWebhookUsecase(
	posts repository.PostRepository,
	accounts repository.AccountRepository,
	users repository.UserRepository,
	deliveries repository.DeliveryRepository,
	pub publisher.Publisher,
	notifier notify.Notifier,
	logger *slog.Logger,
) *WebhookUsecase {
	return &WebhookUsecase{
		posts:      posts,
		accounts:   accounts,
		users:      users,
		deliveries: deliveries,
		pub:        pub,
		notifier:   notifier,
		logger:     logger.With("component", "webhook_usecase"),
	}
}

// ExecuteResult reports what a delivery did.
type ExecuteResult struct {
	AlreadyPublished bool
	ExternalPostID   string
}

// Execute runs the fire-time publish for one delivery. Error mapping for the
// transport layer:
//   - domain.ErrPostNotFound       → 404, the queue should not retry
//   - domain.ErrCredentialsInvalid → 400, retrying will not fix it
//   - domain.ErrUpstreamPublish    → 5xx, the queue's retry policy redelivers
//   - any other error              → 5xx
func (u *WebhookUsecase) Execute(ctx context.Context, postID string) (*ExecuteResult, error) {
	start := time.Now()

	post, err := u.posts.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			u.record(ctx, postID, domain.DeliveryNotFound, nil, start)
			metrics.WebhookDeliveriesTotal.WithLabelValues("not_found").Inc()
		}
		return nil, fmt.Errorf("load post: %w", err)
	}

	if post.IsPublished {
		u.record(ctx, post.ID, domain.DeliveryDuplicate, nil, start)
		metrics.WebhookDeliveriesTotal.WithLabelValues("duplicate").Inc()
		metrics.DuplicateDeliveriesTotal.Inc()
		u.logger.InfoContext(ctx, "duplicate delivery for published post", "post_id", post.ID)
		return &ExecuteResult{AlreadyPublished: true, ExternalPostID: deref(post.ExternalPostID)}, nil
	}

	account, err := u.resolveAccount(ctx, post)
	if err != nil {
		// A transient load failure is not a credential problem; let the queue
		// redeliver without recording or notifying.
		if errors.Is(err, domain.ErrCredentialsInvalid) {
			detail := err.Error()
			u.record(ctx, post.ID, domain.DeliveryBadCredentials, &detail, start)
			metrics.WebhookDeliveriesTotal.WithLabelValues("bad_credentials").Inc()
			u.notifyBlocked(ctx, post, err)
		}
		return nil, err
	}

	publishStart := time.Now()
	result, err := u.pub.Publish(ctx, account, post.Content, post.MediaRefs)
	if err != nil {
		detail := err.Error()
		if errors.Is(err, domain.ErrCredentialsInvalid) {
			metrics.PlatformPublishDuration.WithLabelValues("rejected").Observe(time.Since(publishStart).Seconds())
			u.record(ctx, post.ID, domain.DeliveryBadCredentials, &detail, start)
			metrics.WebhookDeliveriesTotal.WithLabelValues("bad_credentials").Inc()
			u.notifyBlocked(ctx, post, err)
			return nil, err
		}
		metrics.PlatformPublishDuration.WithLabelValues("error").Observe(time.Since(publishStart).Seconds())
		u.record(ctx, post.ID, domain.DeliveryUpstreamError, &detail, start)
		metrics.WebhookDeliveriesTotal.WithLabelValues("upstream_error").Inc()
		// Record untouched: the queue's own retry policy redelivers.
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamPublish, err)
	}
	metrics.PlatformPublishDuration.WithLabelValues("ok").Observe(time.Since(publishStart).Seconds())

	won, err := u.posts.MarkPublished(ctx, post.ID, result.ExternalID)
	if err != nil {
		detail := err.Error()
		u.record(ctx, post.ID, domain.DeliveryUpstreamError, &detail, start)
		metrics.WebhookDeliveriesTotal.WithLabelValues("persist_error").Inc()
		return nil, fmt.Errorf("mark published: %w", err)
	}
	if !won {
		// A concurrent duplicate delivery committed first. The platform call
		// above may have created a second post; that window is inherent to
		// publish-then-commit and is why duplicates are surfaced as a metric.
		u.record(ctx, post.ID, domain.DeliveryDuplicate, nil, start)
		metrics.WebhookDeliveriesTotal.WithLabelValues("duplicate").Inc()
		metrics.DuplicateDeliveriesTotal.Inc()
		u.logger.WarnContext(ctx, "lost duplicate-delivery race after platform publish",
			"post_id", post.ID,
			"external_post_id", result.ExternalID,
		)
		return &ExecuteResult{AlreadyPublished: true}, nil
	}

	u.record(ctx, post.ID, domain.DeliveryPublished, nil, start)
	metrics.WebhookDeliveriesTotal.WithLabelValues("published").Inc()
	u.logger.InfoContext(ctx, "post published",
		"post_id", post.ID,
		"external_post_id", result.ExternalID,
		"lag", time.Since(post.ScheduledAt).String(),
	)
	return &ExecuteResult{ExternalPostID: result.ExternalID}, nil
}

func (u *WebhookUsecase) resolveAccount(ctx context.Context, post *domain.Post) (*domain.SocialAccount, error) {
	account, err := u.accounts.FindByID(ctx, post.AccountID, post.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: account %s not found", domain.ErrCredentialsInvalid, post.AccountID)
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !account.CredentialsUsable(time.Now()) {
		return nil, fmt.Errorf("%w: token for %s expired or empty", domain.ErrCredentialsInvalid, account.Handle)
	}
	return account, nil
}

// notifyBlocked emails the owner that the post will not go out without a
// reconnected account. Best effort; the delivery outcome stands either way.
func (u *WebhookUsecase) notifyBlocked(ctx context.Context, post *domain.Post, cause error) {
	user, err := u.users.FindByID(ctx, post.UserID)
	if err != nil || user.Email == "" {
		u.logger.WarnContext(ctx, "cannot notify owner of blocked publish", "post_id", post.ID, "error", err)
		return
	}
	if err := u.notifier.PublishBlocked(ctx, user.Email, post, cause.Error()); err != nil {
		u.logger.WarnContext(ctx, "publish-blocked notice failed", "post_id", post.ID, "error", err)
	}
}

// record appends to the delivery log, best effort.
func (u *WebhookUsecase) record(ctx context.Context, postID string, outcome domain.DeliveryOutcome, detail *string, start time.Time) {
	_, err := u.deliveries.Record(ctx, &domain.Delivery{
		PostID:     postID,
		Outcome:    outcome,
		Detail:     detail,
		DurationMS: time.Since(start).Milliseconds(),
	})
	if err != nil {
		u.logger.WarnContext(ctx, "record delivery", "post_id", postID, "outcome", outcome, "error", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
