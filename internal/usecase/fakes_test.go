package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
	"github.com/ErlanBelekov/post-scheduler/internal/publisher"
	"github.com/ErlanBelekov/post-scheduler/internal/repository"
)

// ---- fakes ----

type fakePostRepo struct {
	insert          func(ctx context.Context, post *domain.Post) (*domain.Post, error)
	findByID        func(ctx context.Context, id string) (*domain.Post, error)
	findByIDForUser func(ctx context.Context, id, userID string) (*domain.Post, error)
	replaceSchedule func(ctx context.Context, id, userID string, input repository.ReplaceScheduleInput) (*domain.Post, error)
	deleteFn        func(ctx context.Context, id, userID string) error
	listScheduled   func(ctx context.Context, userID string) ([]*domain.Post, error)
	markPublished   func(ctx context.Context, id, externalPostID string) (bool, error)
	purge           func(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

func (r *fakePostRepo) Insert(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	return r.insert(ctx, post)
}

func (r *fakePostRepo) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	return r.findByID(ctx, id)
}

func (r *fakePostRepo) FindByIDForUser(ctx context.Context, id, userID string) (*domain.Post, error) {
	return r.findByIDForUser(ctx, id, userID)
}

func (r *fakePostRepo) ReplaceSchedule(ctx context.Context, id, userID string, input repository.ReplaceScheduleInput) (*domain.Post, error) {
	return r.replaceSchedule(ctx, id, userID, input)
}

func (r *fakePostRepo) Delete(ctx context.Context, id, userID string) error {
	return r.deleteFn(ctx, id, userID)
}

func (r *fakePostRepo) ListScheduled(ctx context.Context, userID string) ([]*domain.Post, error) {
	return r.listScheduled(ctx, userID)
}

func (r *fakePostRepo) MarkPublished(ctx context.Context, id, externalPostID string) (bool, error) {
	return r.markPublished(ctx, id, externalPostID)
}

func (r *fakePostRepo) PurgePublishedBefore(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	return r.purge(ctx, cutoff, limit)
}

type fakeQueue struct {
	publish func(ctx context.Context, callbackURL string, notBefore time.Time, payload any) (string, error)
	cancel  func(ctx context.Context, messageID string) error
}

func (q *fakeQueue) Publish(ctx context.Context, callbackURL string, notBefore time.Time, payload any) (string, error) {
	return q.publish(ctx, callbackURL, notBefore, payload)
}

func (q *fakeQueue) Cancel(ctx context.Context, messageID string) error {
	return q.cancel(ctx, messageID)
}

type fakeDeliveryRepo struct {
	record       func(ctx context.Context, d *domain.Delivery) (*domain.Delivery, error)
	listByPostID func(ctx context.Context, postID string, limit int) ([]*domain.Delivery, error)
}

func (r *fakeDeliveryRepo) Record(ctx context.Context, d *domain.Delivery) (*domain.Delivery, error) {
	if r.record == nil {
		return d, nil
	}
	return r.record(ctx, d)
}

func (r *fakeDeliveryRepo) ListByPostID(ctx context.Context, postID string, limit int) ([]*domain.Delivery, error) {
	return r.listByPostID(ctx, postID, limit)
}

type fakeAccountRepo struct {
	findByID func(ctx context.Context, id, userID string) (*domain.SocialAccount, error)
}

func (r *fakeAccountRepo) FindByID(ctx context.Context, id, userID string) (*domain.SocialAccount, error) {
	return r.findByID(ctx, id, userID)
}

type fakeUserRepo struct {
	upsert   func(ctx context.Context, id string) error
	findByID func(ctx context.Context, id string) (*domain.User, error)
}

func (r *fakeUserRepo) Upsert(ctx context.Context, id string) error {
	return r.upsert(ctx, id)
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if r.findByID == nil {
		return &domain.User{ID: id, Email: "owner@test.local"}, nil
	}
	return r.findByID(ctx, id)
}

type fakePublisher struct {
	publish func(ctx context.Context, account *domain.SocialAccount, content string, mediaRefs []string) (*publisher.Result, error)
}

func (p *fakePublisher) Publish(ctx context.Context, account *domain.SocialAccount, content string, mediaRefs []string) (*publisher.Result, error) {
	return p.publish(ctx, account, content, mediaRefs)
}

type fakeNotifier struct {
	blocked func(ctx context.Context, to string, post *domain.Post, reason string) error
}

func (n *fakeNotifier) PublishBlocked(ctx context.Context, to string, post *domain.Post, reason string) error {
	if n.blocked == nil {
		return nil
	}
	return n.blocked(ctx, to, post, reason)
}

// ---- helpers ----

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }
