package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
	"github.com/ErlanBelekov/post-scheduler/internal/repository"
	"github.com/ErlanBelekov/post-scheduler/internal/usecase"
)

const testCallbackURL = "https://app.test.local/webhooks/publish"

func newPostUsecase(repo *fakePostRepo, q *fakeQueue) *usecase.PostUsecase {
	return usecase.NewPostUsecase(repo, &fakeDeliveryRepo{}, q, testCallbackURL, discardLogger())
}

func TestSchedule_HappyPath(t *testing.T) {
	scheduledAt := time.Now().Add(time.Hour).Truncate(time.Second)

	var publishedNotBefore time.Time
	var publishedPayload any
	var inserted *domain.Post

	q := &fakeQueue{
		publish: func(_ context.Context, callbackURL string, notBefore time.Time, payload any) (string, error) {
			if callbackURL != testCallbackURL {
				t.Errorf("callback url = %q, want %q", callbackURL, testCallbackURL)
			}
			publishedNotBefore = notBefore
			publishedPayload = payload
			return "msg-1", nil
		},
	}
	repo := &fakePostRepo{
		insert: func(_ context.Context, post *domain.Post) (*domain.Post, error) {
			inserted = post
			return post, nil
		},
	}

	p, err := newPostUsecase(repo, q).Schedule(context.Background(), usecase.ScheduleInput{
		UserID:      "user-1",
		AccountID:   "acct-1",
		Content:     "Hello world",
		ScheduledAt: scheduledAt,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !publishedNotBefore.Equal(scheduledAt) {
		t.Errorf("queue notBefore = %v, want %v", publishedNotBefore, scheduledAt)
	}
	payload, ok := publishedPayload.(usecase.CallbackPayload)
	if !ok {
		t.Fatalf("payload type = %T, want CallbackPayload", publishedPayload)
	}
	if payload.ID != p.ID {
		t.Errorf("payload id = %q, want the generated post id %q", payload.ID, p.ID)
	}

	if inserted == nil {
		t.Fatal("row was not inserted")
	}
	if !inserted.IsScheduled || inserted.IsPublished {
		t.Errorf("inserted state scheduled=%v published=%v, want true/false", inserted.IsScheduled, inserted.IsPublished)
	}
	if inserted.QueueMessageID == nil || *inserted.QueueMessageID != "msg-1" {
		t.Errorf("inserted queue message id = %v, want msg-1", inserted.QueueMessageID)
	}
	if inserted.ID != p.ID {
		t.Errorf("row id %q differs from payload id %q", inserted.ID, p.ID)
	}
}

func TestSchedule_ValidationFailure_NoSideEffects(t *testing.T) {
	q := &fakeQueue{
		publish: func(_ context.Context, _ string, _ time.Time, _ any) (string, error) {
			t.Fatal("queue publish must not be called")
			return "", nil
		},
	}
	repo := &fakePostRepo{}

	_, err := newPostUsecase(repo, q).Schedule(context.Background(), usecase.ScheduleInput{
		UserID:      "user-1",
		AccountID:   "acct-1",
		Content:     "",
		ScheduledAt: time.Now().Add(time.Hour),
	})
	if !errors.Is(err, domain.ErrContentInvalid) {
		t.Errorf("want ErrContentInvalid, got %v", err)
	}
}

func TestSchedule_QueueDown_NoRowCreated(t *testing.T) {
	q := &fakeQueue{
		publish: func(_ context.Context, _ string, _ time.Time, _ any) (string, error) {
			return "", domain.ErrQueueUnavailable
		},
	}
	repo := &fakePostRepo{
		insert: func(_ context.Context, _ *domain.Post) (*domain.Post, error) {
			t.Fatal("insert must not be called when the queue publish fails")
			return nil, nil
		},
	}

	_, err := newPostUsecase(repo, q).Schedule(context.Background(), usecase.ScheduleInput{
		UserID:      "user-1",
		AccountID:   "acct-1",
		Content:     "hi there",
		ScheduledAt: time.Now().Add(time.Hour),
	})
	if !errors.Is(err, domain.ErrQueueUnavailable) {
		t.Errorf("want ErrQueueUnavailable, got %v", err)
	}
}

func TestSchedule_InsertFails_CompensatesWithQueueCancel(t *testing.T) {
	insertErr := errors.New("db down")
	var cancelledID string

	q := &fakeQueue{
		publish: func(_ context.Context, _ string, _ time.Time, _ any) (string, error) {
			return "msg-7", nil
		},
		cancel: func(_ context.Context, messageID string) error {
			cancelledID = messageID
			return nil
		},
	}
	repo := &fakePostRepo{
		insert: func(_ context.Context, _ *domain.Post) (*domain.Post, error) {
			return nil, insertErr
		},
	}

	_, err := newPostUsecase(repo, q).Schedule(context.Background(), usecase.ScheduleInput{
		UserID:      "user-1",
		AccountID:   "acct-1",
		Content:     "hi there",
		ScheduledAt: time.Now().Add(time.Hour),
	})
	if !errors.Is(err, insertErr) {
		t.Errorf("want wrapped insert error, got %v", err)
	}
	if cancelledID != "msg-7" {
		t.Errorf("compensating cancel got %q, want msg-7", cancelledID)
	}
}

func TestSchedule_CompensationFailure_DoesNotMaskInsertError(t *testing.T) {
	insertErr := errors.New("db down")

	q := &fakeQueue{
		publish: func(_ context.Context, _ string, _ time.Time, _ any) (string, error) {
			return "msg-7", nil
		},
		cancel: func(_ context.Context, _ string) error {
			return domain.ErrQueueUnavailable
		},
	}
	repo := &fakePostRepo{
		insert: func(_ context.Context, _ *domain.Post) (*domain.Post, error) {
			return nil, insertErr
		},
	}

	_, err := newPostUsecase(repo, q).Schedule(context.Background(), usecase.ScheduleInput{
		UserID:      "user-1",
		AccountID:   "acct-1",
		Content:     "hi there",
		ScheduledAt: time.Now().Add(time.Hour),
	})
	if !errors.Is(err, insertErr) {
		t.Errorf("primary error must survive a failed compensation, got %v", err)
	}
}

func scheduledPost(id, userID, messageID string) *domain.Post {
	return &domain.Post{
		ID:             id,
		UserID:         userID,
		AccountID:      "acct-1",
		Content:        "original",
		QueueMessageID: strPtr(messageID),
		ScheduledAt:    time.Now().Add(2 * time.Hour),
		IsScheduled:    true,
	}
}

func TestUpdate_ReplacesQueueJobThenRow(t *testing.T) {
	newTime := time.Now().Add(3 * time.Hour).Truncate(time.Second)

	var cancelled []string
	var replaced repository.ReplaceScheduleInput

	q := &fakeQueue{
		cancel: func(_ context.Context, messageID string) error {
			cancelled = append(cancelled, messageID)
			return nil
		},
		publish: func(_ context.Context, _ string, notBefore time.Time, payload any) (string, error) {
			if !notBefore.Equal(newTime) {
				t.Errorf("republished notBefore = %v, want %v", notBefore, newTime)
			}
			if p := payload.(usecase.CallbackPayload); p.ID != "post-1" {
				t.Errorf("republished payload id = %q, want post-1 (identity preserved)", p.ID)
			}
			return "msg-new", nil
		},
	}
	repo := &fakePostRepo{
		findByIDForUser: func(_ context.Context, id, userID string) (*domain.Post, error) {
			return scheduledPost(id, userID, "msg-old"), nil
		},
		replaceSchedule: func(_ context.Context, id, userID string, input repository.ReplaceScheduleInput) (*domain.Post, error) {
			replaced = input
			p := scheduledPost(id, userID, input.QueueMessageID)
			p.Content = input.Content
			p.ScheduledAt = input.ScheduledAt
			return p, nil
		},
	}

	p, err := newPostUsecase(repo, q).Update(context.Background(), usecase.UpdateInput{
		UserID:      "user-1",
		PostID:      "post-1",
		Content:     "updated text",
		ScheduledAt: newTime,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cancelled) != 1 || cancelled[0] != "msg-old" {
		t.Errorf("cancelled = %v, want exactly [msg-old]", cancelled)
	}
	if replaced.QueueMessageID != "msg-new" {
		t.Errorf("row got message id %q, want msg-new", replaced.QueueMessageID)
	}
	if p.Content != "updated text" {
		t.Errorf("content = %q", p.Content)
	}
}

func TestUpdate_PersistFails_CancelsNewJobNotOld(t *testing.T) {
	persistErr := errors.New("db down")
	var cancelled []string

	q := &fakeQueue{
		cancel: func(_ context.Context, messageID string) error {
			cancelled = append(cancelled, messageID)
			return nil
		},
		publish: func(_ context.Context, _ string, _ time.Time, _ any) (string, error) {
			return "msg-new", nil
		},
	}
	repo := &fakePostRepo{
		findByIDForUser: func(_ context.Context, id, userID string) (*domain.Post, error) {
			return scheduledPost(id, userID, "msg-old"), nil
		},
		replaceSchedule: func(_ context.Context, _, _ string, _ repository.ReplaceScheduleInput) (*domain.Post, error) {
			return nil, persistErr
		},
	}

	_, err := newPostUsecase(repo, q).Update(context.Background(), usecase.UpdateInput{
		UserID:      "user-1",
		PostID:      "post-1",
		Content:     "updated text",
		ScheduledAt: time.Now().Add(3 * time.Hour),
	})
	if !errors.Is(err, persistErr) {
		t.Fatalf("want wrapped persist error, got %v", err)
	}

	// Step order: old job retired first, then the compensating cancel of the
	// new job after the row write failed.
	if len(cancelled) != 2 {
		t.Fatalf("cancel calls = %v, want [msg-old msg-new]", cancelled)
	}
	if cancelled[1] != "msg-new" {
		t.Errorf("compensation cancelled %q, want the NEW job msg-new", cancelled[1])
	}
}

func TestUpdate_AlreadyPublished_Conflict(t *testing.T) {
	q := &fakeQueue{
		cancel: func(_ context.Context, _ string) error {
			t.Fatal("queue must not be touched for a published post")
			return nil
		},
	}
	repo := &fakePostRepo{
		findByIDForUser: func(_ context.Context, id, userID string) (*domain.Post, error) {
			return &domain.Post{
				ID: id, UserID: userID,
				IsPublished:    true,
				ExternalPostID: strPtr("ext-1"),
			}, nil
		},
	}

	_, err := newPostUsecase(repo, q).Update(context.Background(), usecase.UpdateInput{
		UserID:      "user-1",
		PostID:      "post-1",
		Content:     "updated text",
		ScheduledAt: time.Now().Add(3 * time.Hour),
	})
	if !errors.Is(err, domain.ErrPostAlreadyPublished) {
		t.Errorf("want ErrPostAlreadyPublished, got %v", err)
	}
}

func TestCancel_UnknownOrUnownedPost_NotFound_NoQueueInteraction(t *testing.T) {
	q := &fakeQueue{
		cancel: func(_ context.Context, _ string) error {
			t.Fatal("queue must not be touched when the record is missing")
			return nil
		},
	}
	repo := &fakePostRepo{
		findByIDForUser: func(_ context.Context, _, _ string) (*domain.Post, error) {
			return nil, domain.ErrPostNotFound
		},
	}

	err := newPostUsecase(repo, q).Cancel(context.Background(), "post-x", "intruder")
	if !errors.Is(err, domain.ErrPostNotFound) {
		t.Errorf("want ErrPostNotFound, got %v", err)
	}
}

func TestCancel_QueueCancelFails_RecordLeftUntouched(t *testing.T) {
	q := &fakeQueue{
		cancel: func(_ context.Context, _ string) error {
			return domain.ErrQueueUnavailable
		},
	}
	repo := &fakePostRepo{
		findByIDForUser: func(_ context.Context, id, userID string) (*domain.Post, error) {
			return scheduledPost(id, userID, "msg-1"), nil
		},
		deleteFn: func(_ context.Context, _, _ string) error {
			t.Fatal("row must not be deleted when the queue cancel fails")
			return nil
		},
	}

	err := newPostUsecase(repo, q).Cancel(context.Background(), "post-1", "user-1")
	if !errors.Is(err, domain.ErrCancelFailed) {
		t.Errorf("want ErrCancelFailed, got %v", err)
	}
}

func TestCancel_HappyPath_DeletesAfterQueueCancel(t *testing.T) {
	var cancelledID string
	var deleted bool

	q := &fakeQueue{
		cancel: func(_ context.Context, messageID string) error {
			cancelledID = messageID
			return nil
		},
	}
	repo := &fakePostRepo{
		findByIDForUser: func(_ context.Context, id, userID string) (*domain.Post, error) {
			return scheduledPost(id, userID, "msg-1"), nil
		},
		deleteFn: func(_ context.Context, id, userID string) error {
			if !deleted && cancelledID == "" {
				t.Error("delete ran before the queue cancel")
			}
			deleted = true
			return nil
		},
	}

	if err := newPostUsecase(repo, q).Cancel(context.Background(), "post-1", "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelledID != "msg-1" {
		t.Errorf("cancelled queue message %q, want msg-1", cancelledID)
	}
	if !deleted {
		t.Error("row was not deleted")
	}
}

func TestListScheduled_PassesThrough(t *testing.T) {
	want := []*domain.Post{
		scheduledPost("post-1", "user-1", "m1"),
		scheduledPost("post-2", "user-1", "m2"),
	}
	repo := &fakePostRepo{
		listScheduled: func(_ context.Context, userID string) ([]*domain.Post, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q", userID)
			}
			return want, nil
		},
	}

	got, err := newPostUsecase(repo, &fakeQueue{}).ListScheduled(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}
