package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
	"github.com/ErlanBelekov/post-scheduler/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postColumns = `id, user_id, account_id, content, media_refs,
	       queue_message_id, external_post_id, scheduled_at,
	       is_scheduled, is_published, created_at, updated_at`

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

func (r *PostRepository) Insert(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	query := `
		INSERT INTO posts (
			id, user_id, account_id, content, media_refs,
			queue_message_id, scheduled_at, is_scheduled, is_published
		) VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, FALSE)
		RETURNING ` + postColumns

	row := r.pool.QueryRow(ctx, query,
		post.ID,
		post.UserID,
		post.AccountID,
		post.Content,
		post.MediaRefs,
		post.QueueMessageID,
		post.ScheduledAt,
	)
	return scanPost(row)
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	return scanPost(row)
}

func (r *PostRepository) FindByIDForUser(ctx context.Context, id, userID string) (*domain.Post, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1 AND user_id = $2`, id, userID)
	return scanPost(row)
}

func (r *PostRepository) ReplaceSchedule(ctx context.Context, id, userID string, input repository.ReplaceScheduleInput) (*domain.Post, error) {
	// Conditioned on the row still being scheduled so an update can never
	// clobber a post the executor published in the meantime.
	query := `
		UPDATE posts
		SET    content          = $3,
		       media_refs       = $4,
		       scheduled_at     = $5,
		       queue_message_id = $6,
		       updated_at       = NOW()
		WHERE  id = $1 AND user_id = $2 AND is_scheduled AND NOT is_published
		RETURNING ` + postColumns

	row := r.pool.QueryRow(ctx, query,
		id, userID,
		input.Content, input.MediaRefs, input.ScheduledAt, input.QueueMessageID,
	)
	return scanPost(row)
}

func (r *PostRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM posts
		 WHERE id = $1 AND user_id = $2 AND is_scheduled AND NOT is_published`,
		id, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *PostRepository) ListScheduled(ctx context.Context, userID string) ([]*domain.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE user_id = $1 AND is_scheduled AND NOT is_published
		ORDER BY scheduled_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list scheduled posts: %w", err)
	}
	defer rows.Close()

	var posts []*domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// MarkPublished is the idempotency boundary for duplicate deliveries: the
// WHERE clause lets exactly one caller win, everyone else sees 0 rows.
func (r *PostRepository) MarkPublished(ctx context.Context, id, externalPostID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE posts
		SET    is_published     = TRUE,
		       is_scheduled     = FALSE,
		       external_post_id = $2,
		       queue_message_id = NULL,
		       updated_at       = NOW()
		WHERE  id = $1 AND NOT is_published`,
		id, externalPostID)
	if err != nil {
		return false, fmt.Errorf("mark published: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostRepository) PurgePublishedBefore(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM posts
		WHERE id IN (
			SELECT id FROM posts
			WHERE  is_published AND created_at < $1
			ORDER BY created_at ASC
			LIMIT $2
		)`, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("purge published posts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(
		&p.ID, &p.UserID, &p.AccountID, &p.Content, &p.MediaRefs,
		&p.QueueMessageID, &p.ExternalPostID, &p.ScheduledAt,
		&p.IsScheduled, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return &p, nil
}
