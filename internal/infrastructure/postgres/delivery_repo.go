package postgres

import (
	"context"
	"fmt"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DeliveryRepository struct {
	pool *pgxpool.Pool
}

func NewDeliveryRepository(pool *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

func (r *DeliveryRepository) Record(ctx context.Context, d *domain.Delivery) (*domain.Delivery, error) {
	query := `
		INSERT INTO deliveries (post_id, outcome, detail, duration_ms)
		VALUES ($1, $2, $3, $4)
		RETURNING id, post_id, outcome, detail, duration_ms, received_at`

	var out domain.Delivery
	err := r.pool.QueryRow(ctx, query,
		d.PostID, d.Outcome, d.Detail, d.DurationMS,
	).Scan(&out.ID, &out.PostID, &out.Outcome, &out.Detail, &out.DurationMS, &out.ReceivedAt)
	if err != nil {
		return nil, fmt.Errorf("record delivery: %w", err)
	}
	return &out, nil
}

func (r *DeliveryRepository) ListByPostID(ctx context.Context, postID string, limit int) ([]*domain.Delivery, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, post_id, outcome, detail, duration_ms, received_at
		FROM deliveries
		WHERE post_id = $1
		ORDER BY received_at DESC, id DESC
		LIMIT $2`, postID, limit)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		if err := rows.Scan(&d.ID, &d.PostID, &d.Outcome, &d.Detail, &d.DurationMS, &d.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		deliveries = append(deliveries, &d)
	}
	return deliveries, rows.Err()
}
