// seed creates the schema and inserts a dev user, a connected account, and a
// handful of scheduled posts into the local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ErlanBelekov/post-scheduler/internal/infrastructure/postgres"
	"github.com/google/uuid"
)

const (
	seedUserID    = "user_seed_local"
	seedEmail     = "seed@test.local"
	seedAccountID = "acct_seed_local"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	email      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS social_accounts (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL REFERENCES users(id),
	platform         TEXT NOT NULL,
	handle           TEXT NOT NULL,
	access_token     TEXT NOT NULL,
	token_expires_at TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS posts (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL REFERENCES users(id),
	account_id       TEXT NOT NULL,
	content          TEXT NOT NULL,
	media_refs       TEXT[] NOT NULL DEFAULT '{}',
	queue_message_id TEXT,
	external_post_id TEXT,
	scheduled_at     TIMESTAMPTZ NOT NULL,
	is_scheduled     BOOLEAN NOT NULL DEFAULT TRUE,
	is_published     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT posts_not_both_states CHECK (NOT (is_scheduled AND is_published))
);

CREATE INDEX IF NOT EXISTS idx_posts_owner_published_created
	ON posts (user_id, is_published, created_at);
CREATE INDEX IF NOT EXISTS idx_posts_scheduled_at
	ON posts (is_scheduled, scheduled_at);

CREATE TABLE IF NOT EXISTS deliveries (
	id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	post_id     TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	detail      TEXT,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_deliveries_post
	ON deliveries (post_id, received_at);
`

var contents = []string{
	"Shipping the new scheduler today. Wish us luck!",
	"Hot take: cron specs are a perfectly fine user interface.",
	"Reminder: our office hours stream starts at the top of the hour.",
	"We just crossed 10k scheduled posts. Thank you all!",
	"What feature should we build next? Replies open.",
}

func main() {
	ctx := context.Background()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("create schema: %v", err)
	}
	fmt.Println("schema ready")

	if _, err := pool.Exec(ctx,
		`INSERT INTO users (id, email) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email`,
		seedUserID, seedEmail,
	); err != nil {
		log.Fatalf("seed user: %v", err)
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO social_accounts (id, user_id, platform, handle, access_token)
		 VALUES ($1, $2, 'x', 'seed_handle', 'seed-access-token')
		 ON CONFLICT (id) DO NOTHING`,
		seedAccountID, seedUserID,
	); err != nil {
		log.Fatalf("seed account: %v", err)
	}

	for i, content := range contents {
		id := uuid.NewString()
		messageID := "seed-msg-" + id[:8]
		scheduledAt := time.Now().Add(time.Duration(i+1) * time.Hour)

		_, err := pool.Exec(ctx, `
			INSERT INTO posts (
				id, user_id, account_id, content, media_refs,
				queue_message_id, scheduled_at, is_scheduled, is_published
			) VALUES ($1, $2, $3, $4, '{}', $5, $6, TRUE, FALSE)`,
			id, seedUserID, seedAccountID, content, messageID, scheduledAt,
		)
		if err != nil {
			log.Fatalf("seed post %d: %v", i+1, err)
		}
		fmt.Printf("seeded post %s for %s\n", id, scheduledAt.Format(time.RFC3339))
	}

	fmt.Println("done")
}
