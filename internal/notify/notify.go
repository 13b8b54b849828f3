package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
	"github.com/resend/resend-go/v2"
)

// Notifier tells a user their scheduled post hit a dead end the queue will
// not retry (bad or expired publishing credentials).
type Notifier interface {
	PublishBlocked(ctx context.Context, to string, post *domain.Post, reason string) error
}

// LogNotifier logs notifications instead of sending them. Used in ENV=local.
type LogNotifier struct {
	logger *slog.Logger
}

func (n *LogNotifier) PublishBlocked(_ context.Context, to string, post *domain.Post, reason string) error {
	n.logger.Info("publish-blocked notice (local dev)", "to", to, "post_id", post.ID, "reason", reason)
	return nil
}

// ResendNotifier sends notifications via the Resend API.
type ResendNotifier struct {
	client *resend.Client
	from   string
}

func (n *ResendNotifier) PublishBlocked(ctx context.Context, to string, post *domain.Post, reason string) error {
	body := fmt.Sprintf(
		`<p>Your post scheduled for %s could not be published: %s.</p>
<p>Reconnect the publishing account and schedule the post again.</p>`,
		post.ScheduledAt.UTC().Format("Jan 2, 2006 15:04 MST"), reason,
	)
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{to},
		Subject: "Your scheduled post could not be published",
		Html:    body,
	}
	if _, err := n.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send notice: %w", err)
	}
	return nil
}

// New returns a LogNotifier for ENV=local, ResendNotifier otherwise.
func New(env, apiKey, from string, logger *slog.Logger) Notifier {
	if env == "local" {
		return &LogNotifier{logger: logger.With("component", "notify")}
	}
	return &ResendNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}
