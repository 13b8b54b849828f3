package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
)

// QStashClient talks to a QStash-compatible delivery queue over HTTP.
type QStashClient struct {
	baseURL string
	token   string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewQStashClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *QStashClient {
	return &QStashClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{}, // per-call timeout via context
		timeout: timeout,
		logger:  logger.With("component", "queue_client"),
	}
}

type publishResponse struct {
	MessageID string `json:"messageId"`
}

func (c *QStashClient) Publish(ctx context.Context, callbackURL string, notBefore time.Time, payload any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	endpoint := c.baseURL + "/v2/publish/" + url.QueryEscape(callbackURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Not-Before", strconv.FormatInt(notBefore.Unix(), 10))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: publish: %v", domain.ErrQueueUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: publish returned %d", domain.ErrQueueUnavailable, resp.StatusCode)
	}

	var pr publishResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", fmt.Errorf("%w: decode publish response: %v", domain.ErrQueueUnavailable, err)
	}
	if pr.MessageID == "" {
		return "", fmt.Errorf("%w: publish response missing messageId", domain.ErrQueueUnavailable)
	}

	c.logger.Debug("queued delivery", "message_id", pr.MessageID, "not_before", notBefore)
	return pr.MessageID, nil
}

func (c *QStashClient) Cancel(ctx context.Context, messageID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/v2/messages/" + url.PathEscape(messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build cancel request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: cancel: %v", domain.ErrQueueUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		// The queue does not know this id. Likely it already fired; callers
		// treat this as a failed cancel, not a success.
		return fmt.Errorf("cancel message %s: unknown message id", messageID)
	default:
		return fmt.Errorf("%w: cancel returned %d", domain.ErrQueueUnavailable, resp.StatusCode)
	}
}
