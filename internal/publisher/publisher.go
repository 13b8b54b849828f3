package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
	"github.com/google/uuid"
)

// Result is what the platform hands back for a created post.
type Result struct {
	ExternalID string
}

type Publisher interface {
	Publish(ctx context.Context, account *domain.SocialAccount, content string, mediaRefs []string) (*Result, error)
}

// LogPublisher logs posts instead of publishing them. Used in ENV=local.
type LogPublisher struct {
	logger *slog.Logger
}

func (p *LogPublisher) Publish(_ context.Context, account *domain.SocialAccount, content string, mediaRefs []string) (*Result, error) {
	id := "local-" + uuid.NewString()
	p.logger.Info("publish (local dev)",
		"handle", account.Handle,
		"content", content,
		"media_count", len(mediaRefs),
		"external_id", id,
	)
	return &Result{ExternalID: id}, nil
}

// PlatformPublisher creates posts through the platform's REST API. Used in
// staging/production.
type PlatformPublisher struct {
	apiBase string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

type createPostRequest struct {
	Text  string           `json:"text"`
	Media *createPostMedia `json:"media,omitempty"`
}

type createPostMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type createPostResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (p *PlatformPublisher) Publish(ctx context.Context, account *domain.SocialAccount, content string, mediaRefs []string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	payload := createPostRequest{Text: content}
	if len(mediaRefs) > 0 {
		payload.Media = &createPostMedia{MediaIDs: mediaRefs}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal post payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+account.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamPublish, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// A rejected token will not heal on retry.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: platform returned %d", domain.ErrCredentialsInvalid, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: platform returned %d", domain.ErrUpstreamPublish, resp.StatusCode)
	}

	var cr createPostResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamPublish, err)
	}
	if cr.Data.ID == "" {
		return nil, fmt.Errorf("%w: response missing post id", domain.ErrUpstreamPublish)
	}

	p.logger.Debug("published post", "handle", account.Handle, "external_id", cr.Data.ID)
	return &Result{ExternalID: cr.Data.ID}, nil
}

// New returns a LogPublisher for ENV=local, PlatformPublisher otherwise.
func New(env, apiBase string, timeout time.Duration, logger *slog.Logger) Publisher {
	if env == "local" {
		return &LogPublisher{logger: logger.With("component", "publisher")}
	}
	return &PlatformPublisher{
		apiBase: apiBase,
		client:  &http.Client{},
		timeout: timeout,
		logger:  logger.With("component", "publisher"),
	}
}
