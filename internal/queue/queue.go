// Package queue wraps the external delivery queue: a service that calls a
// webhook no earlier than a requested time, with at-least-once semantics.
package queue

import (
	"context"
	"time"
)

// Client is the surface the coordinator needs from the queue.
type Client interface {
	// Publish registers a delivery of payload to callbackURL no earlier than
	// notBefore and returns the queue's message id (the cancellation handle).
	Publish(ctx context.Context, callbackURL string, notBefore time.Time, payload any) (string, error)

	// Cancel removes a pending delivery. Cancelling an id the queue does not
	// know is an error; the caller decides what that means.
	Cancel(ctx context.Context, messageID string) error
}
