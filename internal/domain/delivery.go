package domain

import "time"

type DeliveryOutcome string

const (
	DeliveryPublished      DeliveryOutcome = "published"
	DeliveryDuplicate      DeliveryOutcome = "duplicate"
	DeliveryNotFound       DeliveryOutcome = "not_found"
	DeliveryBadCredentials DeliveryOutcome = "bad_credentials"
	DeliveryUpstreamError  DeliveryOutcome = "upstream_error"
)

// Delivery records one webhook invocation from the queue. The queue delivers
// at least once, so a post can accumulate several of these; the log is what
// lets an operator see duplicate and late deliveries.
type Delivery struct {
	ID         int64
	PostID     string
	Outcome    DeliveryOutcome
	Detail     *string
	DurationMS int64
	ReceivedAt time.Time
}
