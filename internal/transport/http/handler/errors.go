package handler

const (
	errInternalServer   = "Internal server error"
	errPostNotFound     = "Post not found"
	errPostPublished    = "Post has already been published"
	errQueueUnavailable = "Scheduling service is temporarily unavailable, try again shortly"
	errCancelFailed     = "Could not cancel the scheduled post; it may already be publishing"
)
