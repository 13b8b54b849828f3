package usecase

import (
	"time"
	"unicode/utf8"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
)

// ValidateSchedule checks the user-supplied parts of a schedule request.
// Pure: no I/O, no clock reads; now is passed in so boundaries are testable.
func ValidateSchedule(content string, scheduledAt time.Time, mediaRefs []string, now time.Time) error {
	if n := utf8.RuneCountInString(content); n < 1 || n > domain.MaxContentLen {
		return domain.ErrContentInvalid
	}
	if scheduledAt.Before(now.Add(domain.MinLeadTime)) {
		return domain.ErrScheduleTooSoon
	}
	if scheduledAt.After(now.Add(domain.MaxLeadTime)) {
		return domain.ErrScheduleTooFar
	}
	if len(mediaRefs) > domain.MaxMediaRefs {
		return domain.ErrTooManyMedia
	}
	return nil
}
