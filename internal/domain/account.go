package domain

import (
	"errors"
	"time"
)

var ErrAccountNotFound = errors.New("publishing account not found")

// SocialAccount is a connected publishing account on the target platform.
// Token issuance and refresh happen in the account-connection flow, outside
// this service; we only read credentials at fire time.
type SocialAccount struct {
	ID       string
	UserID   string
	Platform string
	Handle   string

	AccessToken    string
	TokenExpiresAt *time.Time // nil = non-expiring

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CredentialsUsable reports whether the account can publish right now.
func (a *SocialAccount) CredentialsUsable(now time.Time) bool {
	if a.AccessToken == "" {
		return false
	}
	if a.TokenExpiresAt != nil && !a.TokenExpiresAt.After(now) {
		return false
	}
	return true
}
