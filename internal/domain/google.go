package domain

import (
	"context"
	"time"
)

// AuthorizationURL is the outcome of starting a consent flow. The caller
// drives the browser; this core only constructs the URL.
type AuthorizationURL struct {
	URL   string `json:"auth_url"`
	State string `json:"state"`
}

// OAuthManager covers the consent side of the token lifecycle.
type OAuthManager interface {
	BuildAuthorizationURL(ctx context.Context, accountID string) (AuthorizationURL, error)
	ExchangeCode(ctx context.Context, accountID, code, state string) error
	Disconnect(ctx context.Context, accountID string) error
}

// TokenState is what the refresh endpoint reports back to the caller.
type TokenState struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Refreshed   bool      `json:"refreshed"`
}

// TokenManager guarantees valid access tokens for provider calls. Refreshes
// for the same account are coalesced to a single in-flight provider call.
type TokenManager interface {
	// AccessToken returns a token valid for at least the look-ahead window,
	// refreshing it first when needed.
	AccessToken(ctx context.Context, accountID string) (string, error)

	// RefreshAccessToken refreshes unconditionally, bypassing the look-ahead.
	RefreshAccessToken(ctx context.Context, accountID string) (string, error)

	// EnsureFreshToken is AccessToken plus reporting, for the HTTP surface.
	EnsureFreshToken(ctx context.Context, accountID string) (TokenState, error)
}

// SyncResult summarizes one review sync run.
type SyncResult struct {
	ReviewsFound  int `json:"reviews_found"`
	ReviewsStored int `json:"reviews_stored"`
}

// ReviewManager covers business selection and the review sync/reply flows.
type ReviewManager interface {
	ListBusinesses(ctx context.Context, accountID string) ([]Business, error)
	SelectBusiness(ctx context.Context, accountID, externalID, displayName string) error
	ListStoredReviews(ctx context.Context, accountID string) ([]Review, error)
	SyncReviews(ctx context.Context, accountID string) (SyncResult, error)
	ReplyToReview(ctx context.Context, accountID, reviewID, replyText string) error
}
