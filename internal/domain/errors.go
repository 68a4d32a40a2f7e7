package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means the OAuth client credentials are not set.
	ErrConfiguration = errors.New("google oauth client not configured")

	// ErrUnauthenticated means no account identifier accompanied the request.
	ErrUnauthenticated = errors.New("no authenticated account")

	// ErrStateMismatch means the callback state did not match a live
	// authorization transaction. The consent flow must be restarted.
	ErrStateMismatch = errors.New("authorization state mismatch")

	// ErrReauthorizationRequired means the stored grant cannot be refreshed;
	// the account must go through the full consent flow again.
	ErrReauthorizationRequired = errors.New("reauthorization required")

	// ErrNotConnected means the account has no usable access token.
	ErrNotConnected = errors.New("google account not connected")

	// ErrNoBusinessSelected means a sync or reply was attempted before a
	// business location was chosen.
	ErrNoBusinessSelected = errors.New("no business selected")

	// ErrNotReplyCapable means the stored review carries no business reply
	// identifier, so the provider cannot accept a reply for it.
	ErrNotReplyCapable = errors.New("review has no business reply id")

	ErrCredentialNotFound = errors.New("credential not found")
	ErrReviewNotFound     = errors.New("review not found")
)

// TokenExchangeError is a provider rejection of an authorization code
// exchange. It is terminal for the flow; the caller must restart consent.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange rejected by provider (status %d): %s", e.StatusCode, e.Body)
}

// TokenRefreshError is a provider rejection of a refresh-token grant. A
// transient failure and a revoked grant are indistinguishable here, so the
// caller surfaces it as "reconnect required".
type TokenRefreshError struct {
	StatusCode int
	Body       string
}

func (e *TokenRefreshError) Error() string {
	return fmt.Sprintf("token refresh rejected by provider (status %d): %s", e.StatusCode, e.Body)
}
