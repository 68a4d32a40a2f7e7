package domain

import (
	"context"
	"time"
)

// AccountCredential holds one user's OAuth token set for the Google Business
// Profile connection, plus the business selection scoped to it.
type AccountCredential struct {
	AccountID            string
	AccessToken          string
	RefreshToken         string
	AccessTokenExpiresAt time.Time
	SelectedBusinessID   string
	SelectedBusinessName string
	GoogleEmail          string
	GoogleName           string
	LastSyncedAt         *time.Time
	UpdatedAt            time.Time
}

// Connected reports whether the credential can be used for provider calls.
// A credential without an access token is disconnected.
func (c AccountCredential) Connected() bool {
	return c.AccessToken != ""
}

// NeedsRefresh reports whether the access token expires within the
// look-ahead window.
func (c AccountCredential) NeedsRefresh(now time.Time, lookahead time.Duration) bool {
	return !c.AccessTokenExpiresAt.After(now.Add(lookahead))
}

type CredentialStore interface {
	GetCredential(ctx context.Context, accountID string) (AccountCredential, error)
	UpsertCredential(ctx context.Context, credential AccountCredential) error

	// UpdateTokens is the single write path used by the token refresher. An
	// empty refreshToken leaves the stored refresh token untouched.
	UpdateTokens(ctx context.Context, accountID, accessToken, refreshToken string, expiresAt time.Time) error

	SetSelectedBusiness(ctx context.Context, accountID, businessID, businessName string) error
	SetLastSyncedAt(ctx context.Context, accountID string, syncedAt time.Time) error

	// DeleteCredential disconnects the account, clearing tokens and the
	// selected business together.
	DeleteCredential(ctx context.Context, accountID string) error
}
