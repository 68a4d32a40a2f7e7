package managers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reviewpilot/reviewpilot/internal/domain"
	"github.com/reviewpilot/reviewpilot/pkg/clients/googlebusiness"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

type oauthManager struct {
	credentials  domain.CredentialStore
	transactions domain.AuthorizationTransactionStore
	provider     googlebusiness.ClientInterface
	settings     GoogleOAuthSettings
	oauth        *oauth2.Config
	now          func() time.Time
}

type OAuthManagerDependencies struct {
	Credentials  domain.CredentialStore
	Transactions domain.AuthorizationTransactionStore
	Provider     googlebusiness.ClientInterface
	OAuth        GoogleOAuthSettings
	Now          func() time.Time
}

func NewOAuthManager(deps OAuthManagerDependencies) domain.OAuthManager {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &oauthManager{
		credentials:  deps.Credentials,
		transactions: deps.Transactions,
		provider:     deps.Provider,
		settings:     deps.OAuth,
		oauth:        deps.OAuth.oauthConfig(),
		now:          now,
	}
}

// BuildAuthorizationURL starts a consent flow: it persists a single-use
// authorization transaction and returns the provider consent URL. It never
// redirects; the caller owns the browser side.
func (m *oauthManager) BuildAuthorizationURL(ctx context.Context, accountID string) (domain.AuthorizationURL, error) {
	if accountID == "" {
		return domain.AuthorizationURL{}, domain.ErrUnauthenticated
	}

	if m.settings.ClientID == "" {
		return domain.AuthorizationURL{}, domain.ErrConfiguration
	}

	state := uuid.NewString()

	tx := domain.AuthorizationTransaction{
		AccountID: accountID,
		State:     state,
		CreatedAt: m.now(),
	}

	if err := m.transactions.SaveTransaction(ctx, tx); err != nil {
		return domain.AuthorizationURL{}, fmt.Errorf("failed to save authorization transaction: %w", err)
	}

	url := m.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	log.Info().Str("account_id", accountID).Msg("Built Google authorization URL")

	return domain.AuthorizationURL{URL: url, State: state}, nil
}

// ExchangeCode consumes the pending authorization transaction and exchanges
// the one-time code for a token pair. State validation is mandatory; a
// missing or already-consumed transaction aborts the flow.
func (m *oauthManager) ExchangeCode(ctx context.Context, accountID, code, state string) error {
	if accountID == "" {
		return domain.ErrUnauthenticated
	}

	if m.settings.ClientID == "" || m.settings.ClientSecret == "" {
		return domain.ErrConfiguration
	}

	if code == "" {
		return errors.New("authorization code is required")
	}

	if state == "" {
		return domain.ErrStateMismatch
	}

	if _, err := m.transactions.ConsumeTransaction(ctx, accountID, state); err != nil {
		return err
	}

	token, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return &domain.TokenExchangeError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       string(retrieveErr.Body),
			}
		}

		return &domain.TokenExchangeError{Body: err.Error()}
	}

	credential, err := m.credentials.GetCredential(ctx, accountID)
	if err != nil && !errors.Is(err, domain.ErrCredentialNotFound) {
		return fmt.Errorf("failed to load credential: %w", err)
	}

	credential.AccountID = accountID
	credential.AccessToken = token.AccessToken
	credential.AccessTokenExpiresAt = token.Expiry
	credential.UpdatedAt = m.now()
	if token.RefreshToken != "" {
		credential.RefreshToken = token.RefreshToken
	}

	if err := m.credentials.UpsertCredential(ctx, credential); err != nil {
		return fmt.Errorf("failed to store oauth tokens: %w", err)
	}

	log.Info().Str("account_id", accountID).Time("expires_at", token.Expiry).Msg("Google tokens stored")

	m.enrichCredential(ctx, credential, token.AccessToken)

	return nil
}

// enrichCredential labels the connection with the Google account's email and
// display name. Failures are logged, never propagated; the tokens are
// already safely stored.
func (m *oauthManager) enrichCredential(ctx context.Context, credential domain.AccountCredential, accessToken string) {
	info, err := m.provider.GetUserInfo(ctx, accessToken)
	if err != nil {
		log.Warn().Err(err).Str("account_id", credential.AccountID).Msg("Failed to fetch Google user info")

		return
	}

	credential.GoogleEmail = info.Email
	credential.GoogleName = info.Name

	if err := m.credentials.UpsertCredential(ctx, credential); err != nil {
		log.Warn().Err(err).Str("account_id", credential.AccountID).Msg("Failed to store Google user info")
	}
}

// Disconnect removes the stored credential. The store clears the business
// selection together with the tokens.
func (m *oauthManager) Disconnect(ctx context.Context, accountID string) error {
	if accountID == "" {
		return domain.ErrUnauthenticated
	}

	if err := m.credentials.DeleteCredential(ctx, accountID); err != nil && !errors.Is(err, domain.ErrCredentialNotFound) {
		return fmt.Errorf("failed to disconnect account: %w", err)
	}

	log.Info().Str("account_id", accountID).Msg("Google account disconnected")

	return nil
}
