package managers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reviewpilot/reviewpilot/internal/domain"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// refreshLookahead is how close to expiry a token may get before a call
	// refreshes it up front instead of risking a provider rejection.
	refreshLookahead = 5 * time.Minute

	refreshRetryBackoff = 500 * time.Millisecond
)

type tokenManager struct {
	credentials  domain.CredentialStore
	oauth        *oauth2.Config
	group        singleflight.Group
	lookahead    time.Duration
	retryBackoff time.Duration
	now          func() time.Time
}

type TokenManagerDependencies struct {
	Credentials domain.CredentialStore
	OAuth       GoogleOAuthSettings

	// Lookahead, RetryBackoff and Now override the defaults; tests use them.
	Lookahead    time.Duration
	RetryBackoff time.Duration
	Now          func() time.Time
}

func NewTokenManager(deps TokenManagerDependencies) domain.TokenManager {
	lookahead := deps.Lookahead
	if lookahead == 0 {
		lookahead = refreshLookahead
	}

	retryBackoff := deps.RetryBackoff
	if retryBackoff == 0 {
		retryBackoff = refreshRetryBackoff
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &tokenManager{
		credentials:  deps.Credentials,
		oauth:        deps.OAuth.oauthConfig(),
		lookahead:    lookahead,
		retryBackoff: retryBackoff,
		now:          now,
	}
}

func (m *tokenManager) AccessToken(ctx context.Context, accountID string) (string, error) {
	state, err := m.ensureFresh(ctx, accountID, false)
	if err != nil {
		return "", err
	}

	return state.AccessToken, nil
}

func (m *tokenManager) RefreshAccessToken(ctx context.Context, accountID string) (string, error) {
	state, err := m.ensureFresh(ctx, accountID, true)
	if err != nil {
		return "", err
	}

	return state.AccessToken, nil
}

func (m *tokenManager) EnsureFreshToken(ctx context.Context, accountID string) (domain.TokenState, error) {
	return m.ensureFresh(ctx, accountID, false)
}

func (m *tokenManager) ensureFresh(ctx context.Context, accountID string, force bool) (domain.TokenState, error) {
	if accountID == "" {
		return domain.TokenState{}, domain.ErrUnauthenticated
	}

	credential, err := m.credentials.GetCredential(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return domain.TokenState{}, domain.ErrNotConnected
		}

		return domain.TokenState{}, fmt.Errorf("failed to load credential: %w", err)
	}

	if !credential.Connected() {
		return domain.TokenState{}, domain.ErrNotConnected
	}

	if !force && !credential.NeedsRefresh(m.now(), m.lookahead) {
		return domain.TokenState{
			AccessToken: credential.AccessToken,
			ExpiresAt:   credential.AccessTokenExpiresAt,
		}, nil
	}

	if credential.RefreshToken == "" {
		return domain.TokenState{}, domain.ErrReauthorizationRequired
	}

	token, err := m.refresh(ctx, accountID, credential.RefreshToken)
	if err != nil {
		return domain.TokenState{}, err
	}

	return domain.TokenState{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.Expiry,
		Refreshed:   true,
	}, nil
}

// refresh coalesces concurrent refreshes for one account into a single
// provider call; every waiter receives that call's result. The flight is
// released as soon as the refresh settles.
func (m *tokenManager) refresh(ctx context.Context, accountID, refreshToken string) (*oauth2.Token, error) {
	result, err, _ := m.group.Do(accountID, func() (any, error) {
		token, err := m.fetchToken(ctx, refreshToken)
		if err != nil {
			// A transient failure and a revoked grant look the same from
			// here, so allow one retry after a short backoff before
			// surfacing the error as "reconnect required".
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(m.retryBackoff):
			}

			token, err = m.fetchToken(ctx, refreshToken)
			if err != nil {
				log.Warn().Err(err).Str("account_id", accountID).Msg("Token refresh failed after retry")

				return nil, err
			}
		}

		// Written only after the full provider response is parsed; a
		// timed-out refresh never leaves the store partially updated.
		if err := m.credentials.UpdateTokens(ctx, accountID, token.AccessToken, token.RefreshToken, token.Expiry); err != nil {
			return nil, fmt.Errorf("failed to store refreshed token: %w", err)
		}

		log.Debug().Str("account_id", accountID).Time("expires_at", token.Expiry).Msg("Access token refreshed")

		return token, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*oauth2.Token), nil
}

func (m *tokenManager) fetchToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := m.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := source.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, &domain.TokenRefreshError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       string(retrieveErr.Body),
			}
		}

		return nil, &domain.TokenRefreshError{Body: err.Error()}
	}

	return token, nil
}
