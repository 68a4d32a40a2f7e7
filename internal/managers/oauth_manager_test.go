package managers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/reviewpilot/reviewpilot/internal/domain"
	"github.com/reviewpilot/reviewpilot/internal/storage/memory"
	"github.com/reviewpilot/reviewpilot/pkg/clients/googlebusiness"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestSettings(tokenURL string) GoogleOAuthSettings {
	return GoogleOAuthSettings{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.example.com/oauth-callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.example.com/auth",
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func newTokenEndpoint(t *testing.T, wantCode string, response map[string]any) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		if wantCode != "" {
			assert.Equal(t, wantCode, r.FormValue("code"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
}

func TestBuildAuthorizationURL(t *testing.T) {
	transactions := memory.NewTransactionStore()

	manager := NewOAuthManager(OAuthManagerDependencies{
		Credentials:  memory.NewCredentialStore(),
		Transactions: transactions,
		Provider:     &fakeProvider{},
		OAuth:        newTestSettings("https://oauth.example.com/token"),
	})

	authorization, err := manager.BuildAuthorizationURL(context.Background(), "u1")
	require.NoError(t, err)
	require.NotEmpty(t, authorization.State)

	parsed, err := url.Parse(authorization.URL)
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "https://app.example.com/oauth-callback", query.Get("redirect_uri"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, authorization.State, query.Get("state"))
	assert.Equal(t, "offline", query.Get("access_type"))
	assert.Equal(t, "consent", query.Get("prompt"))
	assert.True(t, strings.Contains(query.Get("scope"), "business.manage"))
	assert.True(t, strings.Contains(query.Get("scope"), "openid"))

	// The transaction is live and bound to the account.
	tx, err := transactions.ConsumeTransaction(context.Background(), "u1", authorization.State)
	require.NoError(t, err)
	assert.Equal(t, "u1", tx.AccountID)
}

func TestBuildAuthorizationURL_Errors(t *testing.T) {
	tests := []struct {
		name      string
		accountID string
		settings  GoogleOAuthSettings
		wantErr   error
	}{
		{
			name:      "missing account",
			accountID: "",
			settings:  newTestSettings("https://oauth.example.com/token"),
			wantErr:   domain.ErrUnauthenticated,
		},
		{
			name:      "missing client id",
			accountID: "u1",
			settings:  GoogleOAuthSettings{},
			wantErr:   domain.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewOAuthManager(OAuthManagerDependencies{
				Credentials:  memory.NewCredentialStore(),
				Transactions: memory.NewTransactionStore(),
				Provider:     &fakeProvider{},
				OAuth:        tt.settings,
			})

			_, err := manager.BuildAuthorizationURL(context.Background(), tt.accountID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExchangeCode(t *testing.T) {
	server := newTokenEndpoint(t, "abc123", map[string]any{
		"access_token":  "AT1",
		"refresh_token": "RT1",
		"expires_in":    3600,
		"token_type":    "Bearer",
	})
	defer server.Close()

	credentials := memory.NewCredentialStore()
	transactions := memory.NewTransactionStore()

	provider := &fakeProvider{
		userInfoFn: func(ctx context.Context, accessToken string) (googlebusiness.UserInfo, error) {
			assert.Equal(t, "AT1", accessToken)

			return googlebusiness.UserInfo{Email: "owner@example.com", Name: "Owner"}, nil
		},
	}

	manager := NewOAuthManager(OAuthManagerDependencies{
		Credentials:  credentials,
		Transactions: transactions,
		Provider:     provider,
		OAuth:        newTestSettings(server.URL),
	})

	err := transactions.SaveTransaction(context.Background(), domain.AuthorizationTransaction{
		AccountID: "u1",
		State:     "s1",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, manager.ExchangeCode(context.Background(), "u1", "abc123", "s1"))

	credential, err := credentials.GetCredential(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "AT1", credential.AccessToken)
	assert.Equal(t, "RT1", credential.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), credential.AccessTokenExpiresAt, time.Minute)
	assert.Equal(t, "owner@example.com", credential.GoogleEmail)
	assert.Equal(t, "Owner", credential.GoogleName)

	// The transaction is single use; replaying the callback fails.
	err = manager.ExchangeCode(context.Background(), "u1", "abc123", "s1")
	assert.ErrorIs(t, err, domain.ErrStateMismatch)
}

func TestExchangeCode_StateValidation(t *testing.T) {
	transactions := memory.NewTransactionStore()

	manager := NewOAuthManager(OAuthManagerDependencies{
		Credentials:  memory.NewCredentialStore(),
		Transactions: transactions,
		Provider:     &fakeProvider{},
		OAuth:        newTestSettings("https://oauth.example.com/token"),
	})

	err := transactions.SaveTransaction(context.Background(), domain.AuthorizationTransaction{
		AccountID: "u1",
		State:     "s1",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	// A callback without state never reaches the provider.
	assert.ErrorIs(t, manager.ExchangeCode(context.Background(), "u1", "abc123", ""), domain.ErrStateMismatch)

	// Wrong state aborts, and consuming the transaction means the right
	// state no longer works either.
	assert.ErrorIs(t, manager.ExchangeCode(context.Background(), "u1", "abc123", "wrong"), domain.ErrStateMismatch)
	assert.ErrorIs(t, manager.ExchangeCode(context.Background(), "u1", "abc123", "s1"), domain.ErrStateMismatch)
}

func TestExchangeCode_ExpiredTransaction(t *testing.T) {
	now := time.Now()
	transactions := memory.NewTransactionStoreWithClock(func() time.Time { return now.Add(11 * time.Minute) })

	manager := NewOAuthManager(OAuthManagerDependencies{
		Credentials:  memory.NewCredentialStore(),
		Transactions: transactions,
		Provider:     &fakeProvider{},
		OAuth:        newTestSettings("https://oauth.example.com/token"),
	})

	err := transactions.SaveTransaction(context.Background(), domain.AuthorizationTransaction{
		AccountID: "u1",
		State:     "s1",
		CreatedAt: now,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, manager.ExchangeCode(context.Background(), "u1", "abc123", "s1"), domain.ErrStateMismatch)
}

func TestExchangeCode_ProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	credentials := memory.NewCredentialStore()
	transactions := memory.NewTransactionStore()

	manager := NewOAuthManager(OAuthManagerDependencies{
		Credentials:  credentials,
		Transactions: transactions,
		Provider:     &fakeProvider{},
		OAuth:        newTestSettings(server.URL),
	})

	err := transactions.SaveTransaction(context.Background(), domain.AuthorizationTransaction{
		AccountID: "u1",
		State:     "s1",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	err = manager.ExchangeCode(context.Background(), "u1", "bad-code", "s1")

	var exchangeErr *domain.TokenExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, http.StatusBadRequest, exchangeErr.StatusCode)

	// Nothing was written for the account.
	_, err = credentials.GetCredential(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestExchangeCode_EnrichmentFailureIsNotFatal(t *testing.T) {
	server := newTokenEndpoint(t, "", map[string]any{
		"access_token":  "AT1",
		"refresh_token": "RT1",
		"expires_in":    3600,
		"token_type":    "Bearer",
	})
	defer server.Close()

	credentials := memory.NewCredentialStore()
	transactions := memory.NewTransactionStore()

	manager := NewOAuthManager(OAuthManagerDependencies{
		Credentials:  credentials,
		Transactions: transactions,
		Provider:     &fakeProvider{}, // userinfo not implemented -> error
		OAuth:        newTestSettings(server.URL),
	})

	err := transactions.SaveTransaction(context.Background(), domain.AuthorizationTransaction{
		AccountID: "u1",
		State:     "s1",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, manager.ExchangeCode(context.Background(), "u1", "abc123", "s1"))

	credential, err := credentials.GetCredential(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "AT1", credential.AccessToken)
	assert.Empty(t, credential.GoogleEmail)
}

func TestDisconnect(t *testing.T) {
	credentials := memory.NewCredentialStore()

	manager := NewOAuthManager(OAuthManagerDependencies{
		Credentials:  credentials,
		Transactions: memory.NewTransactionStore(),
		Provider:     &fakeProvider{},
		OAuth:        newTestSettings("https://oauth.example.com/token"),
	})

	err := credentials.UpsertCredential(context.Background(), domain.AccountCredential{
		AccountID:            "u1",
		AccessToken:          "AT1",
		AccessTokenExpiresAt: time.Now().Add(time.Hour),
		SelectedBusinessID:   "accounts/1/locations/2",
	})
	require.NoError(t, err)

	require.NoError(t, manager.Disconnect(context.Background(), "u1"))

	// Disconnecting clears the business selection along with the tokens.
	_, err = credentials.GetCredential(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)

	// Disconnecting an absent credential is a no-op.
	assert.NoError(t, manager.Disconnect(context.Background(), "u1"))
}
