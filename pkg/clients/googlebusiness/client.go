package googlebusiness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// TokenProvider supplies valid access tokens for provider calls. The client
// never persists tokens itself; refresh side effects belong to the provider
// implementation.
type TokenProvider interface {
	// AccessToken returns a token expected to outlive the call, refreshing
	// a near-expiry token first.
	AccessToken(ctx context.Context, accountID string) (string, error)

	// RefreshAccessToken refreshes unconditionally. The client calls it once
	// when the provider rejects a token the look-ahead considered valid.
	RefreshAccessToken(ctx context.Context, accountID string) (string, error)
}

// ClientInterface defines the operations the review integration needs from
// the Google Business Profile APIs.
type ClientInterface interface {
	ListAccounts(ctx context.Context, accountID string) ([]Account, error)
	ListLocations(ctx context.Context, accountID, accountName string) ([]Location, error)
	ListReviews(ctx context.Context, accountID, businessID string) ([]Review, error)
	ReplyToReview(ctx context.Context, accountID, businessReviewID, comment string) error
	GetUserInfo(ctx context.Context, accessToken string) (UserInfo, error)
}

// Client calls the Google Business Profile resource APIs with a
// guaranteed-valid bearer token, retrying once on authorization failures and
// falling back once between endpoint-version families on other failures.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	tokens     TokenProvider
}

// NewClient creates a new Google Business client with the given options
func NewClient(tokens TokenProvider, options ...ClientOption) *Client {
	config := DefaultConfig()

	for _, option := range options {
		option(config)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		tokens:     tokens,
	}
}

// ListAccounts enumerates the business accounts visible to the credential.
func (c *Client) ListAccounts(ctx context.Context, accountID string) ([]Account, error) {
	url := c.config.AccountManagementBaseURL + "/accounts"

	data, err := c.do(ctx, accountID, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list business accounts: %w", err)
	}

	var result listAccountsResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode accounts response: %w", err)
	}

	return result.Accounts, nil
}

// ListLocations enumerates the locations under one business account.
// accountName is the provider resource name, e.g. "accounts/123".
func (c *Client) ListLocations(ctx context.Context, accountID, accountName string) ([]Location, error) {
	url := fmt.Sprintf("%s/%s/locations", c.config.BusinessInformationBaseURL, accountName)

	data, err := c.do(ctx, accountID, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations for %s: %w", accountName, err)
	}

	var result listLocationsResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode locations response: %w", err)
	}

	return result.Locations, nil
}

// ListReviews fetches the review collection for a business. The legacy v4
// endpoint is primary because only it returns the reply-capable review
// resource names; the newer family is the documented fallback.
func (c *Client) ListReviews(ctx context.Context, accountID, businessID string) ([]Review, error) {
	primary := fmt.Sprintf("%s/%s/reviews", c.config.LegacyBaseURL, businessID)
	fallback := fmt.Sprintf("%s/%s/reviews", c.config.BusinessInformationBaseURL, businessID)

	data, err := c.doWithFallback(ctx, accountID, http.MethodGet, primary, fallback, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reviews for %s: %w", businessID, err)
	}

	var result listReviewsResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode reviews response: %w", err)
	}

	return result.Reviews, nil
}

// ReplyToReview publishes the owner's reply on a review.
// businessReviewID must be the reply-capable review resource name.
func (c *Client) ReplyToReview(ctx context.Context, accountID, businessReviewID, comment string) error {
	primary := fmt.Sprintf("%s/%s/reply", c.config.BusinessInformationBaseURL, businessReviewID)
	fallback := fmt.Sprintf("%s/%s/reply", c.config.LegacyBaseURL, businessReviewID)

	body := replyRequest{Comment: comment}

	if _, err := c.doWithFallback(ctx, accountID, http.MethodPut, primary, fallback, body); err != nil {
		return fmt.Errorf("failed to send reply for %s: %w", businessReviewID, err)
	}

	return nil
}

// GetUserInfo fetches the OpenID userinfo for a freshly issued token. It
// takes the raw token because it runs during code exchange, before a
// credential exists for the account.
func (c *Client) GetUserInfo(ctx context.Context, accessToken string) (UserInfo, error) {
	data, err := c.roundTrip(ctx, http.MethodGet, c.config.UserInfoURL, accessToken, nil)
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to fetch userinfo: %w", err)
	}

	var info UserInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return UserInfo{}, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	return info, nil
}

// do performs one authenticated call. A 401/403 triggers exactly one forced
// refresh and retry; retrying more would loop forever on a revoked grant.
func (c *Client) do(ctx context.Context, accountID, method, url string, body any) ([]byte, error) {
	token, err := c.tokens.AccessToken(ctx, accountID)
	if err != nil {
		return nil, err
	}

	data, err := c.roundTrip(ctx, method, url, token, body)

	var callErr *CallError
	if errors.As(err, &callErr) && isAuthStatus(callErr.StatusCode) {
		log.Warn().
			Str("account_id", accountID).
			Int("status", callErr.StatusCode).
			Str("endpoint", url).
			Msg("Provider rejected access token, refreshing and retrying once")

		token, err = c.tokens.RefreshAccessToken(ctx, accountID)
		if err != nil {
			return nil, err
		}

		data, err = c.roundTrip(ctx, method, url, token, body)
	}

	return data, err
}

// doWithFallback retries a non-authorization failure once against the
// alternate endpoint family. Authorization and token-lifecycle errors are
// surfaced as-is; the fallback cannot help those.
func (c *Client) doWithFallback(ctx context.Context, accountID, method, primary, fallback string, body any) ([]byte, error) {
	data, err := c.do(ctx, accountID, method, primary, body)
	if err == nil {
		return data, nil
	}

	var primaryErr *CallError
	if !errors.As(err, &primaryErr) || isAuthStatus(primaryErr.StatusCode) {
		return nil, err
	}

	log.Warn().
		Str("account_id", accountID).
		Int("status", primaryErr.StatusCode).
		Str("endpoint", primary).
		Msg("Primary endpoint failed, trying alternate API version")

	data, err = c.do(ctx, accountID, method, fallback, body)
	if err == nil {
		return data, nil
	}

	var fallbackErr *CallError
	if !errors.As(err, &fallbackErr) {
		return nil, err
	}

	return nil, &ProviderAPIError{Primary: primaryErr, Fallback: fallbackErr}
}

// roundTrip performs a single HTTP request with the given bearer token.
// Non-2xx responses and transport failures both come back as *CallError so
// the fallback logic can treat them uniformly.
func (c *Client) roundTrip(ctx context.Context, method, url, accessToken string, body any) ([]byte, error) {
	var requestBody io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		requestBody = bytes.NewBuffer(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, &CallError{Endpoint: url, Body: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &CallError{
			Endpoint:   url,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	return data, nil
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
