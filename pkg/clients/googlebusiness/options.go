package googlebusiness

import (
	"net/http"
	"time"
)

// ClientOption represents an option for configuring the Google Business client
type ClientOption func(*ClientConfig)

// ClientConfig holds the configuration for the Google Business client.
//
// The provider exposes the same resource class across two endpoint-version
// families; both base URLs are configurable so the fallback path can be
// pointed at test servers.
type ClientConfig struct {
	AccountManagementBaseURL   string
	BusinessInformationBaseURL string
	LegacyBaseURL              string
	UserInfoURL                string
	Timeout                    time.Duration
	HTTPClient                 *http.Client
	UserAgent                  string
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		AccountManagementBaseURL:   "https://mybusinessaccountmanagement.googleapis.com/v1",
		BusinessInformationBaseURL: "https://mybusinessbusinessinformation.googleapis.com/v1",
		LegacyBaseURL:              "https://mybusiness.googleapis.com/v4",
		UserInfoURL:                "https://www.googleapis.com/oauth2/v2/userinfo",
		Timeout:                    30 * time.Second,
		UserAgent:                  "reviewpilot/1.0",
	}
}

// WithAccountManagementBaseURL sets the account management API base URL
func WithAccountManagementBaseURL(baseURL string) ClientOption {
	return func(c *ClientConfig) {
		c.AccountManagementBaseURL = baseURL
	}
}

// WithBusinessInformationBaseURL sets the business information API base URL
func WithBusinessInformationBaseURL(baseURL string) ClientOption {
	return func(c *ClientConfig) {
		c.BusinessInformationBaseURL = baseURL
	}
}

// WithLegacyBaseURL sets the legacy v4 API base URL
func WithLegacyBaseURL(baseURL string) ClientOption {
	return func(c *ClientConfig) {
		c.LegacyBaseURL = baseURL
	}
}

// WithUserInfoURL sets the userinfo endpoint URL
func WithUserInfoURL(url string) ClientOption {
	return func(c *ClientConfig) {
		c.UserInfoURL = url
	}
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *ClientConfig) {
		c.HTTPClient = httpClient
	}
}

// WithUserAgent sets a custom user agent
func WithUserAgent(userAgent string) ClientOption {
	return func(c *ClientConfig) {
		c.UserAgent = userAgent
	}
}
