package managers

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultScopes is the fixed scope set the integration requests. Both
// business-management scopes are needed because the two resource-API
// families recognize different ones.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/business.manage",
	"https://www.googleapis.com/auth/plus.business.manage",
	"openid",
	"email",
	"profile",
}

// GoogleOAuthSettings carries the externally supplied OAuth configuration.
// Endpoint and Scopes default to the Google endpoint and DefaultScopes; tests
// point Endpoint at a local server.
type GoogleOAuthSettings struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Endpoint     oauth2.Endpoint
	Scopes       []string
}

func (s GoogleOAuthSettings) oauthConfig() *oauth2.Config {
	endpoint := s.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}

	scopes := s.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &oauth2.Config{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		RedirectURL:  s.RedirectURI,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}
