package config

import "strings"

type OAuthConfig interface {
	GetIssuerURL() string
	GetClientID() string
	GetRedirectURL() string
	GetScopes() []string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

// GetIssuerURL returns the OIDC issuer used for discovery
// (e.g. "https://accounts.google.com" or a Supabase auth URL).
func (OAuth) GetIssuerURL() string {
	return GetEnv("OAUTH_ISSUER_URL", "https://accounts.google.com")
}

func (OAuth) GetClientID() string {
	return GetEnv("OAUTH_CLIENT_ID", "")
}

// GetRedirectURL is the callback the provider redirects to with the
// authorization result in the URL fragment.
func (OAuth) GetRedirectURL() string {
	return GetEnv("OAUTH_REDIRECT_URL", "http://localhost:3000/auth/callback")
}

func (OAuth) GetScopes() []string {
	scopes := GetEnv("OAUTH_SCOPES", "openid profile email")
	return strings.Fields(scopes)
}
