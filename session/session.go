package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// ExpiryBuffer is subtracted from the token expiry when deciding whether a
// session is still usable, so a token is refreshed shortly before it
// actually expires rather than shortly after.
const ExpiryBuffer = 60 * time.Second

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Session is the authenticated credential held by the client: the
// access/refresh token pair and its expiry. At most one Session is current
// at any time; it is owned by the session manager and mirrored into the
// persistent store so it survives restarts.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in,omitempty"` // relative seconds, as delivered by the provider
	ExpiresAt    int64  `json:"expires_at"`           // absolute unix seconds
	TokenType    string `json:"token_type"`
	User         any    `json:"user"` // always null on disk; the profile is fetched from the backend
}

// Valid reports whether the session carries an access token at all.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != ""
}

// Expired reports whether the access token is past (or within ExpiryBuffer
// of) its expiry. A session with no recorded expiry is treated as live.
func (s *Session) Expired() bool {
	if s == nil || s.ExpiresAt == 0 {
		return false
	}
	expiry := time.Unix(s.ExpiresAt, 0)
	return NowTimeFunc().After(expiry.Add(-ExpiryBuffer))
}

// Expiry returns the absolute expiry time of the access token.
func (s *Session) Expiry() time.Time {
	return time.Unix(s.ExpiresAt, 0)
}

// Subject extracts the subject id (the user's identity at the provider)
// from the access token's claims. The token is parsed without signature
// verification - the backend is the party that verifies it; the client only
// needs the identity for the profile fast path.
func (s *Session) Subject() (string, error) {
	if !s.Valid() {
		return "", errors.New("[Session.Subject] no access token")
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(s.AccessToken, claims); err != nil {
		return "", errors.Wrap(err, "[Session.Subject] parse access token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("[Session.Subject] access token has no subject claim")
	}
	return sub, nil
}

// Redacted returns a copy safe for logging: token values are masked, only
// their presence and the expiry survive.
func (s *Session) Redacted() map[string]any {
	if s == nil {
		return nil
	}
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		return "[redacted]"
	}
	return map[string]any{
		"access_token":  mask(s.AccessToken),
		"refresh_token": mask(s.RefreshToken),
		"token_type":    s.TokenType,
		"expires_at":    s.ExpiresAt,
	}
}
