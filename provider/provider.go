// Package provider abstracts the third-party OAuth provider the client
// authenticates against. The session manager talks only to the Provider
// interface; tests drive it with the scripted fake in providerfakes.
package provider

import (
	"context"
	"errors"

	"github.com/debtwise/go-debtwise-client/session"
)

// EventType identifies an asynchronous auth event emitted by the provider,
// outside of any call the client made.
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventUserUpdated    EventType = "USER_UPDATED"
)

// AuthEvent pairs an event with the session the provider reports at that
// moment. Session is nil for SIGNED_OUT.
type AuthEvent struct {
	Event   EventType
	Session *session.Session
}

// Handler receives provider events. The session manager registers exactly
// one handler for the lifetime of the application.
type Handler func(ctx context.Context, event AuthEvent)

// ErrAcquireLock is returned when the provider cancelled an operation
// internally (lock contention between concurrent calls into its SDK).
// Callers must treat it as a no-op, never as "no session": propagating it
// as a sign-out would spuriously log the user out over a transient
// concurrency error.
var ErrAcquireLock = errors.New("provider: could not acquire session lock")

// Provider is the surface of the OAuth provider SDK the client consumes.
type Provider interface {
	// GetSession returns the provider's current session, or (nil, nil)
	// when it genuinely has none.
	GetSession(ctx context.Context) (*session.Session, error)

	// RefreshSession exchanges the refresh token for a new session.
	RefreshSession(ctx context.Context) (*session.Session, error)

	// SignOut invalidates the provider-side session.
	SignOut(ctx context.Context) error

	// AuthorizeURL builds the redirect URL that starts the sign-in flow.
	// The provider delivers the result in the redirect's URL fragment.
	AuthorizeURL(state string) (string, error)

	// Subscribe registers the single event handler and returns an
	// unsubscribe function.
	Subscribe(handler Handler) (unsubscribe func())
}
