package auth

import (
	"github.com/debtwise/go-debtwise-client/session"
	"github.com/debtwise/go-debtwise-client/users"
)

// State is the lifecycle phase of the authentication session.
type State int

const (
	// StateAnonymous means no session and no user.
	StateAnonymous State = iota

	// StateInitializing means the very first session resolution is in
	// flight. It is entered at most once per process.
	StateInitializing

	// StateAuthenticated means both a session and a profile are present.
	StateAuthenticated

	// StateError means the last auth operation failed. A session may or
	// may not still be present; callers inspect the snapshot.
	StateError
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the manager's observable state. The UI
// renders from snapshots; it never owns the session or profile directly.
type Snapshot struct {
	State   State
	Session *session.Session
	Profile *users.Profile

	// Initializing is true only until the first session resolution
	// completes; it transitions true to false exactly once per process.
	Initializing bool

	// Loading is true while any auth-affecting operation is in flight;
	// it may toggle many times.
	Loading bool

	// Err is the last operation's user-visible error, empty when the
	// last operation succeeded.
	Err string
}

// Listener observes every state change.
type Listener func(Snapshot)
