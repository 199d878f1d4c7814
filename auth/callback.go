package auth

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	clienterrors "github.com/debtwise/go-debtwise-client/internal/errors"
	"github.com/debtwise/go-debtwise-client/session"
	"github.com/debtwise/go-debtwise-client/users"
)

// Routes the resolver steers to after a successful callback.
const (
	RouteDashboard  = "/dashboard"
	RouteOnboarding = "/onboarding"
)

// defaultExpiresIn is assumed when the fragment omits expires_in.
const defaultExpiresIn = 3600

// IDTokenVerifier checks an ID token against the issuer's keys. Satisfied
// by provider.OIDCProvider; optional.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, rawIDToken string) error
}

// CallbackOutcome is what a resolved callback produced.
type CallbackOutcome struct {
	Session *session.Session
	Profile *users.Profile
	Route   string
}

// CallbackResolver performs the one-shot transition that happens when the
// provider redirects back with an authorization result in the URL
// fragment. Its side effects - the store write, the profile fetch, the
// fragment clear - run at most once per process even if the surrounding
// framework invokes Resolve repeatedly: the first caller claims the
// generation, later callers wait and observe the same outcome.
type CallbackResolver struct {
	store         *session.Store
	profiles      ProfileAPI
	manager       *Manager
	verifier      IDTokenVerifier
	clearFragment func()
	nowTime       func() time.Time

	generation atomic.Uint64
	done       chan struct{}
	outcome    *CallbackOutcome
	err        error
}

// ResolverOption configures a CallbackResolver.
type ResolverOption func(*CallbackResolver)

// WithManager lets the resolver install the resolved session and profile
// into the session state machine.
func WithManager(manager *Manager) ResolverOption {
	return func(r *CallbackResolver) { r.manager = manager }
}

// WithVerifier enables ID-token verification when the fragment carries one.
func WithVerifier(verifier IDTokenVerifier) ResolverOption {
	return func(r *CallbackResolver) { r.verifier = verifier }
}

// WithFragmentClearer installs the hook that removes the fragment from the
// visible URL, preventing replay on back-navigation or reload.
func WithFragmentClearer(fn func()) ResolverOption {
	return func(r *CallbackResolver) { r.clearFragment = fn }
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ResolverOption {
	return func(r *CallbackResolver) { r.nowTime = nowFunc }
}

func NewCallbackResolver(store *session.Store, profiles ProfileAPI, options ...ResolverOption) (*CallbackResolver, error) {
	if store == nil {
		return nil, errors.New("[NewCallbackResolver] session store is required")
	}
	if profiles == nil {
		return nil, errors.New("[NewCallbackResolver] profile API is required")
	}
	resolver := &CallbackResolver{
		store:    store,
		profiles: profiles,
		nowTime:  time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(resolver)
	}
	return resolver, nil
}

// ParseFragment extracts the session from a redirect URL fragment. The
// provider uses the implicit flow, so the result rides in the fragment,
// not the query string. A fragment without an access token fails with
// ErrAuthCallback and must cause no side effects.
func ParseFragment(fragment string) (*session.Session, error) {
	trimmed := strings.TrimPrefix(fragment, "#")
	values, err := url.ParseQuery(trimmed)
	if err != nil {
		return nil, errors.Wrap(clienterrors.ErrAuthCallback, err.Error())
	}
	accessToken := values.Get("access_token")
	if accessToken == "" {
		return nil, errors.Wrap(clienterrors.ErrAuthCallback, "fragment has no access_token")
	}

	expiresIn := int64(defaultExpiresIn)
	if raw := values.Get("expires_in"); raw != "" {
		parsed, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || parsed <= 0 {
			return nil, errors.Wrapf(clienterrors.ErrAuthCallback, "bad expires_in %q", raw)
		}
		expiresIn = parsed
	}

	tokenType := values.Get("token_type")
	if tokenType == "" {
		tokenType = "bearer"
	}

	return &session.Session{
		AccessToken:  accessToken,
		RefreshToken: values.Get("refresh_token"),
		ExpiresIn:    expiresIn,
		TokenType:    tokenType,
	}, nil
}

// Resolve runs the callback transition exactly once. Concurrent and later
// invocations receive the first run's outcome without repeating any side
// effect.
func (r *CallbackResolver) Resolve(ctx context.Context, fragment string) (*CallbackOutcome, error) {
	if !r.generation.CompareAndSwap(0, 1) {
		<-r.done
		return r.outcome, r.err
	}
	r.outcome, r.err = r.resolve(ctx, fragment)
	close(r.done)
	return r.outcome, r.err
}

func (r *CallbackResolver) resolve(ctx context.Context, fragment string) (*CallbackOutcome, error) {
	sess, err := ParseFragment(fragment)
	if err != nil {
		return nil, err
	}

	if r.verifier != nil {
		if rawIDToken := idTokenFromFragment(fragment); rawIDToken != "" {
			if verr := r.verifier.VerifyIDToken(ctx, rawIDToken); verr != nil {
				return nil, errors.Wrap(clienterrors.ErrAuthCallback, verr.Error())
			}
		}
	}

	// The redirect delivers a relative lifetime; anchor it now so every
	// later staleness check compares against an absolute instant.
	sess.ExpiresAt = r.nowTime().Unix() + sess.ExpiresIn

	// Persist before the profile call: the outgoing request's bearer
	// header is read from this same store.
	if err := r.store.Save(sess); err != nil {
		return nil, errors.Wrap(err, "[CallbackResolver.resolve] persist session")
	}

	// Drop the fragment from the visible URL immediately so a reload or
	// back-navigation cannot replay the tokens.
	if r.clearFragment != nil {
		r.clearFragment()
	}

	profile, err := r.profiles.Me(ctx)
	if err != nil {
		// The user may hold a perfectly valid token with only the
		// profile call having failed, so this is recoverable: the
		// caller shows a retry screen, never a silent redirect to the
		// public landing page.
		log.Warn().Err(err).Msg("Profile fetch after OAuth callback failed")
		return nil, errors.Wrap(clienterrors.ErrProfileFetchFailed, err.Error())
	}

	if r.manager != nil {
		r.manager.AdoptResolved(sess, profile)
	}

	route := RouteDashboard
	if !profile.OnboardingCompleted {
		route = RouteOnboarding
	}
	return &CallbackOutcome{Session: sess, Profile: profile, Route: route}, nil
}

func idTokenFromFragment(fragment string) string {
	values, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return ""
	}
	return values.Get("id_token")
}
