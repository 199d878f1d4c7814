// Package auth owns the client-side authentication state machine: it
// mediates between the OAuth provider, the backend's profile endpoint, and
// the persistent session store, and exposes observable state to callers.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	clienterrors "github.com/debtwise/go-debtwise-client/internal/errors"
	"github.com/debtwise/go-debtwise-client/provider"
	"github.com/debtwise/go-debtwise-client/rest"
	"github.com/debtwise/go-debtwise-client/session"
	"github.com/debtwise/go-debtwise-client/users"
)

// DefaultProfileTTL bounds how long the subject fast path may serve a
// cached profile without revalidation.
const DefaultProfileTTL = 5 * time.Minute

// ProfileAPI is the slice of the backend the manager needs.
type ProfileAPI interface {
	Me(ctx context.Context) (*users.Profile, error)
}

// Manager is the session state machine. It is constructed once at
// application start and injected into whatever consumes auth state; there
// is deliberately no package-level singleton.
//
// Public operations never return errors: failures are captured in the
// observable snapshot's Err field so callers render an error state without
// wrapping every call.
type Manager struct {
	provider provider.Provider
	profiles ProfileAPI
	store    *session.Store
	cache    *ttlcache.Cache[string, *users.Profile]
	flight   singleflight.Group
	navigate func(url string)

	mu           sync.RWMutex
	state        State
	session      *session.Session
	profile      *users.Profile
	initializing bool
	loading      bool
	errMsg       string
	listener     Listener

	subscribeOnce sync.Once
	unsubscribe   func()
	initOnce      sync.Once
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithNavigator installs the hook invoked with the provider's sign-in URL.
func WithNavigator(fn func(url string)) ManagerOption {
	return func(m *Manager) { m.navigate = fn }
}

// WithProfileTTL overrides how long fast-path profiles stay cached.
func WithProfileTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.cache = newProfileCache(ttl)
		}
	}
}

func newProfileCache(ttl time.Duration) *ttlcache.Cache[string, *users.Profile] {
	return ttlcache.New(
		ttlcache.WithTTL[string, *users.Profile](ttl),
		ttlcache.WithDisableTouchOnHit[string, *users.Profile](),
	)
}

// NewManager wires the state machine. It starts in StateInitializing with
// Initializing=true; call Start to subscribe to provider events and run
// the first resolution.
func NewManager(prov provider.Provider, profiles ProfileAPI, store *session.Store, options ...ManagerOption) (*Manager, error) {
	if prov == nil {
		return nil, errors.New("[NewManager] provider is required")
	}
	if profiles == nil {
		return nil, errors.New("[NewManager] profile API is required")
	}
	if store == nil {
		return nil, errors.New("[NewManager] session store is required")
	}

	manager := &Manager{
		provider:     prov,
		profiles:     profiles,
		store:        store,
		cache:        newProfileCache(DefaultProfileTTL),
		state:        StateInitializing,
		initializing: true,
	}
	for _, opt := range options {
		opt(manager)
	}
	go manager.cache.Start()
	return manager, nil
}

// Start subscribes to the provider's event stream (once per lifetime) and
// performs the initial session resolution.
func (m *Manager) Start(ctx context.Context) {
	m.subscribeOnce.Do(func() {
		m.unsubscribe = m.provider.Subscribe(m.HandleAuthEvent)
	})
	m.RefreshSession(ctx)
}

// Close tears the manager down (tests create and destroy many of these).
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.cache.Stop()
}

// Snapshot returns the current observable state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		State:        m.state,
		Session:      m.session,
		Profile:      m.profile,
		Initializing: m.initializing,
		Loading:      m.loading,
		Err:          m.errMsg,
	}
}

// SetListener registers the observer notified after every state change.
func (m *Manager) SetListener(listener Listener) {
	m.mu.Lock()
	m.listener = listener
	m.mu.Unlock()
}

// RefreshSession resolves the provider's current session into local state.
// It is idempotent and safe to call concurrently: concurrent callers share
// one resolution (single-flight), and a resolution whose subject already
// matches the cached profile skips the profile fetch entirely. That skip
// rule is the primary concurrency guarantee - a refresh triggered by
// startup and one triggered by a provider event milliseconds later must
// not double-fetch the profile.
func (m *Manager) RefreshSession(ctx context.Context) {
	m.setLoading(true)
	defer m.setLoading(false)

	_, _, _ = m.flight.Do("refresh-session", func() (any, error) {
		m.resolveProviderSession(ctx)
		return nil, nil
	})

	m.finishInitializing()
}

func (m *Manager) resolveProviderSession(ctx context.Context) {
	sess, err := m.provider.GetSession(ctx)
	switch {
	case errors.Is(err, provider.ErrAcquireLock):
		// The provider cancelled internally (lock contention). This is
		// not "no session" - treating it as one would spuriously sign
		// the user out.
		log.Debug().Msg("Provider session call cancelled internally, ignoring")
		return
	case err != nil:
		m.recordError(err.Error())
		return
	case sess == nil:
		m.clearToAnonymous("")
		return
	}
	m.adoptSession(ctx, sess)
}

// HandleAuthEvent is the single handler for the provider's asynchronous
// event stream. Tests invoke it directly with synthetic events; all
// de-duplication lives here and in adoptSession.
func (m *Manager) HandleAuthEvent(ctx context.Context, event provider.AuthEvent) {
	log.Debug().Str("event", string(event.Event)).Msg("Auth event received")
	if event.Event == provider.EventSignedOut || event.Session == nil {
		m.clearToAnonymous("")
		return
	}
	m.adoptSession(ctx, event.Session)
}

// adoptSession installs a provider-reported session, fetching the profile
// only when the session's subject does not match the one already cached.
func (m *Manager) adoptSession(ctx context.Context, sess *session.Session) {
	subject, err := sess.Subject()
	if err != nil {
		log.Warn().Err(err).Msg("Session access token has no usable subject")
	}

	if subject != "" {
		if cached := m.cachedProfile(subject); cached != nil {
			// Fast path: same identity, token material only. No fetch.
			m.setAuthenticated(sess, cached)
			return
		}
	}

	// New or unknown identity: never show the previous identity's profile
	// while the fetch is in flight.
	m.invalidateMismatchedProfile(subject)

	profile, err := m.fetchProfile(ctx, subject)
	if err != nil {
		if rest.IsUnauthorized(err) {
			// The backend rejected the token even after the transport's
			// refresh-and-retry: fatal for this session.
			log.Warn().Err(err).Msg("Profile endpoint rejected session, forcing re-authentication")
			m.clearToAnonymous(clienterrors.ErrSessionRefreshFailed.Error())
			return
		}
		// Network or server failure: the user stays signed in at the
		// token level and the profile fetch is retried on the next
		// opportunity.
		m.keepSessionWithError(sess, errors.Wrap(err, clienterrors.ErrProfileFetchFailed.Error()).Error())
		return
	}

	m.cache.Set(profile.ID, profile, ttlcache.DefaultTTL)
	m.setAuthenticated(sess, profile)
}

// fetchProfile loads the profile, serialized per subject: a resolution and
// a provider event landing while its fetch is still in flight share one
// /auth/me call instead of issuing two for the same identity.
func (m *Manager) fetchProfile(ctx context.Context, subject string) (*users.Profile, error) {
	if subject == "" {
		return m.profiles.Me(ctx)
	}
	result, err, _ := m.flight.Do("profile:"+subject, func() (any, error) {
		return m.profiles.Me(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*users.Profile), nil
}

// AdoptResolved installs a session/profile pair produced by the callback
// resolver, which has already fetched the profile with the fresh token.
func (m *Manager) AdoptResolved(sess *session.Session, profile *users.Profile) {
	if profile != nil {
		m.cache.Set(profile.ID, profile, ttlcache.DefaultTTL)
	}
	m.setAuthenticated(sess, profile)
	m.finishInitializing()
}

// SignInWithGoogle initiates the provider redirect and returns the sign-in
// URL. Loading stays true on success because control is leaving the app;
// on failure to initiate it is cleared and the error surfaced.
func (m *Manager) SignInWithGoogle(ctx context.Context) string {
	m.setLoading(true)

	signInURL, err := m.provider.AuthorizeURL(uuid.New().String())
	if err != nil {
		m.setLoading(false)
		m.recordError(errors.Wrap(err, clienterrors.ErrSignInFailed.Error()).Error())
		return ""
	}
	if m.navigate != nil {
		m.navigate(signInURL)
	}
	return signInURL
}

// Logout signs out at the provider and unconditionally clears local state.
// A failed provider call changes nothing: sign-out is irreversible from
// the client's point of view.
func (m *Manager) Logout(ctx context.Context) {
	m.setLoading(true)
	defer m.setLoading(false)

	if err := m.provider.SignOut(ctx); err != nil {
		log.Warn().Err(err).Msg("Provider sign-out failed, clearing local session anyway")
	}
	if err := m.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("Failed to clear stored session")
	}
	m.clearToAnonymous("")
}

func (m *Manager) cachedProfile(subject string) *users.Profile {
	m.mu.RLock()
	current := m.profile
	m.mu.RUnlock()
	if current != nil && current.ID == subject {
		return current
	}
	if item := m.cache.Get(subject); item != nil {
		return item.Value()
	}
	return nil
}

func (m *Manager) invalidateMismatchedProfile(subject string) {
	m.mu.Lock()
	if m.profile != nil && m.profile.ID != subject {
		m.cache.Delete(m.profile.ID)
		m.profile = nil
	}
	m.mu.Unlock()
}

func (m *Manager) setAuthenticated(sess *session.Session, profile *users.Profile) {
	m.mu.Lock()
	m.session = sess
	if profile != nil {
		m.profile = profile
	}
	if m.session != nil && m.profile != nil {
		m.state = StateAuthenticated
	}
	m.errMsg = ""
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) keepSessionWithError(sess *session.Session, message string) {
	m.mu.Lock()
	m.session = sess
	m.state = StateError
	m.errMsg = message
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) clearToAnonymous(message string) {
	m.mu.Lock()
	m.session = nil
	m.profile = nil
	m.state = StateAnonymous
	m.errMsg = message
	m.mu.Unlock()
	m.cache.DeleteAll()
	m.notify()
}

func (m *Manager) recordError(message string) {
	m.mu.Lock()
	m.state = StateError
	m.errMsg = message
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) setLoading(loading bool) {
	m.mu.Lock()
	m.loading = loading
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) finishInitializing() {
	m.initOnce.Do(func() {
		m.mu.Lock()
		m.initializing = false
		if m.state == StateInitializing {
			m.state = StateAnonymous
		}
		m.mu.Unlock()
		m.notify()
	})
}

func (m *Manager) notify() {
	m.mu.RLock()
	listener := m.listener
	snapshot := Snapshot{
		State:        m.state,
		Session:      m.session,
		Profile:      m.profile,
		Initializing: m.initializing,
		Loading:      m.loading,
		Err:          m.errMsg,
	}
	m.mu.RUnlock()
	if listener != nil {
		listener(snapshot)
	}
}
