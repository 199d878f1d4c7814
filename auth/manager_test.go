package auth_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/debtwise/go-debtwise-client/auth"
	clienterrors "github.com/debtwise/go-debtwise-client/internal/errors"
	"github.com/debtwise/go-debtwise-client/provider"
	"github.com/debtwise/go-debtwise-client/provider/providerfakes"
	"github.com/debtwise/go-debtwise-client/rest"
	"github.com/debtwise/go-debtwise-client/session"
	"github.com/debtwise/go-debtwise-client/users"
)

// fakeProfileAPI scripts the backend's profile endpoint.
type fakeProfileAPI struct {
	lock    sync.Mutex
	profile *users.Profile
	err     error
	delay   time.Duration
	calls   int
}

func (f *fakeProfileAPI) Me(ctx context.Context) (*users.Profile, error) {
	f.lock.Lock()
	f.calls++
	profile, err, delay := f.profile, f.err, f.delay
	f.lock.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (f *fakeProfileAPI) callCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls
}

func (f *fakeProfileAPI) set(profile *users.Profile, err error) {
	f.lock.Lock()
	f.profile = profile
	f.err = err
	f.lock.Unlock()
}

type managerFixture struct {
	provider *providerfakes.FakeProvider
	profiles *fakeProfileAPI
	store    *session.Store
	manager  *auth.Manager
}

func setupManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	fixture := &managerFixture{
		provider: providerfakes.NewFakeProvider(),
		profiles: &fakeProfileAPI{},
		store:    session.NewStore(session.NewMemKV()),
	}
	manager, err := auth.NewManager(fixture.provider, fixture.profiles, fixture.store)
	require.NoError(t, err)
	t.Cleanup(manager.Close)
	fixture.manager = manager
	return fixture
}

func tokenForSubject(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"jti": uuid.New().String(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func sessionForSubject(t *testing.T, subject string) *session.Session {
	t.Helper()
	return &session.Session{
		AccessToken: tokenForSubject(t, subject),
		TokenType:   "bearer",
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}
}

func profileFor(subject string) *users.Profile {
	return &users.Profile{ID: subject, Email: subject + "@example.com", OnboardingCompleted: true}
}

func TestNewManagerValidatesDependencies(t *testing.T) {
	prov := providerfakes.NewFakeProvider()
	profiles := &fakeProfileAPI{}
	store := session.NewStore(session.NewMemKV())

	_, err := auth.NewManager(nil, profiles, store)
	require.Error(t, err)
	_, err = auth.NewManager(prov, nil, store)
	require.Error(t, err)
	_, err = auth.NewManager(prov, profiles, nil)
	require.Error(t, err)
}

func TestStartResolvesExistingSession(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.provider.Session = sessionForSubject(t, "user-1")
	fixture.profiles.set(profileFor("user-1"), nil)

	before := fixture.manager.Snapshot()
	require.Equal(t, auth.StateInitializing, before.State)
	require.True(t, before.Initializing)

	fixture.manager.Start(context.Background())

	snapshot := fixture.manager.Snapshot()
	require.Equal(t, auth.StateAuthenticated, snapshot.State)
	require.False(t, snapshot.Initializing)
	require.False(t, snapshot.Loading)
	require.Equal(t, "user-1", snapshot.Profile.ID)
	require.Equal(t, 1, fixture.profiles.callCount())
}

func TestStartWithoutSessionLandsAnonymous(t *testing.T) {
	fixture := setupManagerFixture(t)

	fixture.manager.Start(context.Background())

	snapshot := fixture.manager.Snapshot()
	require.Equal(t, auth.StateAnonymous, snapshot.State)
	require.False(t, snapshot.Initializing)
	require.Empty(t, snapshot.Err)
	require.Equal(t, 0, fixture.profiles.callCount())
}

func TestConcurrentRefreshFetchesProfileOnce(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.provider.Session = sessionForSubject(t, "user-1")
	fixture.profiles.set(profileFor("user-1"), nil)
	fixture.profiles.delay = 30 * time.Millisecond

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fixture.manager.RefreshSession(context.Background())
		}()
	}
	wg.Wait()

	require.Equal(t, 1, fixture.profiles.callCount())
	require.Equal(t, auth.StateAuthenticated, fixture.manager.Snapshot().State)
}

// gatedProfileAPI parks Me until released so tests can interleave other
// work while a fetch is in flight.
type gatedProfileAPI struct {
	lock    sync.Mutex
	profile *users.Profile
	calls   int
	entered chan struct{}
	release chan struct{}
}

func newGatedProfileAPI(profile *users.Profile) *gatedProfileAPI {
	return &gatedProfileAPI{
		profile: profile,
		entered: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
}

func (g *gatedProfileAPI) Me(ctx context.Context) (*users.Profile, error) {
	g.lock.Lock()
	g.calls++
	profile := g.profile
	g.lock.Unlock()
	g.entered <- struct{}{}
	<-g.release
	return profile, nil
}

func (g *gatedProfileAPI) callCount() int {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.calls
}

func TestEventDuringStartupFetchSharesProfileCall(t *testing.T) {
	prov := providerfakes.NewFakeProvider()
	profiles := newGatedProfileAPI(profileFor("user-1"))
	manager, err := auth.NewManager(prov, profiles, session.NewStore(session.NewMemKV()))
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	prov.Session = sessionForSubject(t, "user-1")
	rotated := sessionForSubject(t, "user-1")

	startDone := make(chan struct{})
	go func() {
		manager.Start(context.Background())
		close(startDone)
	}()
	<-profiles.entered

	// The startup fetch is parked; a refreshed-token event for the same
	// subject now arrives and must join it rather than fetch again.
	eventDone := make(chan struct{})
	go func() {
		prov.Emit(context.Background(), provider.AuthEvent{
			Event:   provider.EventTokenRefreshed,
			Session: rotated,
		})
		close(eventDone)
	}()
	time.Sleep(20 * time.Millisecond)
	close(profiles.release)
	<-startDone
	<-eventDone

	require.Equal(t, 1, profiles.callCount())
	snapshot := manager.Snapshot()
	require.Equal(t, auth.StateAuthenticated, snapshot.State)
	require.Equal(t, "user-1", snapshot.Profile.ID)
}

func TestTokenRefreshEventSkipsProfileFetch(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.provider.Session = sessionForSubject(t, "user-1")
	fixture.profiles.set(profileFor("user-1"), nil)
	fixture.manager.Start(context.Background())
	require.Equal(t, 1, fixture.profiles.callCount())

	rotated := sessionForSubject(t, "user-1")
	fixture.provider.Emit(context.Background(), provider.AuthEvent{
		Event:   provider.EventTokenRefreshed,
		Session: rotated,
	})

	snapshot := fixture.manager.Snapshot()
	require.Equal(t, auth.StateAuthenticated, snapshot.State)
	require.Equal(t, rotated.AccessToken, snapshot.Session.AccessToken)
	// Same identity, token material only: no second fetch.
	require.Equal(t, 1, fixture.profiles.callCount())
}

func TestIdentityChangeRefetchesProfile(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.provider.Session = sessionForSubject(t, "user-1")
	fixture.profiles.set(profileFor("user-1"), nil)
	fixture.manager.Start(context.Background())

	fixture.profiles.set(profileFor("user-2"), nil)
	fixture.provider.Emit(context.Background(), provider.AuthEvent{
		Event:   provider.EventSignedIn,
		Session: sessionForSubject(t, "user-2"),
	})

	snapshot := fixture.manager.Snapshot()
	require.Equal(t, auth.StateAuthenticated, snapshot.State)
	require.Equal(t, "user-2", snapshot.Profile.ID)
	require.Equal(t, 2, fixture.profiles.callCount())
}

func TestLockContentionIsNotSignOut(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.provider.Session = sessionForSubject(t, "user-1")
	fixture.profiles.set(profileFor("user-1"), nil)
	fixture.manager.Start(context.Background())

	fixture.provider.GetErr = provider.ErrAcquireLock
	fixture.manager.RefreshSession(context.Background())

	snapshot := fixture.manager.Snapshot()
	require.Equal(t, auth.StateAuthenticated, snapshot.State)
	require.NotNil(t, snapshot.Session)
	require.Empty(t, snapshot.Err)
}

func TestSignedOutEventClearsEverything(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.provider.Session = sessionForSubject(t, "user-1")
	fixture.profiles.set(profileFor("user-1"), nil)
	fixture.manager.Start(context.Background())

	fixture.provider.Emit(context.Background(), provider.AuthEvent{Event: provider.EventSignedOut})

	snapshot := fixture.manager.Snapshot()
	require.Equal(t, auth.StateAnonymous, snapshot.State)
	require.Nil(t, snapshot.Session)
	require.Nil(t, snapshot.Profile)
}

func TestUnauthorizedProfileForcesReauthentication(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.provider.Session = sessionForSubject(t, "user-1")
	fixture.profiles.set(nil, &rest.APIError{
		Kind:    rest.KindUnauthorized,
		Status:  http.StatusUnauthorized,
		Message: "Could not validate credentials",
	})

	fixture.manager.Start(context.Background())

	snapshot := fixture.manager.Snapshot()
	require.Equal(t, auth.StateAnonymous, snapshot.State)
	require.Nil(t, snapshot.Session)
	require.Equal(t, clienterrors.ErrSessionRefreshFailed.Error(), snapshot.Err)
}

func TestProfileOutageKeepsSession(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.provider.Session = sessionForSubject(t, "user-1")
	fixture.profiles.set(nil, errors.New("connection refused"))

	fixture.manager.Start(context.Background())

	snapshot := fixture.manager.Snapshot()
	require.Equal(t, auth.StateError, snapshot.State)
	require.NotNil(t, snapshot.Session)
	require.Contains(t, snapshot.Err, clienterrors.ErrProfileFetchFailed.Error())
}

func TestInitializingLatchesFalseOnce(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.manager.Start(context.Background())
	require.False(t, fixture.manager.Snapshot().Initializing)

	// Later sign-in/sign-out churn never resurrects the initializing flag.
	fixture.profiles.set(profileFor("user-1"), nil)
	fixture.provider.Emit(context.Background(), provider.AuthEvent{
		Event:   provider.EventSignedIn,
		Session: sessionForSubject(t, "user-1"),
	})
	require.False(t, fixture.manager.Snapshot().Initializing)

	fixture.provider.Emit(context.Background(), provider.AuthEvent{Event: provider.EventSignedOut})
	require.False(t, fixture.manager.Snapshot().Initializing)
}

func TestSignInWithGoogleKeepsLoadingOnRedirect(t *testing.T) {
	fixture := setupManagerFixture(t)
	var visited string
	manager, err := auth.NewManager(fixture.provider, fixture.profiles, fixture.store,
		auth.WithNavigator(func(url string) { visited = url }))
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	signInURL := manager.SignInWithGoogle(context.Background())
	require.NotEmpty(t, signInURL)
	require.Equal(t, signInURL, visited)
	// Control is leaving the app; the spinner stays up until the redirect.
	require.True(t, manager.Snapshot().Loading)
}

func TestSignInFailureClearsLoading(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.provider.SignInErr = errors.New("issuer unreachable")

	signInURL := fixture.manager.SignInWithGoogle(context.Background())
	require.Empty(t, signInURL)

	snapshot := fixture.manager.Snapshot()
	require.False(t, snapshot.Loading)
	require.Equal(t, auth.StateError, snapshot.State)
	require.Contains(t, snapshot.Err, clienterrors.ErrSignInFailed.Error())
}

func TestLogoutClearsStateDespiteProviderFailure(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.provider.Session = sessionForSubject(t, "user-1")
	fixture.profiles.set(profileFor("user-1"), nil)
	fixture.manager.Start(context.Background())
	require.NoError(t, fixture.store.Save(sessionForSubject(t, "user-1")))

	fixture.provider.SignOutErr = errors.New("revocation endpoint down")
	fixture.manager.Logout(context.Background())

	snapshot := fixture.manager.Snapshot()
	require.Equal(t, auth.StateAnonymous, snapshot.State)
	require.Nil(t, snapshot.Session)
	require.Nil(t, fixture.store.Load())
	require.Equal(t, 1, fixture.provider.SignOutCallCount())
}

func TestListenerObservesTransitions(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.provider.Session = sessionForSubject(t, "user-1")
	fixture.profiles.set(profileFor("user-1"), nil)

	var lock sync.Mutex
	var states []auth.State
	fixture.manager.SetListener(func(snapshot auth.Snapshot) {
		lock.Lock()
		states = append(states, snapshot.State)
		lock.Unlock()
	})

	fixture.manager.Start(context.Background())

	lock.Lock()
	defer lock.Unlock()
	require.NotEmpty(t, states)
	require.Equal(t, auth.StateAuthenticated, states[len(states)-1])
}
