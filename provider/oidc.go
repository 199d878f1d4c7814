package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/debtwise/go-debtwise-client/session"
)

// OIDCConfig configures the real provider implementation.
type OIDCConfig struct {
	IssuerURL   string
	ClientID    string
	RedirectURL string
	Scopes      []string
}

// OIDCProvider implements Provider against any OIDC-discoverable issuer.
// It keeps the provider-side session in the shared session store and
// serializes SDK operations with a try-lock: a caller that loses the lock
// gets ErrAcquireLock instead of blocking, mirroring how browser auth SDKs
// cancel contending calls.
type OIDCProvider struct {
	cfg      OIDCConfig
	oidc     *oidc.Provider
	verifier *oidc.IDTokenVerifier
	store    *session.Store

	opMu sync.Mutex // guards provider operations, TryLock only

	handlerMu sync.RWMutex
	handler   Handler
}

var _ Provider = (*OIDCProvider)(nil)

// NewOIDCProvider discovers the issuer's endpoints and returns a ready
// provider. The store is shared with the rest of the client so that the
// bearer transport reads the same record this provider writes.
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig, store *session.Store) (*OIDCProvider, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("[NewOIDCProvider] issuer URL is required")
	}
	if store == nil {
		return nil, errors.New("[NewOIDCProvider] session store is required")
	}
	discovered, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewOIDCProvider] issuer discovery")
	}
	return &OIDCProvider{
		cfg:      cfg,
		oidc:     discovered,
		verifier: discovered.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		store:    store,
	}, nil
}

// GetSession returns the stored session, refreshing it first when it is
// stale and a refresh token is available.
func (p *OIDCProvider) GetSession(ctx context.Context) (*session.Session, error) {
	if !p.opMu.TryLock() {
		return nil, ErrAcquireLock
	}
	defer p.opMu.Unlock()

	sess := p.store.Load()
	if sess == nil {
		return nil, nil
	}
	if sess.Expired() && sess.RefreshToken != "" {
		return p.refreshLocked(ctx, sess)
	}
	return sess, nil
}

// RefreshSession exchanges the stored refresh token for a new session and
// persists it.
func (p *OIDCProvider) RefreshSession(ctx context.Context) (*session.Session, error) {
	if !p.opMu.TryLock() {
		return nil, ErrAcquireLock
	}
	defer p.opMu.Unlock()

	sess := p.store.Load()
	if sess == nil || sess.RefreshToken == "" {
		return nil, errors.New("[OIDCProvider.RefreshSession] no refresh token available")
	}
	return p.refreshLocked(ctx, sess)
}

func (p *OIDCProvider) refreshLocked(ctx context.Context, current *session.Session) (*session.Session, error) {
	conf := p.oauthConfig()
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: current.RefreshToken}).Token()
	if err != nil {
		return nil, errors.Wrap(err, "[OIDCProvider.refresh] token endpoint")
	}

	refreshed := &session.Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    token.Expiry.Unix(),
	}
	if refreshed.RefreshToken == "" {
		// Providers that do not rotate refresh tokens omit them.
		refreshed.RefreshToken = current.RefreshToken
	}
	if err := p.store.Save(refreshed); err != nil {
		return nil, errors.Wrap(err, "[OIDCProvider.refresh] persist session")
	}

	p.emit(ctx, AuthEvent{Event: EventTokenRefreshed, Session: refreshed})
	return refreshed, nil
}

// SignOut revokes the refresh token best-effort and always clears the
// stored session. The local clear happens regardless of the network
// outcome: sign-out is irreversible from the client's point of view.
func (p *OIDCProvider) SignOut(ctx context.Context) error {
	if !p.opMu.TryLock() {
		return ErrAcquireLock
	}
	defer p.opMu.Unlock()

	sess := p.store.Load()
	revokeErr := p.revoke(ctx, sess)

	if err := p.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("Failed to clear stored session on sign-out")
	}
	p.emit(ctx, AuthEvent{Event: EventSignedOut})
	return revokeErr
}

func (p *OIDCProvider) revoke(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.RefreshToken == "" {
		return nil
	}
	var meta struct {
		RevocationEndpoint string `json:"revocation_endpoint"`
	}
	if err := p.oidc.Claims(&meta); err != nil || meta.RevocationEndpoint == "" {
		return nil
	}
	form := url.Values{
		"token":           {sess.RefreshToken},
		"token_type_hint": {"refresh_token"},
		"client_id":       {p.cfg.ClientID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, meta.RevocationEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "[OIDCProvider.SignOut] build revocation request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "[OIDCProvider.SignOut] revocation request")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return errors.Errorf("[OIDCProvider.SignOut] revocation returned %d", resp.StatusCode)
	}
	return nil
}

// AuthorizeURL builds the implicit-flow sign-in URL. The provider returns
// the token material in the redirect's URL fragment, which the callback
// resolver parses.
func (p *OIDCProvider) AuthorizeURL(state string) (string, error) {
	if p.cfg.ClientID == "" {
		return "", errors.New("[OIDCProvider.AuthorizeURL] client id not configured")
	}
	endpoint := p.oidc.Endpoint()
	authURL, err := url.Parse(endpoint.AuthURL)
	if err != nil {
		return "", errors.Wrap(err, "[OIDCProvider.AuthorizeURL] parse auth endpoint")
	}
	query := authURL.Query()
	query.Set("response_type", "token")
	query.Set("client_id", p.cfg.ClientID)
	query.Set("redirect_uri", p.cfg.RedirectURL)
	query.Set("scope", strings.Join(p.cfg.Scopes, " "))
	query.Set("state", state)
	authURL.RawQuery = query.Encode()
	return authURL.String(), nil
}

// VerifyIDToken checks an ID token's signature and claims against the
// issuer's keys. The callback resolver uses it when the fragment carries
// an id_token.
func (p *OIDCProvider) VerifyIDToken(ctx context.Context, rawIDToken string) error {
	_, err := p.verifier.Verify(ctx, rawIDToken)
	return errors.Wrap(err, "[OIDCProvider.VerifyIDToken] verify")
}

// Subscribe registers the event handler. Later registrations replace the
// earlier one; the session manager subscribes exactly once.
func (p *OIDCProvider) Subscribe(handler Handler) func() {
	p.handlerMu.Lock()
	p.handler = handler
	p.handlerMu.Unlock()
	return func() {
		p.handlerMu.Lock()
		p.handler = nil
		p.handlerMu.Unlock()
	}
}

func (p *OIDCProvider) emit(ctx context.Context, event AuthEvent) {
	p.handlerMu.RLock()
	handler := p.handler
	p.handlerMu.RUnlock()
	if handler != nil {
		handler(ctx, event)
	}
}

func (p *OIDCProvider) oauthConfig() oauth2.Config {
	return oauth2.Config{
		ClientID:    p.cfg.ClientID,
		Endpoint:    p.oidc.Endpoint(),
		RedirectURL: p.cfg.RedirectURL,
		Scopes:      p.cfg.Scopes,
	}
}
