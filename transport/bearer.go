// Package transport carries the bearer-token interceptor: every outgoing
// backend request gets the current access token attached, and a 401 answer
// triggers exactly one session refresh before the request is retried.
package transport

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	clienterrors "github.com/debtwise/go-debtwise-client/internal/errors"
	"github.com/debtwise/go-debtwise-client/session"
)

// SessionSource is the slice of the provider the transport needs. The
// store is tried first; the provider is the fallback and the refresher.
type SessionSource interface {
	GetSession(ctx context.Context) (*session.Session, error)
	RefreshSession(ctx context.Context) (*session.Session, error)
}

// Bearer is an http.RoundTripper that authenticates requests. A request
// that comes back 401 is retried once after a session refresh; a second
// 401 propagates to the caller, and a failed refresh surfaces as
// ErrSessionRefreshFailed (the caller redirects to sign-in).
type Bearer struct {
	Base     http.RoundTripper
	Store    *session.Store
	Provider SessionSource
}

var _ http.RoundTripper = (*Bearer)(nil)

func NewBearer(store *session.Store, provider SessionSource) *Bearer {
	return &Bearer{Base: http.DefaultTransport, Store: store, Provider: provider}
}

func (t *Bearer) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	outgoing := cloneRequest(req)
	outgoing.Header.Set("X-Request-ID", uuid.New().String())
	if token := t.currentToken(ctx); token != "" {
		outgoing.Header.Set("Authorization", "Bearer "+token)
	}
	// A missing token is not an error here: the request goes out bare and
	// the backend rejects it if auth was required.

	resp, err := t.base().RoundTrip(outgoing)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	if t.Provider == nil {
		// Nothing to refresh with; the 401 is the caller's problem.
		return resp, nil
	}

	retry, rerr := t.retryRequest(req)
	if rerr != nil {
		// Non-replayable body; hand the 401 back untouched.
		return resp, nil
	}

	refreshed, refreshErr := t.Provider.RefreshSession(ctx)
	if refreshErr != nil || !refreshed.Valid() {
		resp.Body.Close()
		return nil, errors.Wrap(clienterrors.ErrSessionRefreshFailed, errString(refreshErr))
	}
	resp.Body.Close()

	log.Debug().Str("path", req.URL.Path).Msg("Retrying request with refreshed session")
	retry.Header.Set("X-Request-ID", uuid.New().String())
	retry.Header.Set("Authorization", "Bearer "+refreshed.AccessToken)

	// One retry only. If this one also comes back 401 the backend itself
	// is rejecting valid tokens and retrying further would loop forever.
	return t.base().RoundTrip(retry)
}

func (t *Bearer) currentToken(ctx context.Context) string {
	if sess := t.Store.Load(); sess.Valid() && !sess.Expired() {
		return sess.AccessToken
	}
	if t.Provider == nil {
		return ""
	}
	sess, err := t.Provider.GetSession(ctx)
	if err != nil {
		// Lock contention and other provider hiccups mean "no token right
		// now", never a hard failure of this request.
		log.Debug().Err(err).Msg("Provider session lookup failed, sending request without token")
		return ""
	}
	if sess.Valid() {
		return sess.AccessToken
	}
	return ""
}

func (t *Bearer) retryRequest(req *http.Request) (*http.Request, error) {
	retry := cloneRequest(req)
	if req.Body == nil || req.GetBody == nil {
		if req.Body != nil {
			return nil, errors.New("[Bearer] request body cannot be replayed")
		}
		return retry, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, errors.Wrap(err, "[Bearer] rewind request body")
	}
	retry.Body = body
	return retry, nil
}

func (t *Bearer) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func cloneRequest(req *http.Request) *http.Request {
	clone := req.Clone(req.Context())
	return clone
}

func errString(err error) string {
	if err == nil {
		return "provider returned no session"
	}
	return err.Error()
}
