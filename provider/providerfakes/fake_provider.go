package providerfakes

import (
	"context"
	"sync"

	"github.com/debtwise/go-debtwise-client/provider"
	"github.com/debtwise/go-debtwise-client/session"
)

var _ provider.Provider = (*FakeProvider)(nil)

// FakeProvider is a scripted provider for tests. Each operation can be
// programmed with a result or an error, and call counts are recorded so
// tests can assert exact network behaviour.
type FakeProvider struct {
	lock sync.Mutex

	Session    *session.Session
	GetErr     error
	RefreshErr error
	SignOutErr error
	SignInURL  string
	SignInErr  error

	// RefreshedSession, when set, is returned by RefreshSession instead
	// of Session.
	RefreshedSession *session.Session

	getCalls     int
	refreshCalls int
	signOutCalls int

	handler provider.Handler
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{SignInURL: "https://provider.example/authorize"}
}

func (p *FakeProvider) GetSession(_ context.Context) (*session.Session, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.getCalls++
	if p.GetErr != nil {
		return nil, p.GetErr
	}
	return p.Session, nil
}

func (p *FakeProvider) RefreshSession(_ context.Context) (*session.Session, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.refreshCalls++
	if p.RefreshErr != nil {
		return nil, p.RefreshErr
	}
	if p.RefreshedSession != nil {
		p.Session = p.RefreshedSession
		return p.RefreshedSession, nil
	}
	return p.Session, nil
}

func (p *FakeProvider) SignOut(_ context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.signOutCalls++
	p.Session = nil
	return p.SignOutErr
}

func (p *FakeProvider) AuthorizeURL(state string) (string, error) {
	if p.SignInErr != nil {
		return "", p.SignInErr
	}
	return p.SignInURL + "?state=" + state, nil
}

func (p *FakeProvider) Subscribe(handler provider.Handler) func() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.handler = handler
	return func() {
		p.lock.Lock()
		defer p.lock.Unlock()
		p.handler = nil
	}
}

// Emit delivers a synthetic event to the subscribed handler, as the real
// provider SDK would.
func (p *FakeProvider) Emit(ctx context.Context, event provider.AuthEvent) {
	p.lock.Lock()
	handler := p.handler
	p.lock.Unlock()
	if handler != nil {
		handler(ctx, event)
	}
}

func (p *FakeProvider) GetSessionCallCount() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.getCalls
}

func (p *FakeProvider) RefreshSessionCallCount() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.refreshCalls
}

func (p *FakeProvider) SignOutCallCount() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.signOutCalls
}
