package ssoauth_test

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/ssokit/pkg/ssoauth"
	"github.com/dmitrymomot/ssokit/pkg/ssobackend"
	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

// MockMechanism is a direct mechanism.
type MockMechanism struct {
	mock.Mock
}

func (m *MockMechanism) ExtractCredentials(rc webcontext.RequestContext) (*ssoauth.Credentials, error) {
	args := m.Called(rc)
	creds, _ := args.Get(0).(*ssoauth.Credentials)
	return creds, args.Error(1)
}

func (m *MockMechanism) Authenticate(rc webcontext.RequestContext, creds *ssoauth.Credentials) error {
	args := m.Called(rc, creds)
	return args.Error(0)
}

func (m *MockMechanism) CreateProfile(rc webcontext.RequestContext, creds *ssoauth.Credentials) (*ssoauth.Profile, error) {
	args := m.Called(rc, creds)
	p, _ := args.Get(0).(*ssoauth.Profile)
	return p, args.Error(1)
}

// MockIndirectMechanism redirects to an identity provider.
type MockIndirectMechanism struct {
	MockMechanism
}

func (m *MockIndirectMechanism) CallbackURL(rc webcontext.RequestContext) string {
	args := m.Called(rc)
	return args.String(0)
}

func (m *MockIndirectMechanism) RedirectURL(rc webcontext.RequestContext) (string, error) {
	args := m.Called(rc)
	return args.String(0), args.Error(1)
}

// MockChallengeMechanism is a direct mechanism answering with a challenge.
type MockChallengeMechanism struct {
	MockMechanism
}

func (m *MockChallengeMechanism) Challenge() string { return `Bearer realm="sso"` }

type MockDelegate struct {
	mock.Mock
}

func (m *MockDelegate) Check(rc webcontext.RequestContext, req ssoauth.Request) (ssoauth.Action, error) {
	args := m.Called(rc, req)
	return args.Get(0).(ssoauth.Action), args.Error(1)
}

// downBackend fails every call the way an unreachable store does.
type downBackend struct{}

var errDown = errors.Join(ssobackend.ErrUnavailable, errors.New("connection refused"))

func (downBackend) CreateIndex(context.Context, time.Duration) error { return errDown }
func (downBackend) CreateSession(context.Context, string) error      { return errDown }
func (downBackend) GetSession(context.Context, string) (*ssobackend.Record, error) {
	return nil, errDown
}
func (downBackend) UpdateSession(context.Context, string, string, string) error { return errDown }
func (downBackend) DeleteSession(context.Context, string) error                 { return errDown }
func (downBackend) Ping(context.Context) error                                  { return errDown }
func (downBackend) Close() error                                                { return nil }
