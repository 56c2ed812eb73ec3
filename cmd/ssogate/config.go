package main

import (
	"time"

	"github.com/dmitrymomot/ssokit/pkg/httpserver"
	"github.com/dmitrymomot/ssokit/pkg/logger"
	"github.com/dmitrymomot/ssokit/pkg/mechanisms/bearer"
	"github.com/dmitrymomot/ssokit/pkg/mechanisms/localhost"
	"github.com/dmitrymomot/ssokit/pkg/mechanisms/oauth"
	"github.com/dmitrymomot/ssokit/pkg/session"
	"github.com/dmitrymomot/ssokit/pkg/ssoauth"
	"github.com/dmitrymomot/ssokit/pkg/ssobackend"
	"github.com/dmitrymomot/ssokit/pkg/ssosession"
)

type gatewayConfig struct {
	Log     logger.Config
	HTTP    httpserver.Config
	Backend ssobackend.Config
	Session ssosession.Config
	Auth    ssoauth.Config

	// Clients lists the enabled mechanisms in decision order: local, bearer, oauth.
	Clients     []string `env:"SSO_CLIENTS" envSeparator:"," envDefault:"local"`
	Authorizers string   `env:"SSO_AUTHORIZERS"`
	PublicPaths []string `env:"SSO_PUBLIC_PATHS" envSeparator:"," envDefault:"/favicon.ico,/static/"`
	TrustProxy  bool     `env:"SSO_TRUST_PROXY" envDefault:"false"`

	// LocalSessions enables the application session in front of the SSO
	// layer. The cookie transport requires COOKIE_SECRETS; the header
	// transport serves non-browser clients.
	LocalSessions  bool   `env:"SSO_LOCAL_SESSIONS" envDefault:"false"`
	LocalTransport string `env:"SSO_LOCAL_TRANSPORT" envDefault:"cookie"`
	LocalHeader    string `env:"SSO_LOCAL_HEADER" envDefault:"X-Session-Token"`
	LocalSession   session.Config

	ReadinessTimeout time.Duration `env:"SSO_READINESS_TIMEOUT" envDefault:"2s"`

	Localhost localhost.Config
	Bearer    bearer.Config
	OAuth     oauth.Config
}
