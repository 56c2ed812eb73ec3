// Command ssogate is a single sign-on gateway. It authenticates requests with
// the configured mechanisms, keeps identities in the split-key SSO session
// and reports the resolved profiles for every protected path.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dmitrymomot/ssokit/pkg/clientip"
	"github.com/dmitrymomot/ssokit/pkg/config"
	"github.com/dmitrymomot/ssokit/pkg/cookie"
	"github.com/dmitrymomot/ssokit/pkg/httpserver"
	"github.com/dmitrymomot/ssokit/pkg/logger"
	"github.com/dmitrymomot/ssokit/pkg/requestid"
	"github.com/dmitrymomot/ssokit/pkg/session"
	"github.com/dmitrymomot/ssokit/pkg/ssoauth"
	"github.com/dmitrymomot/ssokit/pkg/ssobackend"
	"github.com/dmitrymomot/ssokit/pkg/ssosession"
	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

func main() {
	var cfg gatewayConfig
	config.MustLoad(&cfg)

	log := logger.NewFromConfig(cfg.Log, logger.WithContextExtractors(
		requestid.LoggerExtractor(),
		clientip.LoggerExtractor(),
	))
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("ssogate stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg gatewayConfig, log *slog.Logger) error {
	backend, err := ssobackend.Open(ctx, cfg.Backend, cfg.Session.SessionTTL, log.With(logger.Component("ssobackend")))
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error("closing session backend", logger.Error(err))
		}
	}()

	store, err := ssosession.New(backend, cfg.Session, ssosession.WithLogger(log.With(logger.Component("ssosession"))))
	if err != nil {
		return err
	}

	clients, err := buildClients(cfg, store, log.With(logger.Component("mechanism")))
	if err != nil {
		return err
	}

	var (
		localSessions *session.Manager
		ctxOpts       = []webcontext.Option{webcontext.WithTrustedProxy(cfg.TrustProxy)}
	)
	if cfg.LocalSessions {
		localSessions, err = newLocalSessions(cfg)
		if err != nil {
			return err
		}
		ctxOpts = append(ctxOpts, webcontext.WithSessionManager(localSessions))
	}

	engine, err := ssoauth.New(store, clients, cfg.Auth,
		ssoauth.WithLogger(log.With(logger.Component("ssoauth"))),
		ssoauth.WithMatcher("public", ssoauth.ExcludePaths(cfg.PublicPaths...)),
		ssoauth.WithContextOptions(ctxOpts...),
	)
	if err != nil {
		return err
	}

	handler := newRouter(routerDeps{
		engine:           engine,
		backend:          backend,
		localSessions:    localSessions,
		request:          protectedRequest(cfg, clients),
		readinessTimeout: cfg.ReadinessTimeout,
		logger:           log,
	})

	srvOpts := []httpserver.Option{httpserver.WithLogger(log.With(logger.Component("httpserver")))}
	if localSessions != nil {
		srvOpts = append(srvOpts, httpserver.WithShutdownHook(func() { _ = localSessions.Close() }))
	}
	srv := httpserver.NewFromConfig(cfg.HTTP, srvOpts...)

	log.InfoContext(ctx, "ssogate starting",
		logger.Backend(cfg.Backend.Driver),
		logger.Clients(clients.Names()))
	return srv.Run(ctx, handler)
}

// protectedRequest names every enabled client unless SSO_DEFAULT_CLIENTS
// picks a subset, so a gateway with several mechanisms never fails client
// resolution per request.
func protectedRequest(cfg gatewayConfig, clients *ssoauth.Clients) ssoauth.Request {
	req := ssoauth.Request{Authorizers: cfg.Authorizers, Matchers: "public"}
	if strings.TrimSpace(cfg.Auth.DefaultClients) == "" {
		req.Clients = strings.Join(clients.Names(), ",")
	}
	return req
}

// newLocalSessions builds the application session manager for the configured
// transport. The cookie config is only loaded here because it has required keys.
func newLocalSessions(cfg gatewayConfig) (*session.Manager, error) {
	switch cfg.LocalTransport {
	case "header":
		return session.NewFromConfig(cfg.LocalSession,
			session.WithTransport(session.NewHeaderTransport(cfg.LocalHeader))), nil
	case "cookie", "":
		var cookieCfg cookie.Config
		if err := config.Load(&cookieCfg); err != nil {
			return nil, err
		}
		cookies, err := cookie.NewFromConfig(cookieCfg)
		if err != nil {
			return nil, err
		}
		return session.NewFromConfig(cfg.LocalSession, session.WithCookieManager(cookies)), nil
	default:
		return nil, errors.Join(errUnknownTransport, errors.New(cfg.LocalTransport))
	}
}
