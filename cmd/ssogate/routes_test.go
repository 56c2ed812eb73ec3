package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ssokit/pkg/logger"
	"github.com/dmitrymomot/ssokit/pkg/mechanisms/bearer"
	"github.com/dmitrymomot/ssokit/pkg/mechanisms/localhost"
	"github.com/dmitrymomot/ssokit/pkg/session"
	"github.com/dmitrymomot/ssokit/pkg/ssoauth"
	"github.com/dmitrymomot/ssokit/pkg/ssobackend"
	"github.com/dmitrymomot/ssokit/pkg/ssosession"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newGatewayRouter(t, gatewayConfig{Clients: []string{"local"}, Localhost: localhost.DefaultConfig()})
}

func newGatewayRouter(t *testing.T, cfg gatewayConfig) http.Handler {
	t.Helper()

	backend := ssobackend.NewMemory(0)
	t.Cleanup(func() { _ = backend.Close() })
	require.NoError(t, backend.CreateIndex(context.Background(), time.Hour))

	store, err := ssosession.New(backend, ssosession.DefaultConfig())
	require.NoError(t, err)

	clients, err := buildClients(cfg, store, logger.Noop())
	require.NoError(t, err)

	engine, err := ssoauth.New(store, clients, ssoauth.DefaultConfig(),
		ssoauth.WithMatcher("public", ssoauth.ExcludePaths("/static/")))
	require.NoError(t, err)

	return newRouter(routerDeps{
		engine:           engine,
		backend:          backend,
		request:          protectedRequest(cfg, clients),
		readinessTimeout: time.Second,
		logger:           logger.Noop(),
	})
}

func serve(h http.Handler, target, remoteAddr string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	if remoteAddr != "" {
		r.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestRouter(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	t.Run("probes", func(t *testing.T) {
		w := serve(h, "/healthz", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

		w = serve(h, "/readyz", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "READY", w.Body.String())
	})

	t.Run("local caller is authenticated", func(t *testing.T) {
		w := serve(h, "/reports", "127.0.0.1:40000")
		require.Equal(t, http.StatusOK, w.Code)

		var resp whoamiResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "/reports", resp.Path)
		require.Len(t, resp.Profiles, 1)
		assert.Equal(t, "local", resp.Profiles[0].ClientName)
		assert.Equal(t, "localhost", resp.Profiles[0].ID)
	})

	t.Run("remote caller is rejected", func(t *testing.T) {
		w := serve(h, "/reports", "203.0.113.5:40000")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("public path skips authentication", func(t *testing.T) {
		w := serve(h, "/static/app.css", "203.0.113.5:40000")
		require.Equal(t, http.StatusOK, w.Code)

		var resp whoamiResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Empty(t, resp.Profiles)
	})

	t.Run("logout redirects home", func(t *testing.T) {
		w := serve(h, "/logout?url=https://evil.example.com", "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})
}

func TestRouter_SeveralMechanisms(t *testing.T) {
	t.Parallel()

	bearerCfg := bearer.DefaultConfig()
	bearerCfg.Secret = "gateway-test-secret"
	h := newGatewayRouter(t, gatewayConfig{
		Clients:   []string{"local", "bearer"},
		Localhost: localhost.DefaultConfig(),
		Bearer:    bearerCfg,
	})

	t.Run("missing token is unauthorized", func(t *testing.T) {
		w := serve(h, "/reports", "127.0.0.1:40000")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("every mechanism contributes a profile", func(t *testing.T) {
		signer, err := bearer.New(bearerCfg)
		require.NoError(t, err)
		token, err := signer.Sign(bearer.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "svc-reports"}}, time.Minute)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/reports", nil)
		r.RemoteAddr = "127.0.0.1:40000"
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)

		var resp whoamiResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Profiles, 2)
		assert.Equal(t, "local", resp.Profiles[0].ClientName)
		assert.Equal(t, "bearer", resp.Profiles[1].ClientName)
		assert.Equal(t, "svc-reports", resp.Profiles[1].ID)
	})
}

func TestProtectedRequest(t *testing.T) {
	t.Parallel()

	clients, err := ssoauth.NewClients(
		ssoauth.NewClient("local", mustLocalhost(t)),
		ssoauth.NewClient("api", mustLocalhost(t)),
	)
	require.NoError(t, err)

	cfg := gatewayConfig{Authorizers: "admin"}
	req := protectedRequest(cfg, clients)
	assert.Equal(t, "local,api", req.Clients)
	assert.Equal(t, "admin", req.Authorizers)
	assert.Equal(t, "public", req.Matchers)

	cfg.Auth.DefaultClients = "api"
	assert.Empty(t, protectedRequest(cfg, clients).Clients)
}

func mustLocalhost(t *testing.T) *localhost.Mechanism {
	t.Helper()
	m, err := localhost.New(localhost.DefaultConfig())
	require.NoError(t, err)
	return m
}

func TestBuildClients(t *testing.T) {
	t.Parallel()

	store, err := ssosession.New(ssobackend.NewMemory(0), ssosession.DefaultConfig())
	require.NoError(t, err)

	_, err = buildClients(gatewayConfig{Clients: []string{"kerberos"}}, store, logger.Noop())
	assert.ErrorIs(t, err, errUnknownMechanism)

	_, err = buildClients(gatewayConfig{Clients: []string{"bearer"}}, store, logger.Noop())
	assert.Error(t, err)

	cfg := gatewayConfig{Clients: []string{"local", " "}, Localhost: localhost.DefaultConfig()}
	clients, err := buildClients(cfg, store, logger.Noop())
	require.NoError(t, err)
	assert.Equal(t, []string{"local"}, clients.Names())
}

func TestNewLocalSessions(t *testing.T) {
	t.Parallel()

	_, err := newLocalSessions(gatewayConfig{LocalTransport: "carrier-pigeon"})
	assert.ErrorIs(t, err, errUnknownTransport)

	cfg := gatewayConfig{
		LocalTransport: "header",
		LocalHeader:    "X-Session-Token",
		LocalSession:   session.DefaultConfig(),
	}
	manager, err := newLocalSessions(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	w := httptest.NewRecorder()
	sess, err := manager.Ensure(context.Background(), w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+sess.Token, w.Header().Get("X-Session-Token"))
}
