package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/ssokit/pkg/clientip"
	"github.com/dmitrymomot/ssokit/pkg/httpserver"
	"github.com/dmitrymomot/ssokit/pkg/requestid"
	"github.com/dmitrymomot/ssokit/pkg/session"
	"github.com/dmitrymomot/ssokit/pkg/ssoauth"
	"github.com/dmitrymomot/ssokit/pkg/ssobackend"
)

type routerDeps struct {
	engine           *ssoauth.Engine
	backend          ssobackend.Backend
	localSessions    *session.Manager
	request          ssoauth.Request
	readinessTimeout time.Duration
	logger           *slog.Logger
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	if d.localSessions != nil {
		r.Use(d.localSessions.Middleware)
	}

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(d.logger, d.readinessTimeout,
		httpserver.Check{Name: "sso_backend", Probe: ssobackend.Healthcheck(d.backend)}))

	r.Get("/callback", d.engine.CallbackHandler())
	r.HandleFunc("/logout", d.engine.LogoutHandler())

	r.Group(func(r chi.Router) {
		r.Use(d.engine.Middleware(d.request))
		r.HandleFunc("/*", whoami)
	})
	return r
}

type whoamiResponse struct {
	Path     string           `json:"path"`
	Profiles ssoauth.Profiles `json:"profiles"`
}

// whoami echoes the identities the engine attached to the request.
func whoami(w http.ResponseWriter, r *http.Request) {
	profiles, _ := ssoauth.ProfilesFromContext(r.Context())
	if profiles == nil {
		profiles = ssoauth.Profiles{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(whoamiResponse{Path: r.URL.Path, Profiles: profiles})
}
