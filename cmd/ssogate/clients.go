package main

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/ssokit/pkg/mechanisms/bearer"
	"github.com/dmitrymomot/ssokit/pkg/mechanisms/localhost"
	"github.com/dmitrymomot/ssokit/pkg/mechanisms/oauth"
	"github.com/dmitrymomot/ssokit/pkg/ssoauth"
	"github.com/dmitrymomot/ssokit/pkg/ssosession"
)

var (
	errUnknownMechanism = errors.New("ssogate.unknown_mechanism")
	errUnknownTransport = errors.New("ssogate.unknown_transport")
)

// buildClients instantiates the enabled mechanisms under their configured names.
func buildClients(cfg gatewayConfig, store *ssosession.Store, log *slog.Logger) (*ssoauth.Clients, error) {
	var clients []*ssoauth.Client
	for _, name := range cfg.Clients {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		var (
			m   ssoauth.Mechanism
			err error
		)
		switch name {
		case "local", "localhost":
			m, err = localhost.New(cfg.Localhost)
		case "bearer", "api":
			m, err = bearer.New(cfg.Bearer)
		case "oauth", oauth.ProviderGoogle, oauth.ProviderGitHub:
			m, err = oauth.New(store, cfg.OAuth, oauth.WithLogger(log))
		default:
			err = errors.Join(errUnknownMechanism, errors.New(name))
		}
		if err != nil {
			return nil, err
		}
		clients = append(clients, ssoauth.NewClient(name, m))
	}
	return ssoauth.NewClients(clients...)
}
