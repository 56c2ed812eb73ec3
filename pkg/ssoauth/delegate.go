package ssoauth

import (
	"github.com/dmitrymomot/ssokit/pkg/logger"
	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

// DefaultDelegate is the single-profile check used for API traffic and when
// multi-profile mode is off. It only consults direct clients and never
// redirects: the first client yielding a profile wins.
type DefaultDelegate struct {
	engine *Engine
}

// Check resolves clients, reuses a stored profile or authenticates the first
// direct client that yields one, then applies the requested authorizers.
func (d *DefaultDelegate) Check(rc webcontext.RequestContext, req Request) (Action, error) {
	e := d.engine

	clients, err := e.finder.Find(e.clients, rc, req.Clients)
	if err != nil {
		return Action{}, err
	}

	matched, err := e.matches(rc, req.Matchers)
	if err != nil {
		return Action{}, err
	}
	if !matched {
		return Allow(nil), nil
	}

	profiles, err := e.profiles.Load(rc, e.decision.MustLoadProfiles(rc, clients))
	if err != nil {
		return Action{}, err
	}
	profiles = profiles.Valid(e.now())

	if len(profiles) == 0 {
		for _, c := range clients {
			if c.Indirect() {
				continue
			}
			creds, err := c.Credentials(rc)
			if err != nil {
				return Action{}, err
			}
			if creds == nil {
				continue
			}
			p, err := c.Profile(rc, creds)
			if err != nil {
				return Action{}, err
			}
			if p == nil {
				continue
			}
			profiles, err = e.profiles.Save(rc, *p, e.decision.MustSaveProfile(rc, c, *p), false)
			if err != nil {
				return Action{}, err
			}
			break
		}
	}

	if len(profiles) == 0 {
		return e.unauthorized(clients), nil
	}

	allowed, err := e.authorize(rc, req.Authorizers, profiles)
	if err != nil {
		return Action{}, err
	}
	if !allowed {
		e.logger.DebugContext(rc.Context(), "access denied",
			logger.Clients(profiles.ClientNames()), logger.Action(ActionForbidden.String()))
		return Forbidden(), nil
	}
	return Allow(profiles), nil
}
