package ssoauth

import (
	"errors"
	"net/url"
	"strings"

	"github.com/dmitrymomot/ssokit/pkg/logger"
	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

// Callback completes an indirect client's round trip: it validates the
// returned credentials, stores the profile and sends the browser back to the
// originally requested URL. An empty clientName is read from the client
// request parameter.
func (e *Engine) Callback(rc webcontext.RequestContext, clientName string) Action {
	action, err := e.callback(rc, clientName)
	if err != nil {
		return e.fail(rc, err)
	}
	return action
}

func (e *Engine) callback(rc webcontext.RequestContext, clientName string) (Action, error) {
	if clientName == "" && e.config.ClientParam != "" {
		clientName = rc.Param(e.config.ClientParam)
	}
	if clientName == "" && e.clients.Len() == 1 {
		clientName = e.clients.All()[0].Name()
	}

	c, ok := e.clients.Lookup(clientName)
	if !ok {
		return Action{}, errors.Join(ErrClientNotFound, errors.New(clientName))
	}
	if !c.Indirect() {
		return Action{}, errors.Join(ErrNotIndirect, errors.New(c.Name()))
	}

	creds, err := c.Credentials(rc)
	if err != nil {
		return Action{}, err
	}
	if creds == nil {
		e.logger.DebugContext(rc.Context(), "callback without valid credentials", logger.Client(c.Name()))
		return e.unauthorized([]*Client{c}), nil
	}

	p, err := c.Profile(rc, creds)
	if err != nil {
		return Action{}, err
	}
	if p == nil {
		return e.unauthorized([]*Client{c}), nil
	}

	if _, err := e.profiles.Save(rc, *p, e.decision.MustSaveProfile(rc, c, *p), e.config.MultiProfile); err != nil {
		return Action{}, err
	}
	if _, err := e.store.RenewSession(rc); err != nil {
		return Action{}, err
	}

	target, err := e.profiles.PopRequestedURL(rc)
	if err != nil {
		return Action{}, err
	}
	if target == "" {
		target = e.config.DefaultURL
	}

	e.logger.InfoContext(rc.Context(), "sso login completed",
		logger.Client(c.Name()), logger.Action(ActionRedirect.String()))
	return Redirect(target), nil
}

// Logout destroys the SSO session and redirects to redirectURL when it is a
// local path, or to Config.DefaultURL otherwise.
func (e *Engine) Logout(rc webcontext.RequestContext, redirectURL string) Action {
	rc.SetAttribute(profilesAttribute, nil)
	if _, err := e.store.DestroySession(rc); err != nil {
		return e.fail(rc, err)
	}

	target := e.config.DefaultURL
	if isLocalURL(redirectURL) {
		target = redirectURL
	}
	e.logger.InfoContext(rc.Context(), "sso logout", logger.Action(ActionRedirect.String()))
	return Redirect(target)
}

func isLocalURL(raw string) bool {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.Scheme == "" && u.Host == ""
}
