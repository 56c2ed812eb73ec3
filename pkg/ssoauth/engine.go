package ssoauth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/ssokit/pkg/logger"
	"github.com/dmitrymomot/ssokit/pkg/ssosession"
	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

// RedirectProtocolAttribute carries the callback scheme ("http" or "https")
// chosen for the indirect client being redirected to.
const RedirectProtocolAttribute = "ssoauth.redirect_protocol"

// Request names the clients, authorizers and matchers for one protected route.
// Each field is a comma-separated list of registered names.
type Request struct {
	Clients     string
	Authorizers string
	Matchers    string
}

// Delegate performs the single-profile security check.
type Delegate interface {
	Check(rc webcontext.RequestContext, req Request) (Action, error)
}

// Engine decides per request whether to allow, redirect or reject.
type Engine struct {
	config       Config
	clients      *Clients
	finder       Finder
	store        *ssosession.Store
	profiles     *ProfileManager
	decision     StorageDecision
	delegate     Delegate
	errorHandler ErrorHandler
	matchers     map[string]Matcher
	authorizers  map[string]Authorizer
	contextOpts  []webcontext.Option
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStorageDecision replaces DefaultStorageDecision, which is built from Config.
func WithStorageDecision(d StorageDecision) Option {
	return func(e *Engine) {
		if d != nil {
			e.decision = d
		}
	}
}

// WithDelegate replaces the built-in single-profile check.
func WithDelegate(d Delegate) Option {
	return func(e *Engine) {
		if d != nil {
			e.delegate = d
		}
	}
}

// WithErrorHandler replaces the handler that maps engine errors to actions.
func WithErrorHandler(h ErrorHandler) Option {
	return func(e *Engine) {
		if h != nil {
			e.errorHandler = h
		}
	}
}

// WithMatcher registers a matcher under name for use in Request.Matchers.
func WithMatcher(name string, m Matcher) Option {
	return func(e *Engine) { e.matchers[strings.ToLower(name)] = m }
}

// WithAuthorizer registers an authorizer under name for use in Request.Authorizers.
func WithAuthorizer(name string, a Authorizer) Option {
	return func(e *Engine) { e.authorizers[strings.ToLower(name)] = a }
}

// WithContextOptions are applied to every HTTPContext the middleware builds,
// typically webcontext.WithSessionManager.
func WithContextOptions(opts ...webcontext.Option) Option {
	return func(e *Engine) { e.contextOpts = append(e.contextOpts, opts...) }
}

// WithClock overrides the time source used for profile expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New builds an Engine. The "isAuthenticated" authorizer is always registered.
func New(store *ssosession.Store, clients *Clients, cfg Config, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrMissingStore
	}
	if clients == nil || clients.Len() == 0 {
		return nil, ErrNoClients
	}

	e := &Engine{
		config:   cfg,
		clients:  clients,
		finder:   Finder{ClientParam: cfg.ClientParam, DefaultClients: cfg.DefaultClients},
		store:    store,
		profiles: NewProfileManager(store),
		decision: DefaultStorageDecision{LoadProfiles: cfg.LoadProfiles, SaveProfiles: cfg.SaveProfiles},
		matchers: make(map[string]Matcher),
		authorizers: map[string]Authorizer{
			"isauthenticated": IsAuthenticated(),
		},
		logger: logger.Noop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With(logger.Component("ssoauth"))
	if e.delegate == nil {
		e.delegate = &DefaultDelegate{engine: e}
	}
	if e.errorHandler == nil {
		e.errorHandler = NewErrorHandler(e.logger)
	}
	return e, nil
}

func (e *Engine) Config() Config            { return e.config }
func (e *Engine) Clients() *Clients         { return e.clients }
func (e *Engine) Profiles() *ProfileManager { return e.profiles }

// IsBrowser reports whether the request comes from an interactive browser.
func (e *Engine) IsBrowser(rc webcontext.RequestContext) bool {
	ua := rc.Header("User-Agent")
	return ua != "" && e.config.BrowserMarker != "" && strings.Contains(ua, e.config.BrowserMarker)
}

// Perform runs the security decision for rc. Failures never escape: they are
// turned into an action by the error handler.
func (e *Engine) Perform(rc webcontext.RequestContext, req Request) (action Action) {
	defer func() {
		if r := recover(); r != nil {
			action = e.fail(rc, fmt.Errorf("ssoauth: panic during decision: %v", r))
		}
	}()

	if !e.config.MultiProfile || !e.IsBrowser(rc) {
		return e.delegated(rc, req)
	}

	action, err := e.performMulti(rc, req)
	if err != nil {
		return e.fail(rc, err)
	}
	return action
}

func (e *Engine) performMulti(rc webcontext.RequestContext, req Request) (Action, error) {
	clients, err := e.finder.Find(e.clients, rc, req.Clients)
	if err != nil {
		return Action{}, err
	}

	matched, err := e.matches(rc, req.Matchers)
	if err != nil {
		return Action{}, err
	}
	if !matched {
		e.logger.DebugContext(rc.Context(), "request not protected", slog.String("path", rc.Path()))
		return Allow(nil), nil
	}

	profiles, err := e.profiles.Load(rc, e.decision.MustLoadProfiles(rc, clients))
	if err != nil {
		return Action{}, err
	}

	now := e.now()
	for _, c := range clients {
		if p, ok := profiles.Get(c.Name()); ok && !p.IsExpired(now) {
			e.logger.DebugContext(rc.Context(), "reusing profile", logger.Client(c.Name()))
			continue
		}

		if c.Indirect() {
			return e.redirect(rc, c)
		}

		creds, err := c.Credentials(rc)
		if err != nil {
			return Action{}, err
		}
		if creds == nil {
			e.logger.DebugContext(rc.Context(), "missing credentials", logger.Client(c.Name()))
			return e.unauthorized(clients), nil
		}

		p, err := c.Profile(rc, creds)
		if err != nil {
			return Action{}, err
		}
		if p == nil {
			continue
		}
		profiles, err = e.profiles.Save(rc, *p, e.decision.MustSaveProfile(rc, c, *p), true)
		if err != nil {
			return Action{}, err
		}
		e.logger.DebugContext(rc.Context(), "profile created", logger.Client(c.Name()))
	}

	// Every client was tried above; the delegate must not authenticate again.
	if len(profiles.Valid(now)) == 0 {
		return e.unauthorized(clients), nil
	}

	authorizers := req.Authorizers
	if strings.TrimSpace(authorizers) == "" {
		authorizers = NoAuthorizers
	}
	return e.delegate.Check(rc, Request{
		Clients:     req.Clients,
		Authorizers: authorizers,
		Matchers:    req.Matchers,
	})
}

func (e *Engine) delegated(rc webcontext.RequestContext, req Request) Action {
	action, err := e.delegate.Check(rc, req)
	if err != nil {
		return e.fail(rc, err)
	}
	return action
}

// redirect records the callback scheme and the requested URL, then sends the
// browser to the client's external party.
func (e *Engine) redirect(rc webcontext.RequestContext, c *Client) (Action, error) {
	r := c.redirector()

	protocol := "http"
	if strings.HasPrefix(strings.ToLower(r.CallbackURL(rc)), "https://") {
		protocol = "https"
	}
	rc.SetAttribute(RedirectProtocolAttribute, protocol)

	if err := e.profiles.SaveRequestedURL(rc, rc.FullURL()); err != nil {
		return Action{}, err
	}

	location, err := r.RedirectURL(rc)
	if err != nil {
		return Action{}, err
	}

	e.logger.DebugContext(rc.Context(), "redirecting to identity provider",
		logger.Client(c.Name()), logger.Action(ActionRedirect.String()))
	return Redirect(location), nil
}

func (e *Engine) unauthorized(clients []*Client) Action {
	for _, c := range clients {
		if ch := c.challenge(); ch != "" {
			return Unauthorized(ch)
		}
	}
	return Unauthorized("")
}

func (e *Engine) matches(rc webcontext.RequestContext, names string) (bool, error) {
	for _, name := range splitNames(names) {
		m, ok := e.matchers[strings.ToLower(name)]
		if !ok {
			return false, errors.Join(ErrMatcherNotFound, errors.New(name))
		}
		if !m.Matches(rc) {
			return false, nil
		}
	}
	return true, nil
}

func (e *Engine) authorize(rc webcontext.RequestContext, names string, profiles Profiles) (bool, error) {
	for _, name := range splitNames(names) {
		if strings.EqualFold(name, NoAuthorizers) {
			return true, nil
		}
		a, ok := e.authorizers[strings.ToLower(name)]
		if !ok {
			return false, errors.Join(ErrAuthorizerNotFound, errors.New(name))
		}
		allowed, err := a.IsAuthorized(rc, profiles)
		if err != nil || !allowed {
			return false, err
		}
	}
	return true, nil
}

func (e *Engine) fail(rc webcontext.RequestContext, err error) Action {
	return e.errorHandler(rc, err)
}
