package ssosession

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/ssokit/pkg/cookie"
	"github.com/dmitrymomot/ssokit/pkg/logger"
	"github.com/dmitrymomot/ssokit/pkg/ssobackend"
	"github.com/dmitrymomot/ssokit/pkg/ssotoken"
	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

// tokenAttribute memoizes the request's token so every write in one request
// shares it and at most one cookie is emitted.
const tokenAttribute = "ssosession.token"

// liveAttribute records whether the memoized token's backend record exists,
// so a request checks it at most once.
const liveAttribute = "ssosession.token_live"

// Store keeps request-scoped values in the local session and mirrors them,
// encrypted under the cookie's session key, into a shared backend.
type Store struct {
	backend  ssobackend.Backend
	cipher   *ssotoken.Cipher
	config   Config
	logger   *slog.Logger
	codec    *codec
	generate func() (ssotoken.Token, error)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCipher overrides the cipher built from Config.Algorithm.
func WithCipher(c *ssotoken.Cipher) Option {
	return func(s *Store) {
		if c != nil {
			s.cipher = c
		}
	}
}

// WithTokenGenerator replaces ssotoken.Generate, mainly for tests.
func WithTokenGenerator(fn func() (ssotoken.Token, error)) Option {
	return func(s *Store) {
		if fn != nil {
			s.generate = fn
		}
	}
}

// WithDecoder registers a typed decoder for key. See RegisterDecoder.
func WithDecoder(key string, dec Decoder) Option {
	return func(s *Store) { s.codec.register(key, dec) }
}

// New creates a Store. The backend must already have its TTL index prepared.
func New(backend ssobackend.Backend, cfg Config, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, ErrMissingBackend
	}

	s := &Store{
		backend:  backend,
		config:   cfg,
		logger:   logger.Noop(),
		codec:    newCodec(),
		generate: ssotoken.Generate,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cipher == nil {
		c, err := ssotoken.NewCipher(cfg.Algorithm)
		if err != nil {
			return nil, err
		}
		s.cipher = c
	}
	s.logger = s.logger.With(logger.Component("ssosession"))
	return s, nil
}

// RegisterDecoder makes Get return values for key decoded by dec instead of
// generic JSON shapes. The same decoder normalizes local values during
// self-healing.
func (s *Store) RegisterDecoder(key string, dec Decoder) {
	s.codec.register(key, dec)
}

// Config returns the store configuration.
func (s *Store) Config() Config { return s.config }

// GetOrCreateSessionID returns the public session id, creating a token and
// backend record when the request carries none.
func (s *Store) GetOrCreateSessionID(rc webcontext.RequestContext) (string, error) {
	t, err := s.ensureToken(rc)
	if err != nil {
		return "", err
	}
	return t.ID(), nil
}

// Get returns the value stored under key. The local session is consulted
// first; misses are served from the backend and written back locally.
// A local hit whose token is missing or whose backend record is gone
// re-issues the token and re-saves the value under it.
func (s *Store) Get(rc webcontext.RequestContext, key string) (any, bool, error) {
	ls, _ := localSession(rc)

	if v, ok := ls.Get(key); ok && v != nil {
		if !s.tokenLive(rc) {
			if err := s.heal(rc, ls, key, v); err != nil {
				return v, true, err
			}
			v, _ = ls.Get(key)
		}
		return v, true, nil
	}

	t, err := s.ensureToken(rc)
	if err != nil {
		return nil, false, err
	}

	ctx, cancel := s.backendContext(rc)
	rec, err := s.backend.GetSession(ctx, t.ID())
	cancel()
	switch {
	case errors.Is(err, ssobackend.ErrNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, s.unavailable(rc.Context(), "get session", t, err)
	}

	ciphertext, ok := rec.Field(key)
	if !ok {
		return nil, false, nil
	}

	plain, err := s.cipher.Decrypt(t, key, ciphertext)
	if err != nil {
		s.logger.WarnContext(rc.Context(), "stored attribute could not be decrypted",
			logger.SessionID(t.ID()), logger.Attribute(key), logger.Error(err))
		return nil, false, nil
	}

	v, err := s.codec.decode(key, plain)
	if err != nil {
		s.logger.WarnContext(rc.Context(), "stored attribute could not be decoded",
			logger.SessionID(t.ID()), logger.Attribute(key), logger.Error(err))
		return nil, false, nil
	}
	if v == nil {
		return nil, false, nil
	}

	if err := ls.Set(key, v); err != nil {
		s.logger.WarnContext(rc.Context(), "write back to local session failed",
			logger.Attribute(key), logger.Error(err))
	}
	return v, true, nil
}

// Set encrypts value and upserts it into the backend record, then writes it
// through to the local session. A nil value removes key.
func (s *Store) Set(rc webcontext.RequestContext, key string, value any) error {
	if err := ssobackend.ValidateField(key); err != nil {
		return err
	}

	t, err := s.ensureToken(rc)
	if err != nil {
		return err
	}

	if err := s.write(rc, t, key, value); err != nil {
		return err
	}

	ls, _ := localSession(rc)
	if err := ls.Set(key, value); err != nil {
		return errors.Join(ErrLocalSession, err)
	}
	return nil
}

// DestroySession clears the cookie, deletes the backend record and destroys
// the local session. It reports whether the local session was destroyed.
func (s *Store) DestroySession(rc webcontext.RequestContext) (bool, error) {
	var errs []error

	if t, has := s.currentToken(rc); has {
		ctx, cancel := s.backendContext(rc)
		if err := s.backend.DeleteSession(ctx, t.ID()); err != nil {
			errs = append(errs, s.unavailable(rc.Context(), "delete session", t, err))
		}
		cancel()
	}
	s.clearCookie(rc)
	rc.SetAttribute(tokenAttribute, ssotoken.Token{})
	rc.SetAttribute(liveAttribute, false)

	ls, real := localSession(rc)
	if err := ls.Destroy(); err != nil {
		errs = append(errs, errors.Join(ErrLocalSession, err))
		return false, errors.Join(errs...)
	}
	return real, errors.Join(errs...)
}

// RenewSession renews the local session. The encrypted layer keeps its token.
func (s *Store) RenewSession(rc webcontext.RequestContext) (bool, error) {
	ls, real := localSession(rc)
	if !real {
		return false, nil
	}
	if err := ls.Renew(); err != nil {
		return false, errors.Join(ErrLocalSession, err)
	}
	return true, nil
}

// GetTrackableSession returns a reference to the local session usable outside
// the current request.
func (s *Store) GetTrackableSession(rc webcontext.RequestContext) (any, bool) {
	if tr, ok := rc.LocalSession().(webcontext.Trackable); ok {
		return tr.Trackable()
	}
	return nil, false
}

// BuildFromTrackableSession restores a local session from a reference
// returned by GetTrackableSession.
func (s *Store) BuildFromTrackableSession(rc webcontext.RequestContext, trackable any) (webcontext.LocalSession, error) {
	if trackable == nil {
		return nil, webcontext.ErrNotTrackable
	}
	r, ok := rc.LocalSession().(webcontext.Restorer)
	if !ok {
		return nil, webcontext.ErrNotTrackable
	}
	return r.Restore(trackable)
}

func (s *Store) heal(rc webcontext.RequestContext, ls webcontext.LocalSession, key string, value any) error {
	t, err := s.newToken(rc)
	if err != nil {
		return err
	}

	normalized := s.codec.normalize(key, value)
	if err := s.write(rc, t, key, normalized); err != nil {
		return err
	}
	if err := ls.Set(key, normalized); err != nil {
		s.logger.WarnContext(rc.Context(), "write back to local session failed",
			logger.Attribute(key), logger.Error(err))
	}

	s.logger.InfoContext(rc.Context(), "sso session re-issued from local session",
		logger.SessionID(t.ID()), logger.Attribute(key))
	return nil
}

// write encrypts and stores one field. A record that expired since the token
// was issued is replaced by a fresh token and record.
func (s *Store) write(rc webcontext.RequestContext, t ssotoken.Token, key string, value any) error {
	payload, err := s.codec.encode(value)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}

	for attempt := 0; ; attempt++ {
		ciphertext, err := s.cipher.Encrypt(t, key, payload)
		if err != nil {
			return err
		}

		ctx, cancel := s.backendContext(rc)
		err = s.backend.UpdateSession(ctx, t.ID(), key, ciphertext)
		cancel()

		switch {
		case err == nil:
			return nil
		case errors.Is(err, ssobackend.ErrNotFound) && attempt == 0:
			if t, err = s.newToken(rc); err != nil {
				return err
			}
		case errors.Is(err, ssobackend.ErrInvalidField):
			return err
		default:
			return s.unavailable(rc.Context(), "update session", t, err)
		}
	}
}

// currentToken returns the memoized or cookie token without touching the backend.
func (s *Store) currentToken(rc webcontext.RequestContext) (ssotoken.Token, bool) {
	if v, ok := rc.Attribute(tokenAttribute); ok {
		t, _ := v.(ssotoken.Token)
		return t, !t.IsZero()
	}

	raw, ok := rc.Cookie(s.config.CookieName)
	if !ok {
		return ssotoken.Token{}, false
	}
	t, ok := ssotoken.Parse(raw)
	if !ok {
		s.logger.DebugContext(rc.Context(), "ignoring malformed sso cookie")
		return ssotoken.Token{}, false
	}
	rc.SetAttribute(tokenAttribute, t)
	return t, true
}

// tokenLive reports whether the request carries a token whose backend record
// still exists. An unreachable backend counts as live: the local value is
// served and the next write retries.
func (s *Store) tokenLive(rc webcontext.RequestContext) bool {
	t, has := s.currentToken(rc)
	if !has {
		return false
	}
	if v, ok := rc.Attribute(liveAttribute); ok {
		if live, _ := v.(bool); live {
			return true
		}
	}

	ctx, cancel := s.backendContext(rc)
	_, err := s.backend.GetSession(ctx, t.ID())
	cancel()
	if errors.Is(err, ssobackend.ErrNotFound) {
		s.logger.DebugContext(rc.Context(), "sso session record is gone", logger.SessionID(t.ID()))
		return false
	}
	if err != nil {
		s.logger.WarnContext(rc.Context(), "serving local value without backend check",
			logger.SessionID(t.ID()), logger.Error(err))
	}
	rc.SetAttribute(liveAttribute, true)
	return true
}

func (s *Store) ensureToken(rc webcontext.RequestContext) (ssotoken.Token, error) {
	if t, ok := s.currentToken(rc); ok {
		return t, nil
	}
	return s.newToken(rc)
}

// newToken mints a token, creates its backend record and sets the cookie.
func (s *Store) newToken(rc webcontext.RequestContext) (ssotoken.Token, error) {
	t, err := s.generate()
	if err != nil {
		return ssotoken.Token{}, errors.Join(ErrTokenGeneration, err)
	}

	ctx, cancel := s.backendContext(rc)
	defer cancel()
	if err := s.backend.CreateSession(ctx, t.ID()); err != nil {
		return ssotoken.Token{}, s.unavailable(rc.Context(), "create session", t, err)
	}

	rc.SetAttribute(tokenAttribute, t)
	rc.SetAttribute(liveAttribute, true)
	rc.SetCookie(cookie.Make(s.config.CookieName, t.CookieValue(), s.cookieOptions(rc,
		cookie.WithMaxAge(int(s.config.SessionTTL.Seconds())),
	)...))

	s.logger.DebugContext(rc.Context(), "sso session created", logger.SessionID(t.ID()))
	return t, nil
}

func (s *Store) clearCookie(rc webcontext.RequestContext) {
	rc.SetCookie(cookie.Expire(s.config.CookieName, s.cookieOptions(rc)...))
}

func (s *Store) cookieOptions(rc webcontext.RequestContext, extra ...cookie.Option) []cookie.Option {
	domain := s.config.CookieDomain
	if domain == "" {
		domain = rc.ServerName()
	}
	opts := []cookie.Option{
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(true),
		cookie.WithDomain(domain),
		cookie.WithSecure(s.config.CookieSecure),
	}
	return append(opts, extra...)
}

func (s *Store) backendContext(rc webcontext.RequestContext) (context.Context, context.CancelFunc) {
	if s.config.BackendTimeout > 0 {
		return context.WithTimeout(rc.Context(), s.config.BackendTimeout)
	}
	return context.WithCancel(rc.Context())
}

func (s *Store) unavailable(ctx context.Context, op string, t ssotoken.Token, err error) error {
	s.logger.ErrorContext(ctx, "sso backend "+op+" failed",
		logger.SessionID(t.ID()), logger.Error(err))
	return errors.Join(ErrBackendUnavailable, err)
}
