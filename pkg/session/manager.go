package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/ssokit/pkg/cookie"
)

// Manager drives the local session life-cycle over a Store and a Transport.
type Manager struct {
	store         Store
	transport     Transport
	config        Config
	cookieManager *cookie.Manager
	cookieOptions []cookie.Option
	activityChan  chan activityUpdate
	done          chan struct{}
	now           func() time.Time
}

type activityUpdate struct {
	token string
	time  time.Time
}

// New creates a manager. Without WithTransport a cookie manager is required;
// its absence panics so misconfiguration fails at startup.
func New(opts ...Option) *Manager {
	m := &Manager{
		config:       DefaultConfig(),
		activityChan: make(chan activityUpdate, 1000),
		done:         make(chan struct{}),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(m.config.CleanupInterval, WithStoreClock(m.now))
	}

	if m.transport == nil {
		if m.cookieManager == nil {
			panic("session: cookie manager is required when using default cookie transport")
		}
		m.transport = NewCookieTransport(m.cookieManager, m.config.CookieName, m.config.SecureCookies, m.cookieOptions...)
	}

	go m.activityWorker()

	return m
}

// Ensure returns the request's session, creating one when absent or expired.
func (m *Manager) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	session, err := m.Get(ctx, r)
	if err == nil {
		if m.now().Sub(session.LastActivityAt) >= m.config.ActivityUpdateThreshold {
			m.queueActivityUpdate(session.Token)
		}
		return session, nil
	}

	session, err = m.create(ctx, nil)
	if err != nil {
		return nil, err
	}

	if err := m.transport.SetToken(w, session.Token, m.config.IdleTimeout); err != nil {
		_ = m.store.Delete(ctx, session.Token)
		return nil, err
	}
	return session, nil
}

// Get returns the request's session without creating one.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}
	return m.Load(ctx, token)
}

// Load returns the live session for token.
func (m *Manager) Load(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	session, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.ExpiredAt(m.now()) {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// Save persists session data and slides its expiry.
func (m *Manager) Save(ctx context.Context, session *Session) error {
	if session == nil {
		return ErrInvalidSession
	}
	now := m.now()
	session.ExpiresAt = m.expiry(session.CreatedAt, now)
	session.LastActivityAt = now
	return m.store.Update(ctx, session)
}

// Renew moves the request's session data to a fresh token and retires the
// old one. Without a current session it behaves like Ensure.
func (m *Manager) Renew(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	current, err := m.Get(ctx, r)
	if err != nil {
		return m.Ensure(ctx, w, r)
	}
	return m.Rotate(ctx, w, current)
}

// Rotate moves current's data to a fresh token, deletes the old token and
// writes the new one to w. Use it when the session was created or loaded
// earlier in the same request and the request itself carries no token.
func (m *Manager) Rotate(ctx context.Context, w http.ResponseWriter, current *Session) (*Session, error) {
	renewed, err := m.create(ctx, current.Data)
	if err != nil {
		return nil, err
	}
	_ = m.store.Delete(ctx, current.Token)

	if err := m.transport.SetToken(w, renewed.Token, m.config.IdleTimeout); err != nil {
		return nil, err
	}
	return renewed, nil
}

// Destroy deletes the request's session and clears its token.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if token, err := m.transport.GetToken(r); err == nil {
		_ = m.store.Delete(ctx, token)
	}
	return m.transport.ClearToken(w)
}

// Revoke deletes the session identified by token without touching any response.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.Delete(ctx, token)
}

// Close stops the activity worker after draining queued updates.
func (m *Manager) Close() error {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	return nil
}

func (m *Manager) create(ctx context.Context, data map[string]any) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := m.now()
	session := &Session{
		ID:             uuid.New(),
		Token:          token,
		Data:           make(map[string]any, len(data)),
		ExpiresAt:      m.expiry(now, now),
		LastActivityAt: now,
		CreatedAt:      now,
	}
	for k, v := range data {
		session.Set(k, v)
	}

	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (m *Manager) queueActivityUpdate(token string) {
	select {
	case m.activityChan <- activityUpdate{token: token, time: m.now()}:
	default:
		// full; drop rather than block the request
	}
}

func (m *Manager) activityWorker() {
	for {
		select {
		case update := <-m.activityChan:
			_ = m.store.UpdateActivity(context.Background(), update.token, update.time)
		case <-m.done:
			for {
				select {
				case update := <-m.activityChan:
					_ = m.store.UpdateActivity(context.Background(), update.token, update.time)
				default:
					return
				}
			}
		}
	}
}

// expiry is the earlier of now+idle and createdAt+max.
func (m *Manager) expiry(createdAt, now time.Time) time.Time {
	idleExpiry := now.Add(m.config.IdleTimeout)
	maxExpiry := createdAt.Add(m.config.MaxLifetime)
	if m.config.MaxLifetime > 0 && maxExpiry.Before(idleExpiry) {
		return maxExpiry
	}
	return idleExpiry
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
