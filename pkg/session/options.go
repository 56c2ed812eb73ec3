package session

import (
	"time"

	"github.com/dmitrymomot/ssokit/pkg/cookie"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

func WithStore(store Store) Option {
	return func(m *Manager) { m.store = store }
}

func WithTransport(transport Transport) Option {
	return func(m *Manager) { m.transport = transport }
}

func WithConfig(config Config) Option {
	return func(m *Manager) { m.config = config }
}

func WithCookieName(name string) Option {
	return func(m *Manager) { m.config.CookieName = name }
}

func WithIdleTimeout(idle time.Duration) Option {
	return func(m *Manager) { m.config.IdleTimeout = idle }
}

func WithMaxLifetime(d time.Duration) Option {
	return func(m *Manager) { m.config.MaxLifetime = d }
}

func WithActivityUpdateThreshold(threshold time.Duration) Option {
	return func(m *Manager) { m.config.ActivityUpdateThreshold = threshold }
}

func WithCleanupInterval(interval time.Duration) Option {
	return func(m *Manager) { m.config.CleanupInterval = interval }
}

// WithCookieManager sets the cookie manager for the default cookie transport
func WithCookieManager(cookieMgr *cookie.Manager, opts ...cookie.Option) Option {
	return func(m *Manager) {
		m.cookieManager = cookieMgr
		m.cookieOptions = opts
	}
}

// WithClock overrides the time source for expiry and activity tracking.
// The default memory store uses the same clock.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
