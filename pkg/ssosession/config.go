package ssosession

import "time"

// Config controls the SSO cookie and the encrypted session layer.
type Config struct {
	CookieName     string        `env:"SSO_COOKIE_NAME" envDefault:"LegendSSO"`
	SessionTTL     time.Duration `env:"SSO_SESSION_TTL" envDefault:"24h"`  // Backend record TTL and cookie Max-Age.
	CookieDomain   string        `env:"SSO_COOKIE_DOMAIN"`                 // Empty means the request's server name.
	CookieSecure   bool          `env:"SSO_COOKIE_SECURE" envDefault:"false"`
	Algorithm      string        `env:"SSO_CIPHER_ALGORITHM" envDefault:"AES"`
	BackendTimeout time.Duration `env:"SSO_BACKEND_TIMEOUT" envDefault:"5s"` // Bounds every backend round trip.
}

// DefaultConfig returns the env defaults: a 24h "LegendSSO" cookie and AES-GCM.
func DefaultConfig() Config {
	return Config{
		CookieName:     "LegendSSO",
		SessionTTL:     24 * time.Hour,
		Algorithm:      "AES",
		BackendTimeout: 5 * time.Second,
	}
}
