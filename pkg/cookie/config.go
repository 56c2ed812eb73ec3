package cookie

import (
	"net/http"
	"strings"
)

// Config configures the cookie manager behind the local session transport.
type Config struct {
	Secrets  string        `env:"COOKIE_SECRETS,required"` // Comma separated; first one encrypts.
	Domain   string        `env:"COOKIE_DOMAIN" envDefault:""`
	Secure   bool          `env:"COOKIE_SECURE" envDefault:"false"`
	SameSite http.SameSite `env:"COOKIE_SAME_SITE" envDefault:"2"` // 2 = SameSiteLaxMode
}

func (c Config) secrets() []string {
	var out []string
	for s := range strings.SplitSeq(c.Secrets, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NewFromConfig creates a Manager from cfg, then applies opts.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	base := []Option{WithSecure(cfg.Secure)}
	if cfg.Domain != "" {
		base = append(base, WithDomain(cfg.Domain))
	}
	if cfg.SameSite != 0 {
		base = append(base, WithSameSite(cfg.SameSite))
	}
	return New(cfg.secrets(), append(base, opts...)...)
}
