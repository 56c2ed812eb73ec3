package bearer

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrymomot/ssokit/pkg/ssoauth"
	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

var (
	ErrMissingSecret = errors.New("bearer.missing_secret")
	ErrMissingClaims = errors.New("bearer.missing_claims")
)

// Config sets the HS256 secret and the claims every token must carry.
// Issuer and Audience are checked only when set.
type Config struct {
	Secret   string        `env:"SSO_BEARER_SECRET"`
	Issuer   string        `env:"SSO_BEARER_ISSUER"`
	Audience string        `env:"SSO_BEARER_AUDIENCE"`
	Leeway   time.Duration `env:"SSO_BEARER_LEEWAY" envDefault:"30s"`
	Header   string        `env:"SSO_BEARER_HEADER" envDefault:"Authorization"`
	Realm    string        `env:"SSO_BEARER_REALM" envDefault:"sso"`
}

// DefaultConfig mirrors the env defaults without a secret.
func DefaultConfig() Config {
	return Config{
		Leeway: 30 * time.Second,
		Header: "Authorization",
		Realm:  "sso",
	}
}

// Claims is the token body. Subject becomes the profile ID.
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Mechanism is a direct client that accepts HS256 signed bearer tokens.
type Mechanism struct {
	config Config
	secret []byte
	now    func() time.Time
}

var (
	_ ssoauth.Mechanism  = (*Mechanism)(nil)
	_ ssoauth.Challenger = (*Mechanism)(nil)
)

// Option configures a Mechanism.
type Option func(*Mechanism)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Mechanism) {
		if now != nil {
			m.now = now
		}
	}
}

// New returns a Mechanism. The secret is required.
func New(cfg Config, opts ...Option) (*Mechanism, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.Header == "" {
		cfg.Header = DefaultConfig().Header
	}
	m := &Mechanism{config: cfg, secret: []byte(cfg.Secret), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// ExtractCredentials reads "Bearer <token>" from the configured header.
func (m *Mechanism) ExtractCredentials(rc webcontext.RequestContext) (*ssoauth.Credentials, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(rc.Header(m.config.Header)), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return nil, nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	return &ssoauth.Credentials{Value: token}, nil
}

func (m *Mechanism) Authenticate(_ webcontext.RequestContext, creds *ssoauth.Credentials) error {
	claims, err := m.Parse(creds.Value)
	if err != nil {
		return errors.Join(ssoauth.ErrInvalidCredentials, err)
	}

	creds.Claims = map[string]any{
		"sub":   claims.Subject,
		"name":  claims.Name,
		"email": claims.Email,
		"roles": claims.Roles,
	}
	if claims.ExpiresAt != nil {
		creds.Claims["exp"] = claims.ExpiresAt.Time
	}
	return nil
}

func (m *Mechanism) CreateProfile(_ webcontext.RequestContext, creds *ssoauth.Credentials) (*ssoauth.Profile, error) {
	sub, _ := creds.Claims["sub"].(string)
	if sub == "" {
		return nil, nil
	}

	p := &ssoauth.Profile{ID: sub, Attributes: map[string]any{}}
	for _, key := range []string{"name", "email"} {
		if v, _ := creds.Claims[key].(string); v != "" {
			p.Attributes[key] = v
		}
	}
	if roles, _ := creds.Claims["roles"].([]string); len(roles) > 0 {
		p.Attributes["roles"] = roles
	}
	if exp, ok := creds.Claims["exp"].(time.Time); ok {
		p.ExpiresAt = exp
	}
	return p, nil
}

func (m *Mechanism) Challenge() string {
	if m.config.Realm == "" {
		return "Bearer"
	}
	return `Bearer realm="` + m.config.Realm + `"`
}

// Parse verifies signature, algorithm, time claims and the configured issuer
// and audience. The subject is mandatory.
func (m *Mechanism) Parse(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(m.config.Audience))
	}

	claims := &Claims{}
	_, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrMissingClaims
	}
	return claims, nil
}

// Sign issues a token for claims valid for ttl. Issuer and audience default
// to the configured values.
func (m *Mechanism) Sign(claims Claims, ttl time.Duration) (string, error) {
	if claims.Subject == "" {
		return "", ErrMissingClaims
	}
	now := m.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if claims.Issuer == "" {
		claims.Issuer = m.config.Issuer
	}
	if len(claims.Audience) == 0 && m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}
