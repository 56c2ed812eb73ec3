package oauth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/dmitrymomot/ssokit/pkg/logger"
	"github.com/dmitrymomot/ssokit/pkg/ssoauth"
	"github.com/dmitrymomot/ssokit/pkg/ssosession"
	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

var (
	ErrMissingClientID = errors.New("oauth.missing_client_id")
	ErrMissingEndpoint = errors.New("oauth.missing_endpoint")
	ErrInvalidState    = errors.New("oauth.invalid_state")
	ErrUserInfo        = errors.New("oauth.userinfo_failed")
)

// stateKey is the SSO session attribute holding the pending authorization.
const stateKey = "oauth_state"

var userInfoEndpoints = map[string]string{
	ProviderGoogle: "https://openidconnect.googleapis.com/v1/userinfo",
	ProviderGitHub: "https://api.github.com/user",
}

var defaultScopes = map[string][]string{
	ProviderGoogle: {"openid", "email", "profile"},
	ProviderGitHub: {"read:user", "user:email"},
}

// pending is what RedirectURL leaves in the SSO session for the callback.
type pending struct {
	State    string `json:"state"`
	Verifier string `json:"verifier"`
}

// Mechanism is an indirect client running the OAuth2 authorization code flow
// with PKCE. The state and verifier travel in the SSO session, so the
// callback may land on any gateway instance.
type Mechanism struct {
	config     Config
	oauth      oauth2.Config
	store      *ssosession.Store
	httpClient *http.Client
	logger     *slog.Logger
}

var (
	_ ssoauth.Mechanism  = (*Mechanism)(nil)
	_ ssoauth.Redirector = (*Mechanism)(nil)
)

type Option func(*Mechanism)

func WithLogger(l *slog.Logger) Option {
	return func(m *Mechanism) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithHTTPClient sets the client used for token exchange and userinfo calls.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Mechanism) {
		if c != nil {
			m.httpClient = c
		}
	}
}

func New(store *ssosession.Store, cfg Config, opts ...Option) (*Mechanism, error) {
	if store == nil {
		return nil, ssoauth.ErrMissingStore
	}
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}

	endpoint := oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL}
	switch strings.ToLower(cfg.Provider) {
	case ProviderGoogle:
		endpoint = google.Endpoint
	case ProviderGitHub:
		endpoint = github.Endpoint
	}
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = userInfoEndpoints[strings.ToLower(cfg.Provider)]
	}
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" || cfg.UserInfoURL == "" {
		return nil, errors.Join(ErrMissingEndpoint, errors.New(cfg.Provider))
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = defaultScopes[strings.ToLower(cfg.Provider)]
	}
	if cfg.CallbackURL == "" {
		cfg.CallbackURL = DefaultConfig().CallbackURL
	}

	m := &Mechanism{
		config: cfg,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       cfg.Scopes,
		},
		store:      store,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     logger.Noop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	store.RegisterDecoder(stateKey, ssosession.JSONDecoder[pending]())
	return m, nil
}

// CallbackURL resolves the configured callback against the current request.
// The scheme follows ssoauth.RedirectProtocolAttribute when the engine set it.
func (m *Mechanism) CallbackURL(rc webcontext.RequestContext) string {
	cb, err := url.Parse(m.config.CallbackURL)
	if err != nil {
		return m.config.CallbackURL
	}
	if !cb.IsAbs() {
		base, err := url.Parse(rc.FullURL())
		if err != nil {
			return m.config.CallbackURL
		}
		cb = base.ResolveReference(cb)
	}
	if proto, ok := rc.Attribute(ssoauth.RedirectProtocolAttribute); ok {
		if s, _ := proto.(string); s == "http" || s == "https" {
			cb.Scheme = s
		}
	}
	return cb.String()
}

// RedirectURL stores a fresh state and PKCE verifier in the SSO session and
// returns the provider's authorization URL.
func (m *Mechanism) RedirectURL(rc webcontext.RequestContext) (string, error) {
	p := pending{State: rand.Text(), Verifier: oauth2.GenerateVerifier()}
	if err := m.store.Set(rc, stateKey, p); err != nil {
		return "", err
	}

	cfg := m.oauth
	cfg.RedirectURL = m.CallbackURL(rc)
	return cfg.AuthCodeURL(p.State, oauth2.S256ChallengeOption(p.Verifier)), nil
}

// ExtractCredentials reads the authorization code and state from the callback
// query. Provider error responses carry no code and yield no credentials.
func (m *Mechanism) ExtractCredentials(rc webcontext.RequestContext) (*ssoauth.Credentials, error) {
	code := rc.Param("code")
	if code == "" {
		if reason := rc.Param("error"); reason != "" {
			m.logger.InfoContext(rc.Context(), "authorization denied by provider",
				logger.Component("oauth"), slog.String("reason", reason))
		}
		return nil, nil
	}
	return &ssoauth.Credentials{
		Value:  code,
		Params: map[string]string{"state": rc.Param("state")},
	}, nil
}

// Authenticate checks the state, exchanges the code and fetches userinfo.
// The pending state is single use: any callback attempt clears it.
func (m *Mechanism) Authenticate(rc webcontext.RequestContext, creds *ssoauth.Credentials) error {
	v, ok, err := m.store.Get(rc, stateKey)
	if err != nil {
		return err
	}
	if ok {
		if err := m.store.Set(rc, stateKey, nil); err != nil {
			return err
		}
	}
	p, _ := v.(pending)
	if !ok || p.State == "" || p.State != creds.Params["state"] {
		return errors.Join(ssoauth.ErrInvalidCredentials, ErrInvalidState)
	}

	ctx := context.WithValue(rc.Context(), oauth2.HTTPClient, m.httpClient)

	cfg := m.oauth
	cfg.RedirectURL = m.CallbackURL(rc)
	tok, err := cfg.Exchange(ctx, creds.Value, oauth2.VerifierOption(p.Verifier))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			m.logger.WarnContext(rc.Context(), "authorization code rejected",
				logger.Component("oauth"), logger.Error(err))
			return errors.Join(ssoauth.ErrInvalidCredentials, err)
		}
		return err
	}

	claims, err := m.userInfo(ctx, cfg.Client(ctx, tok))
	if err != nil {
		return err
	}
	creds.Claims = claims
	return nil
}

func (m *Mechanism) CreateProfile(_ webcontext.RequestContext, creds *ssoauth.Credentials) (*ssoauth.Profile, error) {
	keys := []string{"sub", "id"}
	if m.config.IDClaim != "" {
		keys = []string{m.config.IDClaim}
	}

	var id string
	for _, k := range keys {
		if id = claimString(creds.Claims[k]); id != "" {
			break
		}
	}
	if id == "" {
		return nil, nil
	}

	attrs := make(map[string]any, len(creds.Claims))
	for k, v := range creds.Claims {
		attrs[k] = v
	}
	return &ssoauth.Profile{ID: id, Attributes: attrs}, nil
}

func (m *Mechanism) userInfo(ctx context.Context, client *http.Client) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.config.UserInfoURL, nil)
	if err != nil {
		return nil, errors.Join(ErrUserInfo, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrUserInfo, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.Join(ErrUserInfo, fmt.Errorf("userinfo returned status %d", resp.StatusCode))
	}

	var claims map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, errors.Join(ErrUserInfo, err)
	}
	return claims, nil
}

func claimString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return ""
}
