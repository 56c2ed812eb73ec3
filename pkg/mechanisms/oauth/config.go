package oauth

import "time"

// Provider names with built-in endpoints. Any other provider needs AuthURL,
// TokenURL and UserInfoURL.
const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

type Config struct {
	Provider     string   `env:"SSO_OAUTH_PROVIDER" envDefault:"google"`
	ClientID     string   `env:"SSO_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"SSO_OAUTH_CLIENT_SECRET"`
	Scopes       []string `env:"SSO_OAUTH_SCOPES" envSeparator:","`
	AuthURL      string   `env:"SSO_OAUTH_AUTH_URL"`
	TokenURL     string   `env:"SSO_OAUTH_TOKEN_URL"`
	UserInfoURL  string   `env:"SSO_OAUTH_USERINFO_URL"`

	// CallbackURL may be absolute or a path on the gateway host, e.g.
	// "/callback?client_name=google".
	CallbackURL string `env:"SSO_OAUTH_CALLBACK_URL" envDefault:"/callback"`

	// IDClaim names the userinfo field used as the profile ID. Empty tries
	// "sub" then "id".
	IDClaim string `env:"SSO_OAUTH_ID_CLAIM"`

	HTTPTimeout time.Duration `env:"SSO_OAUTH_HTTP_TIMEOUT" envDefault:"10s"`
}

func DefaultConfig() Config {
	return Config{
		Provider:    ProviderGoogle,
		CallbackURL: "/callback",
		HTTPTimeout: 10 * time.Second,
	}
}
