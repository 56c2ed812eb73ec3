package ssoauth

// Config controls the decision engine.
type Config struct {
	MultiProfile   bool   `env:"SSO_MULTI_PROFILE" envDefault:"true"`
	DefaultClients string `env:"SSO_DEFAULT_CLIENTS"`                    // Comma-separated client names.
	ClientParam    string `env:"SSO_CLIENT_PARAM" envDefault:"client_name"`
	BrowserMarker  string `env:"SSO_BROWSER_MARKER" envDefault:"Mozilla"` // User-Agent substring of interactive browsers.
	LoadProfiles   bool   `env:"SSO_LOAD_PROFILES" envDefault:"false"`
	SaveProfiles   bool   `env:"SSO_SAVE_PROFILES" envDefault:"false"`
	DefaultURL     string `env:"SSO_DEFAULT_URL" envDefault:"/"` // Fallback target after callback and logout.
}

// DefaultConfig mirrors the env defaults for callers that skip config loading.
func DefaultConfig() Config {
	return Config{
		MultiProfile:  true,
		ClientParam:   "client_name",
		BrowserMarker: "Mozilla",
		DefaultURL:    "/",
	}
}
