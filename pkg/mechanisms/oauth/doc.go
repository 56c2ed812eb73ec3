// Package oauth is an indirect mechanism implementing the OAuth2
// authorization code flow with PKCE on top of golang.org/x/oauth2.
//
// RedirectURL keeps the state and code verifier in the SSO session before the
// browser leaves for the provider. The callback may therefore land on any
// gateway instance sharing the session backend. Google and GitHub endpoints
// are built in; other providers configure AuthURL, TokenURL and UserInfoURL.
//
//	m, err := oauth.New(store, oauth.Config{
//		Provider:     oauth.ProviderGitHub,
//		ClientID:     os.Getenv("SSO_OAUTH_CLIENT_ID"),
//		ClientSecret: os.Getenv("SSO_OAUTH_CLIENT_SECRET"),
//		CallbackURL:  "/callback?client_name=github",
//	})
//	client := ssoauth.NewClient("github", m)
//
// The userinfo response becomes the profile attributes. Its "sub" or "id"
// field, or Config.IDClaim, is the profile ID.
package oauth
