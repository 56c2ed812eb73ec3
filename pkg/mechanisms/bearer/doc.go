// Package bearer is a direct mechanism for programmatic clients that present
// an HS256 JWT in the Authorization header.
//
// Tokens must carry sub and exp. The subject becomes the profile ID and the
// profile expires together with the token, so a stored profile is never
// reused past the token lifetime. Name, email and roles claims are copied to
// the profile attributes.
//
//	m, err := bearer.New(bearer.Config{Secret: os.Getenv("SSO_BEARER_SECRET")})
//	client := ssoauth.NewClient("api", m)
//
// Rejected requests receive `WWW-Authenticate: Bearer realm="sso"`.
package bearer
