package ssoauth

import "context"

type contextKey struct{ name string }

func (c contextKey) String() string { return c.name }

var profilesContextKey = &contextKey{name: "sso_profiles"}

// WithProfiles stores the authenticated profiles in ctx.
func WithProfiles(ctx context.Context, profiles Profiles) context.Context {
	return context.WithValue(ctx, profilesContextKey, profiles)
}

// ProfilesFromContext returns the profiles set by Engine.Middleware.
func ProfilesFromContext(ctx context.Context) (Profiles, bool) {
	ps, ok := ctx.Value(profilesContextKey).(Profiles)
	return ps, ok
}
