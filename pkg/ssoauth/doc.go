// Package ssoauth decides, per request, which authentication clients apply
// and whether the request may proceed.
//
// A Client pairs a name with a Mechanism. Direct mechanisms produce a profile
// from the current request (bearer token, source address). Indirect ones
// implement Redirector and need a browser round trip to an identity provider
// before Callback can produce a profile.
//
// For browser traffic in multi-profile mode the engine walks the resolved
// clients in order:
//
//   - a client with a live profile is skipped
//   - an indirect client without one triggers a redirect; later clients wait
//     for the next request
//   - a direct client without credentials fails the request as unauthorized
//   - otherwise the new profile joins the set
//
// and then hands over to the single-profile Delegate for authorization. API
// traffic, and every request when multi-profile mode is off, goes straight to
// the Delegate, which never redirects.
//
//	engine, err := ssoauth.New(store, clients, cfg,
//	    ssoauth.WithLogger(log),
//	    ssoauth.WithContextOptions(webcontext.WithSessionManager(manager)),
//	)
//	r.With(engine.Middleware(ssoauth.Request{Clients: "oauth,bearer"})).Get("/*", h)
//	r.Get("/callback", engine.CallbackHandler())
//
// Perform never returns an error. Failures go through the ErrorHandler, which
// answers 503 when the session backend is unavailable and 500 otherwise.
package ssoauth
