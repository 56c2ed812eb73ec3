// Package webcontext defines the request abstraction the SSO layer works
// against and its net/http implementation.
//
// RequestContext exposes cookies, headers, query parameters, per-request
// attributes and an optional LocalSession. The SSO store never needs to know
// which web stack or application session technology sits behind it: when
// LocalSession returns nil, the store degrades to its no-op local layer.
//
//	rc := webcontext.NewHTTPContext(w, r,
//	    webcontext.WithSessionManager(sessions),
//	    webcontext.WithTrustedProxy(true),
//	)
//	value, ok, err := store.Get(rc, "key")
//
// SetCookie keeps at most one Set-Cookie header per cookie name, so repeated
// writes within a request never emit duplicates.
package webcontext
