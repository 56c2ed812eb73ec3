// Package clientip resolves the originating client address of a request
// behind reverse proxies.
//
// FromHeaders checks CF-Connecting-IP, DO-Connecting-IP, X-Forwarded-For and
// X-Real-IP in that order before falling back to the peer address. GetIP is
// the *http.Request shorthand. Chain returns the full forwarding path, which
// is what same-host checks need: a request is only local if every hop is.
//
//	r.Use(clientip.Middleware)
//	ip := clientip.FromContext(r.Context())
//
// Nothing here returns an error. Unparseable input yields "" (or ok=false
// from Chain) and the caller decides what that means.
package clientip
