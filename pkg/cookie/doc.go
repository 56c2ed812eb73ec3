// Package cookie builds HTTP cookies with shared defaults and stores small
// encrypted values in them.
//
// Make and Expire are standalone builders used wherever a cookie has to be
// emitted through an abstraction other than http.ResponseWriter. Manager adds
// secrets: SetEncrypted seals the value with AES-256-GCM under the first
// secret and GetEncrypted tries every secret, so rotation is a matter of
// prepending a new one.
//
//	mgr, err := cookie.New([]string{os.Getenv("COOKIE_SECRET")}, cookie.WithSecure(true))
//	if err != nil {
//	    return err
//	}
//	_ = mgr.SetEncrypted(w, "sid", token, cookie.WithMaxAge(3600))
//	token, err := mgr.GetEncrypted(r, "sid")
//
// Defaults are Path=/, HttpOnly and SameSite=Lax.
package cookie
