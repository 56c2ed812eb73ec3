// Package session is the local (application) session layer: a server-side map
// of values behind a random token, carried to the browser in an encrypted
// cookie or, for API clients, a header.
//
// The SSO layer treats it as a cache in front of the shared encrypted backend.
// The two have independent lifetimes, which is why the SSO store can re-issue
// its own cookie from values that only survive here.
//
//	cookieMgr, _ := cookie.New([]string{secret})
//	manager := session.New(session.WithCookieManager(cookieMgr))
//	defer manager.Close()
//
//	sess, err := manager.Ensure(ctx, w, r)
//	sess.Set("key", "value")
//	err = manager.Save(ctx, sess)
//
// Renew rotates the token while keeping data. Activity timestamps are updated
// by a background worker so reads never block on a write.
package session
