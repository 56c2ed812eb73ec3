// Package ssosession stores request values in a shared backend encrypted with
// a key that only the browser holds.
//
// The SSO cookie carries "<id>/<key>". The id addresses the backend record;
// the key encrypts every field and is never sent to the backend. A leaked
// backend alone reveals nothing.
//
// Reads go to the local session first and write backend hits back into it.
// When the local session still holds a value but the SSO cookie is gone, Get
// re-issues a token and re-saves the value so the shared record catches up.
//
//	store, err := ssosession.New(backend, cfg, ssosession.WithLogger(log))
//	store.RegisterDecoder("sso_profiles", ssosession.JSONDecoder[ssoauth.Profiles]())
//
//	rc := webcontext.NewHTTPContext(w, r, webcontext.WithSessionManager(manager))
//	if err := store.Set(rc, "sso_profiles", profiles); err != nil {
//	    // errors.Is(err, ssosession.ErrBackendUnavailable) means fail the request
//	}
//
// Undecryptable fields are logged and read as absent. Backend failures are
// returned as ErrBackendUnavailable and never downgraded to a miss.
package ssosession
