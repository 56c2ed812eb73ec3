package ssoauth

import (
	"net/http"

	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

func (e *Engine) newContext(w http.ResponseWriter, r *http.Request) *webcontext.HTTPContext {
	return webcontext.NewHTTPContext(w, r, e.contextOpts...)
}

// Middleware protects next with req. Allowed requests carry their profiles in
// the request context; see ProfilesFromContext.
func (e *Engine) Middleware(req Request) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			action := e.Perform(e.newContext(w, r), req)
			if action.Kind == ActionAllow {
				next.ServeHTTP(w, r.WithContext(WithProfiles(r.Context(), action.Profiles)))
				return
			}
			_ = action.Render(w, r)
		})
	}
}

// CallbackHandler serves the indirect clients' return URL.
func (e *Engine) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = e.Callback(e.newContext(w, r), "").Render(w, r)
	}
}

// LogoutHandler destroys the session and redirects to the "url" query
// parameter when it is a local path.
func (e *Engine) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = e.Logout(e.newContext(w, r), r.URL.Query().Get("url")).Render(w, r)
	}
}
