package ssoauth

import (
	"net/http"
)

// ActionKind tags the outcome of a security decision.
type ActionKind int

const (
	ActionAllow ActionKind = iota
	ActionRedirect
	ActionUnauthorized
	ActionForbidden
	ActionError
)

func (k ActionKind) String() string {
	switch k {
	case ActionAllow:
		return "allow"
	case ActionRedirect:
		return "redirect"
	case ActionUnauthorized:
		return "unauthorized"
	case ActionForbidden:
		return "forbidden"
	case ActionError:
		return "error"
	default:
		return "unknown"
	}
}

// Action is the result of Perform, Callback and Logout. Only the fields
// relevant to Kind are set.
type Action struct {
	Kind      ActionKind
	Profiles  Profiles // Allow
	Location  string   // Redirect
	Status    int
	Challenge string // Unauthorized: WWW-Authenticate value
	Err       error  // Error
}

// Allow lets the request through with the resolved profiles.
func Allow(profiles Profiles) Action {
	return Action{Kind: ActionAllow, Profiles: profiles, Status: http.StatusOK}
}

// Redirect sends the browser to location with 302 Found.
func Redirect(location string) Action {
	return Action{Kind: ActionRedirect, Location: location, Status: http.StatusFound}
}

// Unauthorized answers 401. A non-empty challenge becomes WWW-Authenticate.
func Unauthorized(challenge string) Action {
	return Action{Kind: ActionUnauthorized, Challenge: challenge, Status: http.StatusUnauthorized}
}

// Forbidden answers 403 for an authenticated caller failing an authorizer.
func Forbidden() Action {
	return Action{Kind: ActionForbidden, Status: http.StatusForbidden}
}

// Error carries err to the error handler with the response status.
func Error(status int, err error) Action {
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	return Action{Kind: ActionError, Status: status, Err: err}
}

// Render writes the action as an HTTP response. Allow writes nothing; the
// caller continues to the protected handler.
func (a Action) Render(w http.ResponseWriter, r *http.Request) error {
	switch a.Kind {
	case ActionAllow:
		return nil
	case ActionRedirect:
		http.Redirect(w, r, a.Location, a.Status)
	case ActionUnauthorized:
		if a.Challenge != "" {
			w.Header().Set("WWW-Authenticate", a.Challenge)
		}
		http.Error(w, http.StatusText(a.Status), a.Status)
	default:
		http.Error(w, http.StatusText(a.Status), a.Status)
	}
	return nil
}
