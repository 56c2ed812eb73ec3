package webcontext

import (
	"context"
	"errors"
	"net/http"
)

// RequestContext is everything the SSO layer reads from or writes to one
// inbound request. It is not safe for concurrent use.
type RequestContext interface {
	Context() context.Context

	Method() string
	Path() string
	// FullURL is the externally visible URL including the query string.
	FullURL() string
	Scheme() string
	ServerName() string
	RemoteAddr() string

	Header(name string) string
	// Param returns a query string parameter.
	Param(name string) string
	Cookie(name string) (string, bool)

	// SetCookie adds a cookie to the response, replacing any cookie with the
	// same name set earlier in this response.
	SetCookie(c *http.Cookie)
	SetResponseHeader(name, value string)

	// Attributes live for the duration of one request.
	Attribute(name string) (any, bool)
	SetAttribute(name string, value any)

	// LocalSession returns the application session, or nil when none is
	// available for this request.
	LocalSession() LocalSession
}

// LocalSession is the in-process application session bound to one request.
type LocalSession interface {
	Get(key string) (any, bool)
	Set(key string, value any) error
	Destroy() error
	// Renew moves the session data to a new session identifier.
	Renew() error
}

// Trackable is implemented by local sessions that can hand out a snapshot
// reference usable outside the request, e.g. for back-channel logout.
type Trackable interface {
	Trackable() (any, bool)
}

// Restorer rebuilds a local session from a value returned by Trackable.
type Restorer interface {
	Restore(trackable any) (LocalSession, error)
}

var (
	ErrNotTrackable    = errors.New("webcontext.not_trackable")
	ErrSessionNotFound = errors.New("webcontext.session_not_found")
)
