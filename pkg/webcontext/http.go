package webcontext

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dmitrymomot/ssokit/pkg/session"
)

// HTTPContext adapts a net/http request/response pair.
type HTTPContext struct {
	w          http.ResponseWriter
	r          *http.Request
	attrs      map[string]any
	manager    *session.Manager
	local      LocalSession
	trustProxy bool
}

type Option func(*HTTPContext)

// WithSessionManager backs LocalSession with the given local session manager.
func WithSessionManager(m *session.Manager) Option {
	return func(c *HTTPContext) { c.manager = m }
}

// WithLocalSession uses ls as the local session, mainly for tests.
func WithLocalSession(ls LocalSession) Option {
	return func(c *HTTPContext) { c.local = ls }
}

// WithTrustedProxy makes Scheme and ServerName honor X-Forwarded-Proto and
// X-Forwarded-Host.
func WithTrustedProxy(trust bool) Option {
	return func(c *HTTPContext) { c.trustProxy = trust }
}

func NewHTTPContext(w http.ResponseWriter, r *http.Request, opts ...Option) *HTTPContext {
	c := &HTTPContext{w: w, r: r, attrs: make(map[string]any)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPContext) Request() *http.Request              { return c.r }
func (c *HTTPContext) ResponseWriter() http.ResponseWriter { return c.w }
func (c *HTTPContext) Context() context.Context            { return c.r.Context() }
func (c *HTTPContext) Method() string                      { return c.r.Method }
func (c *HTTPContext) Path() string                        { return c.r.URL.Path }
func (c *HTTPContext) RemoteAddr() string                  { return c.r.RemoteAddr }
func (c *HTTPContext) Header(name string) string           { return c.r.Header.Get(name) }
func (c *HTTPContext) Param(name string) string            { return c.r.URL.Query().Get(name) }

func (c *HTTPContext) Scheme() string {
	if c.trustProxy {
		if proto := c.r.Header.Get("X-Forwarded-Proto"); proto != "" {
			return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
		}
	}
	if c.r.TLS != nil {
		return "https"
	}
	return "http"
}

func (c *HTTPContext) host() string {
	if c.trustProxy {
		if h := c.r.Header.Get("X-Forwarded-Host"); h != "" {
			return strings.TrimSpace(strings.Split(h, ",")[0])
		}
	}
	return c.r.Host
}

// ServerName is the request host without port.
func (c *HTTPContext) ServerName() string {
	host := c.host()
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func (c *HTTPContext) FullURL() string {
	return c.Scheme() + "://" + c.host() + c.r.URL.RequestURI()
}

func (c *HTTPContext) Cookie(name string) (string, bool) {
	ck, err := c.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}

func (c *HTTPContext) SetCookie(ck *http.Cookie) {
	v := ck.String()
	if v == "" {
		return
	}
	h := c.w.Header()
	existing := h.Values("Set-Cookie")
	kept := existing[:0:0]
	prefix := ck.Name + "="
	for _, e := range existing {
		if !strings.HasPrefix(e, prefix) {
			kept = append(kept, e)
		}
	}
	h["Set-Cookie"] = append(kept, v)
}

func (c *HTTPContext) SetResponseHeader(name, value string) {
	c.w.Header().Set(name, value)
}

func (c *HTTPContext) Attribute(name string) (any, bool) {
	v, ok := c.attrs[name]
	return v, ok
}

func (c *HTTPContext) SetAttribute(name string, value any) {
	if value == nil {
		delete(c.attrs, name)
		return
	}
	c.attrs[name] = value
}

func (c *HTTPContext) LocalSession() LocalSession {
	if c.local != nil {
		return c.local
	}
	if c.manager == nil {
		return nil
	}
	c.local = &managedSession{manager: c.manager, w: c.w, r: c.r}
	return c.local
}
