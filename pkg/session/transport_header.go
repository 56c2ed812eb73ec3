package session

import (
	"net/http"
	"strings"
	"time"
)

// HeaderTransport carries the token in a header for clients without a cookie
// jar. The response repeats the header with the token and an "-Expires"
// companion so the client knows when to stop sending it.
type HeaderTransport struct {
	name   string
	scheme string
}

type HeaderOption func(*HeaderTransport)

// WithHeaderScheme replaces the default "Bearer" scheme. An empty scheme
// sends the bare token.
func WithHeaderScheme(scheme string) HeaderOption {
	return func(t *HeaderTransport) { t.scheme = strings.TrimSpace(scheme) }
}

func NewHeaderTransport(name string, opts ...HeaderOption) *HeaderTransport {
	t := &HeaderTransport{name: name, scheme: "Bearer"}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HeaderTransport) GetToken(r *http.Request) (string, error) {
	value := strings.TrimSpace(r.Header.Get(t.name))
	if t.scheme != "" {
		scheme, rest, ok := strings.Cut(value, " ")
		if !ok || !strings.EqualFold(scheme, t.scheme) {
			return "", ErrSessionNotFound
		}
		value = strings.TrimSpace(rest)
	}
	if value == "" {
		return "", ErrSessionNotFound
	}
	return value, nil
}

func (t *HeaderTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	value := token
	if t.scheme != "" {
		value = t.scheme + " " + token
	}
	w.Header().Set(t.name, value)
	if ttl > 0 {
		w.Header().Set(t.name+"-Expires", time.Now().Add(ttl).UTC().Format(time.RFC3339))
	}
	return nil
}

func (t *HeaderTransport) ClearToken(w http.ResponseWriter) error {
	w.Header().Del(t.name)
	w.Header().Del(t.name + "-Expires")
	return nil
}
