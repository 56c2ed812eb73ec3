package session

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/ssokit/pkg/cookie"
)

// CookieTransport keeps the token in an encrypted cookie.
type CookieTransport struct {
	cookieMgr  *cookie.Manager
	cookieName string
	options    []cookie.Option
}

// NewCookieTransport creates a cookie transport. opts are applied after the
// transport's own Path=/, HttpOnly and SameSite=Lax.
func NewCookieTransport(cookieMgr *cookie.Manager, cookieName string, secure bool, opts ...cookie.Option) *CookieTransport {
	base := []cookie.Option{
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
	}
	if secure {
		base = append(base, cookie.WithSecure(true))
	}
	return &CookieTransport{
		cookieMgr:  cookieMgr,
		cookieName: cookieName,
		options:    append(base, opts...),
	}
}

func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	token, err := t.cookieMgr.GetEncrypted(r, t.cookieName)
	if err != nil || token == "" {
		return "", ErrSessionNotFound
	}
	return token, nil
}

func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	opts := append(t.options[:len(t.options):len(t.options)], cookie.WithMaxAge(int(ttl.Seconds())))
	return t.cookieMgr.SetEncrypted(w, t.cookieName, token, opts...)
}

func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	t.cookieMgr.Delete(w, t.cookieName, t.options...)
	return nil
}
