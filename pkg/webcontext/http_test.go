package webcontext_test

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ssokit/pkg/cookie"
	"github.com/dmitrymomot/ssokit/pkg/session"
	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

func TestHTTPContext_Request(t *testing.T) {
	t.Run("plain request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "http://app.example.com:8080/secure/page?x=1&client_name=Oidc", nil)
		r.Header.Set("User-Agent", "Mozilla/5.0")
		r.AddCookie(&http.Cookie{Name: "LegendSSO", Value: "a/b"})
		rc := webcontext.NewHTTPContext(httptest.NewRecorder(), r)

		assert.Equal(t, http.MethodPost, rc.Method())
		assert.Equal(t, "/secure/page", rc.Path())
		assert.Equal(t, "http", rc.Scheme())
		assert.Equal(t, "app.example.com", rc.ServerName())
		assert.Equal(t, "http://app.example.com:8080/secure/page?x=1&client_name=Oidc", rc.FullURL())
		assert.Equal(t, "Oidc", rc.Param("client_name"))
		assert.Equal(t, "Mozilla/5.0", rc.Header("User-Agent"))

		v, ok := rc.Cookie("LegendSSO")
		assert.True(t, ok)
		assert.Equal(t, "a/b", v)
		_, ok = rc.Cookie("missing")
		assert.False(t, ok)
		assert.Nil(t, rc.LocalSession())
	})

	t.Run("tls", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "https://example.com/", nil)
		r.TLS = &tls.ConnectionState{}
		rc := webcontext.NewHTTPContext(httptest.NewRecorder(), r)
		assert.Equal(t, "https", rc.Scheme())
	})

	t.Run("forwarded headers only when trusted", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "http://internal:8080/p", nil)
		r.Header.Set("X-Forwarded-Proto", "https")
		r.Header.Set("X-Forwarded-Host", "sso.example.com")

		untrusted := webcontext.NewHTTPContext(httptest.NewRecorder(), r)
		assert.Equal(t, "http", untrusted.Scheme())
		assert.Equal(t, "internal", untrusted.ServerName())

		trusted := webcontext.NewHTTPContext(httptest.NewRecorder(), r, webcontext.WithTrustedProxy(true))
		assert.Equal(t, "https", trusted.Scheme())
		assert.Equal(t, "sso.example.com", trusted.ServerName())
		assert.Equal(t, "https://sso.example.com/p", trusted.FullURL())
	})
}

func TestHTTPContext_Response(t *testing.T) {
	w := httptest.NewRecorder()
	rc := webcontext.NewHTTPContext(w, httptest.NewRequest(http.MethodGet, "/", nil))

	rc.SetCookie(&http.Cookie{Name: "other", Value: "1"})
	rc.SetCookie(&http.Cookie{Name: "LegendSSO", Value: "first"})
	rc.SetCookie(&http.Cookie{Name: "LegendSSO", Value: "second"})
	rc.SetResponseHeader("WWW-Authenticate", "Bearer")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, "other", cookies[0].Name)
	assert.Equal(t, "second", cookies[1].Value)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestHTTPContext_Attributes(t *testing.T) {
	rc := webcontext.NewHTTPContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	_, ok := rc.Attribute("k")
	assert.False(t, ok)

	rc.SetAttribute("k", 42)
	v, ok := rc.Attribute("k")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	rc.SetAttribute("k", nil)
	_, ok = rc.Attribute("k")
	assert.False(t, ok)
}

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	mgr, err := cookie.New([]string{"test-secret-key-that-is-long-enough"})
	require.NoError(t, err)
	m := session.New(
		session.WithCookieManager(mgr),
		session.WithCookieName("sid"),
		session.WithCleanupInterval(0),
	)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// next replays the cookies a browser would keep: the last one set per name.
func next(w *httptest.ResponseRecorder) *http.Request {
	latest := map[string]*http.Cookie{}
	for _, c := range w.Result().Cookies() {
		latest[c.Name] = c
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range latest {
		if c.MaxAge >= 0 {
			r.AddCookie(c)
		}
	}
	return r
}

func TestHTTPContext_ManagedSession(t *testing.T) {
	manager := newManager(t)

	t.Run("read does not create", func(t *testing.T) {
		w := httptest.NewRecorder()
		rc := webcontext.NewHTTPContext(w, httptest.NewRequest(http.MethodGet, "/", nil), webcontext.WithSessionManager(manager))

		ls := rc.LocalSession()
		require.NotNil(t, ls)
		_, ok := ls.Get("k")
		assert.False(t, ok)
		assert.Empty(t, w.Result().Cookies())

		_, ok = ls.(webcontext.Trackable).Trackable()
		assert.False(t, ok)
	})

	t.Run("write persists across requests", func(t *testing.T) {
		w1 := httptest.NewRecorder()
		rc1 := webcontext.NewHTTPContext(w1, httptest.NewRequest(http.MethodGet, "/", nil), webcontext.WithSessionManager(manager))
		require.NoError(t, rc1.LocalSession().Set("k", "v"))
		require.NoError(t, rc1.LocalSession().Set("k2", "v2"))
		assert.Len(t, w1.Result().Cookies(), 1)

		rc2 := webcontext.NewHTTPContext(httptest.NewRecorder(), next(w1), webcontext.WithSessionManager(manager))
		v, ok := rc2.LocalSession().Get("k2")
		assert.True(t, ok)
		assert.Equal(t, "v2", v)
	})

	t.Run("renew and destroy", func(t *testing.T) {
		w1 := httptest.NewRecorder()
		rc1 := webcontext.NewHTTPContext(w1, httptest.NewRequest(http.MethodGet, "/", nil), webcontext.WithSessionManager(manager))
		require.NoError(t, rc1.LocalSession().Set("k", "v"))

		w2 := httptest.NewRecorder()
		rc2 := webcontext.NewHTTPContext(w2, next(w1), webcontext.WithSessionManager(manager))
		require.NoError(t, rc2.LocalSession().Renew())
		v, ok := rc2.LocalSession().Get("k")
		assert.True(t, ok)
		assert.Equal(t, "v", v)

		w3 := httptest.NewRecorder()
		rc3 := webcontext.NewHTTPContext(w3, next(w2), webcontext.WithSessionManager(manager))
		require.NoError(t, rc3.LocalSession().Destroy())
		_, ok = rc3.LocalSession().Get("k")
		assert.False(t, ok)

		rc4 := webcontext.NewHTTPContext(httptest.NewRecorder(), next(w2), webcontext.WithSessionManager(manager))
		_, ok = rc4.LocalSession().Get("k")
		assert.False(t, ok)
	})

	t.Run("renew keeps data written earlier in the same request", func(t *testing.T) {
		w1 := httptest.NewRecorder()
		rc1 := webcontext.NewHTTPContext(w1, httptest.NewRequest(http.MethodGet, "/callback", nil), webcontext.WithSessionManager(manager))
		require.NoError(t, rc1.LocalSession().Set("k", "v"))
		require.NoError(t, rc1.LocalSession().Renew())

		rc2 := webcontext.NewHTTPContext(httptest.NewRecorder(), next(w1), webcontext.WithSessionManager(manager))
		v, ok := rc2.LocalSession().Get("k")
		assert.True(t, ok)
		assert.Equal(t, "v", v)
	})

	t.Run("trackable round trip", func(t *testing.T) {
		w1 := httptest.NewRecorder()
		rc1 := webcontext.NewHTTPContext(w1, httptest.NewRequest(http.MethodGet, "/", nil), webcontext.WithSessionManager(manager))
		require.NoError(t, rc1.LocalSession().Set("k", "v"))

		ref, ok := rc1.LocalSession().(webcontext.Trackable).Trackable()
		require.True(t, ok)

		other := webcontext.NewHTTPContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/logout", nil), webcontext.WithSessionManager(manager))
		restored, err := other.LocalSession().(webcontext.Restorer).Restore(ref)
		require.NoError(t, err)
		v, ok := restored.Get("k")
		assert.True(t, ok)
		assert.Equal(t, "v", v)

		require.NoError(t, restored.Destroy())
		_, err = other.LocalSession().(webcontext.Restorer).Restore(ref)
		assert.ErrorIs(t, err, webcontext.ErrSessionNotFound)

		_, err = other.LocalSession().(webcontext.Restorer).Restore(42)
		assert.ErrorIs(t, err, webcontext.ErrNotTrackable)
	})
}

func TestMapSession(t *testing.T) {
	s := webcontext.NewMapSession()
	id := s.ID()

	require.NoError(t, s.Set("k", "v"))
	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, s.Renew())
	assert.NotEqual(t, id, s.ID())
	_, ok = s.Get("k")
	assert.True(t, ok)

	require.NoError(t, s.Destroy())
	assert.True(t, s.Destroyed())
	_, ok = s.Get("k")
	assert.False(t, ok)

	ref, ok := s.Trackable()
	require.True(t, ok)
	restored, err := s.Restore(ref)
	require.NoError(t, err)
	assert.Same(t, s, restored)
}
