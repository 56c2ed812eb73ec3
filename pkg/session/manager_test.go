package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ssokit/pkg/cookie"
	"github.com/dmitrymomot/ssokit/pkg/session"
)

func setupManager(t *testing.T, opts ...session.Option) *session.Manager {
	t.Helper()
	cookieMgr, err := cookie.New([]string{"test-secret-key-that-is-long-enough"})
	require.NoError(t, err)

	base := []session.Option{
		session.WithCookieManager(cookieMgr),
		session.WithConfig(session.Config{
			CookieName:              "test-sid",
			IdleTimeout:             30 * time.Minute,
			MaxLifetime:             24 * time.Hour,
			ActivityUpdateThreshold: 5 * time.Minute,
		}),
	}
	m := session.New(append(base, opts...)...)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func withCookies(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			r.AddCookie(c)
		}
	}
	return r
}

func TestNew_PanicsWithoutTransport(t *testing.T) {
	assert.Panics(t, func() { session.New() })
}

func TestManager_Ensure(t *testing.T) {
	manager := setupManager(t)
	ctx := context.Background()

	t.Run("creates new session", func(t *testing.T) {
		w := httptest.NewRecorder()
		sess, err := manager.Ensure(ctx, w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.NotEmpty(t, sess.Token)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "test-sid", cookies[0].Name)
		assert.Equal(t, int((30 * time.Minute).Seconds()), cookies[0].MaxAge)
		assert.NotEqual(t, sess.Token, cookies[0].Value)
	})

	t.Run("returns existing session", func(t *testing.T) {
		w1 := httptest.NewRecorder()
		sess1, err := manager.Ensure(ctx, w1, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)

		w2 := httptest.NewRecorder()
		sess2, err := manager.Ensure(ctx, w2, withCookies(w1))
		require.NoError(t, err)
		assert.Equal(t, sess1.ID, sess2.ID)
		assert.Empty(t, w2.Result().Cookies())
	})

	t.Run("replaces unreadable cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "test-sid", Value: "garbage"})
		w := httptest.NewRecorder()

		sess, err := manager.Ensure(ctx, w, r)
		require.NoError(t, err)
		assert.NotNil(t, sess)
		assert.Len(t, w.Result().Cookies(), 1)
	})
}

func TestManager_SaveAndLoad(t *testing.T) {
	manager := setupManager(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	sess, err := manager.Ensure(ctx, w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	sess.Set("profile", "alice")
	require.NoError(t, manager.Save(ctx, sess))

	got, err := manager.Get(ctx, withCookies(w))
	require.NoError(t, err)
	v, ok := got.GetString("profile")
	assert.True(t, ok)
	assert.Equal(t, "alice", v)

	byToken, err := manager.Load(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, byToken.ID)

	_, err = manager.Load(ctx, "")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = manager.Load(ctx, "unknown")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestManager_Renew(t *testing.T) {
	manager := setupManager(t)
	ctx := context.Background()

	w1 := httptest.NewRecorder()
	sess, err := manager.Ensure(ctx, w1, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("k", "v")
	require.NoError(t, manager.Save(ctx, sess))

	w2 := httptest.NewRecorder()
	renewed, err := manager.Renew(ctx, w2, withCookies(w1))
	require.NoError(t, err)

	assert.NotEqual(t, sess.Token, renewed.Token)
	v, _ := renewed.GetString("k")
	assert.Equal(t, "v", v)

	_, err = manager.Load(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	got, err := manager.Get(ctx, withCookies(w2))
	require.NoError(t, err)
	assert.Equal(t, renewed.Token, got.Token)
}

func TestManager_Rotate(t *testing.T) {
	manager := setupManager(t)
	ctx := context.Background()

	sess, err := manager.Ensure(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("k", "v")
	require.NoError(t, manager.Save(ctx, sess))

	// The request still carries no token, so only Rotate can move this session.
	w2 := httptest.NewRecorder()
	rotated, err := manager.Rotate(ctx, w2, sess)
	require.NoError(t, err)
	assert.NotEqual(t, sess.Token, rotated.Token)

	_, err = manager.Load(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	got, err := manager.Get(ctx, withCookies(w2))
	require.NoError(t, err)
	assert.Equal(t, rotated.Token, got.Token)
	v, _ := got.GetString("k")
	assert.Equal(t, "v", v)
}

func TestManager_Destroy(t *testing.T) {
	manager := setupManager(t)
	ctx := context.Background()

	w1 := httptest.NewRecorder()
	sess, err := manager.Ensure(ctx, w1, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	w2 := httptest.NewRecorder()
	require.NoError(t, manager.Destroy(ctx, w2, withCookies(w1)))

	cookies := w2.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)

	_, err = manager.Load(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestManager_MaxLifetimeCapsExpiry(t *testing.T) {
	manager := setupManager(t,
		session.WithIdleTimeout(time.Hour),
		session.WithMaxLifetime(time.Minute),
	)
	ctx := context.Background()

	sess, err := manager.Ensure(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.WithinDuration(t, sess.CreatedAt.Add(time.Minute), sess.ExpiresAt, time.Second)
}

func TestManager_HeaderTransport(t *testing.T) {
	manager := session.New(session.WithTransport(session.NewHeaderTransport("X-Session-Token")))
	defer manager.Close()
	ctx := context.Background()

	w := httptest.NewRecorder()
	sess, err := manager.Ensure(ctx, w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+sess.Token, w.Header().Get("X-Session-Token"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Session-Token", "Bearer "+sess.Token)
	got, err := manager.Get(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	r.Header.Set("X-Session-Token", "bearer "+sess.Token)
	_, err = manager.Get(ctx, r)
	assert.NoError(t, err)

	r.Header.Set("X-Session-Token", sess.Token)
	_, err = manager.Get(ctx, r)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	bare := session.NewHeaderTransport("X-Session-Token", session.WithHeaderScheme(""))
	tok, err := bare.GetToken(r)
	require.NoError(t, err)
	assert.Equal(t, sess.Token, tok)
}

func TestMiddleware(t *testing.T) {
	manager := setupManager(t)

	var seen *session.Session
	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = session.FromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, seen)

	w := httptest.NewRecorder()
	sess, err := manager.Ensure(context.Background(), w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	handler.ServeHTTP(httptest.NewRecorder(), withCookies(w))
	require.NotNil(t, seen)
	assert.Equal(t, sess.ID, seen.ID)
}

func TestManager_Revoke(t *testing.T) {
	manager := setupManager(t)
	ctx := context.Background()

	sess, err := manager.Ensure(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	require.NoError(t, manager.Revoke(ctx, sess.Token))
	_, err = manager.Load(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.NoError(t, manager.Revoke(ctx, ""))
}

func TestManager_ClockExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	manager := setupManager(t, session.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	w := httptest.NewRecorder()
	sess, err := manager.Ensure(ctx, w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, now.Equal(sess.CreatedAt))
	assert.True(t, now.Add(30*time.Minute).Equal(sess.ExpiresAt))

	now = now.Add(20 * time.Minute)
	sess.Set("k", "v")
	require.NoError(t, manager.Save(ctx, sess))
	assert.True(t, now.Add(30*time.Minute).Equal(sess.ExpiresAt))

	now = now.Add(31 * time.Minute)
	_, err = manager.Load(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrSessionExpired)
}
