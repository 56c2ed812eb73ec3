package webcontext

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/ssokit/pkg/session"
)

// managedSession is a LocalSession over pkg/session. Reads never create a
// session; the first write does.
type managedSession struct {
	manager *session.Manager
	w       http.ResponseWriter
	r       *http.Request
	current *session.Session
	loaded  bool
}

func (s *managedSession) load() *session.Session {
	if !s.loaded {
		s.loaded = true
		if sess, err := s.manager.Get(s.r.Context(), s.r); err == nil {
			s.current = sess
		}
	}
	return s.current
}

func (s *managedSession) Get(key string) (any, bool) {
	return s.load().Get(key)
}

func (s *managedSession) Set(key string, value any) error {
	if s.load() == nil {
		sess, err := s.manager.Ensure(s.r.Context(), s.w, s.r)
		if err != nil {
			return err
		}
		s.current = sess
	}
	s.current.Set(key, value)
	return s.manager.Save(s.r.Context(), s.current)
}

func (s *managedSession) Destroy() error {
	s.current, s.loaded = nil, true
	return s.manager.Destroy(s.r.Context(), s.w, s.r)
}

// Renew rotates the session held by this request, including one created by
// an earlier Set, so its data survives under the new token.
func (s *managedSession) Renew() error {
	var (
		sess *session.Session
		err  error
	)
	if current := s.load(); current != nil {
		sess, err = s.manager.Rotate(s.r.Context(), s.w, current)
	} else {
		sess, err = s.manager.Ensure(s.r.Context(), s.w, s.r)
	}
	if err != nil {
		return err
	}
	s.current, s.loaded = sess, true
	return nil
}

// Trackable returns the local session token.
func (s *managedSession) Trackable() (any, bool) {
	if sess := s.load(); sess != nil {
		return sess.Token, true
	}
	return nil, false
}

// Restore loads the session identified by a token obtained from Trackable.
// The restored session is detached from any response: Renew is not supported.
func (s *managedSession) Restore(trackable any) (LocalSession, error) {
	token, ok := trackable.(string)
	if !ok {
		return nil, ErrNotTrackable
	}
	sess, err := s.manager.Load(s.r.Context(), token)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) || errors.Is(err, session.ErrSessionExpired) {
			return nil, errors.Join(ErrSessionNotFound, err)
		}
		return nil, err
	}
	return &detachedSession{manager: s.manager, r: s.r, current: sess}, nil
}

type detachedSession struct {
	manager *session.Manager
	r       *http.Request
	current *session.Session
}

func (s *detachedSession) Get(key string) (any, bool) { return s.current.Get(key) }

func (s *detachedSession) Set(key string, value any) error {
	s.current.Set(key, value)
	return s.manager.Save(s.r.Context(), s.current)
}

func (s *detachedSession) Destroy() error {
	return s.manager.Revoke(s.r.Context(), s.current.Token)
}

func (s *detachedSession) Renew() error { return ErrNotTrackable }
