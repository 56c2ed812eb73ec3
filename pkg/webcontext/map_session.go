package webcontext

import (
	"sync"

	"github.com/google/uuid"
)

// MapSession is an in-memory LocalSession. It is what a request sees when
// the application keeps session state in process, and what tests use.
type MapSession struct {
	mu        sync.RWMutex
	id        string
	values    map[string]any
	destroyed bool
}

func NewMapSession() *MapSession {
	return &MapSession{id: uuid.NewString(), values: make(map[string]any)}
}

// ID changes on every Renew.
func (s *MapSession) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *MapSession) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MapSession) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == nil {
		delete(s.values, key)
	} else {
		s.values[key] = value
	}
	s.destroyed = false
	return nil
}

func (s *MapSession) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]any)
	s.destroyed = true
	return nil
}

// Destroyed reports whether Destroy was called since the last Set.
func (s *MapSession) Destroyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed
}

func (s *MapSession) Renew() error {
	s.mu.Lock()
	s.id = uuid.NewString()
	s.mu.Unlock()
	return nil
}

func (s *MapSession) Trackable() (any, bool) { return s, true }

func (s *MapSession) Restore(trackable any) (LocalSession, error) {
	if ms, ok := trackable.(*MapSession); ok {
		return ms, nil
	}
	return nil, ErrNotTrackable
}
