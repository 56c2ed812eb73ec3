package session

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// Session is the application-side session: a bag of values behind an opaque
// token, living in one Store. It outlives or predates the SSO cookie
// independently.
type Session struct {
	ID             uuid.UUID      `json:"id"`
	Token          string         `json:"token"`
	Data           map[string]any `json:"data,omitempty"`
	ExpiresAt      time.Time      `json:"expires_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

// NewSession creates a session expiring after ttl.
func NewSession(token string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:             uuid.New(),
		Token:          token,
		Data:           map[string]any{},
		ExpiresAt:      now.Add(ttl),
		LastActivityAt: now,
		CreatedAt:      now,
	}
}

func (s *Session) IsExpired() bool {
	return s.ExpiredAt(time.Now())
}

// ExpiredAt reports whether the session is past its expiry at now.
func (s *Session) ExpiredAt(now time.Time) bool {
	return s != nil && now.After(s.ExpiresAt)
}

// Get is safe on a nil session, which holds nothing.
func (s *Session) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.Data[key]
	return v, ok
}

func (s *Session) GetString(key string) (string, bool) {
	v, _ := s.Get(key)
	str, ok := v.(string)
	return str, ok
}

// Set stores value under key. A nil value removes the key.
func (s *Session) Set(key string, value any) {
	switch {
	case s == nil:
	case value == nil:
		delete(s.Data, key)
	default:
		if s.Data == nil {
			s.Data = map[string]any{}
		}
		s.Data[key] = value
	}
}

// Clone returns a copy with its own data map. Values are copied shallowly.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Data = maps.Clone(s.Data)
	if c.Data == nil {
		c.Data = map[string]any{}
	}
	return &c
}
