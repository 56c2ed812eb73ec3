package ssobackend

import (
	"context"
	"time"
)

// Reserved record keys. Attribute names may not collide with them.
const (
	FieldID      = "_id"
	FieldCreated = "created"
)

// Record is one stored session. Fields hold base64 ciphertext keyed by attribute name.
type Record struct {
	ID      string
	Created time.Time
	Fields  map[string]string
}

// Expired reports whether the record is older than ttl at now.
// A non-positive ttl never expires.
func (r *Record) Expired(ttl time.Duration, now time.Time) bool {
	if r == nil {
		return true
	}
	if ttl <= 0 {
		return false
	}
	return !now.Before(r.Created.Add(ttl))
}

// Field returns the ciphertext stored for name.
func (r *Record) Field(name string) (string, bool) {
	if r == nil || r.Fields == nil {
		return "", false
	}
	v, ok := r.Fields[name]
	return v, ok
}

// Backend is uninterpreted key/value+TTL storage for session records.
// Ids and ciphertexts are opaque strings; implementations never see key material.
type Backend interface {
	// CreateIndex prepares expiry for records older than ttl
	CreateIndex(ctx context.Context, ttl time.Duration) error

	// CreateSession inserts an empty record for id
	CreateSession(ctx context.Context, id string) error

	// GetSession returns the live record for id or ErrNotFound
	GetSession(ctx context.Context, id string) (*Record, error)

	// UpdateSession atomically upserts one field of an existing record.
	// Returns ErrNotFound when the record is missing or expired.
	UpdateSession(ctx context.Context, id, field, ciphertext string) error

	// DeleteSession removes the record. Missing records are not an error.
	DeleteSession(ctx context.Context, id string) error

	// Ping checks connectivity for readiness probes
	Ping(ctx context.Context) error

	// Close releases resources owned by the backend
	Close() error
}

// ValidateField rejects attribute names that collide with reserved keys or
// cannot be stored as a top-level document key.
func ValidateField(name string) error {
	if name == "" || name == FieldID || name == FieldCreated {
		return ErrInvalidField
	}
	if name[0] == '$' {
		return ErrInvalidField
	}
	for i := 0; i < len(name); i++ {
		if name[i] == '.' || name[i] == 0 {
			return ErrInvalidField
		}
	}
	return nil
}
