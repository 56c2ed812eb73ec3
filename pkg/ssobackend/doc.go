// Package ssobackend provides interchangeable storage adapters for encrypted
// SSO session records.
//
// A record is {id, created, attribute -> ciphertext}. Adapters never interpret
// ids or ciphertexts and never see key material; they only store, expire and
// return strings. Exactly one backend is active per deployment.
//
// Available drivers:
//
//   - memory:   in-process concurrent map with read-time expiry and a cleanup loop
//   - redis:    one hash per session, native key expiry, conditional field upsert via Lua
//   - mongodb:  one document per session, TTL index on "created"
//   - postgres: one row per session, jsonb fields, periodic sweeper
//
// # Usage
//
//	cfg := ssobackend.Config{Driver: "redis", KeyPrefix: "sso:"}
//	cfg.Redis.URL = "redis://localhost:6379/0"
//
//	backend, err := ssobackend.Open(ctx, cfg, 24*time.Hour, log)
//	if err != nil {
//	    // configuration or connectivity problem; fail startup
//	}
//	defer backend.Close()
//
// Fields are written one at a time and every update is a single atomic
// operation on one record. No client-side locking is performed.
//
// # Errors
//
// ErrNotFound marks an absent or expired record. Every driver error is joined
// with ErrUnavailable so callers can fail closed on storage outages.
package ssobackend
