package ssosession

import "errors"

var (
	// ErrBackendUnavailable wraps storage failures and timeouts. Callers must
	// fail the request rather than treat it as an anonymous session.
	ErrBackendUnavailable = errors.New("ssosession.backend_unavailable")

	// ErrTokenGeneration means the random source failed while minting a token.
	ErrTokenGeneration = errors.New("ssosession.token_generation_failed")
	// ErrEncode wraps values that cannot be serialized to JSON.
	ErrEncode = errors.New("ssosession.encode_failed")
	// ErrLocalSession wraps failures of the request's local session.
	ErrLocalSession = errors.New("ssosession.local_session_failed")
	// ErrMissingBackend is returned by New without a backend.
	ErrMissingBackend = errors.New("ssosession.missing_backend")
)
