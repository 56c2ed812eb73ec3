package ssoauth

import "errors"

var (
	// Configuration errors. They surface through the error handler as 500s.
	ErrNoClients          = errors.New("ssoauth.no_clients")
	ErrClientNotFound     = errors.New("ssoauth.client_not_found")
	ErrClientNotAllowed   = errors.New("ssoauth.client_not_allowed")
	ErrDuplicateClient    = errors.New("ssoauth.duplicate_client")
	ErrNotIndirect        = errors.New("ssoauth.client_not_indirect")
	ErrMatcherNotFound    = errors.New("ssoauth.matcher_not_found")
	ErrAuthorizerNotFound = errors.New("ssoauth.authorizer_not_found")
	ErrMissingStore       = errors.New("ssoauth.missing_store")

	// ErrInvalidCredentials is returned by mechanisms when credentials were
	// present but rejected. The engine treats it like missing credentials.
	ErrInvalidCredentials = errors.New("ssoauth.invalid_credentials")
)
