package ssobackend

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the record does not exist or has expired
	ErrNotFound = errors.New("ssobackend.not_found")

	// ErrUnavailable indicates the storage could not be reached or timed out
	ErrUnavailable = errors.New("ssobackend.unavailable")

	// ErrInvalidField indicates an attribute name that cannot be stored
	ErrInvalidField = errors.New("ssobackend.invalid_field")

	// ErrUnknownDriver indicates an unsupported backend name in configuration
	ErrUnknownDriver = errors.New("ssobackend.unknown_driver")

	// ErrMissingConfig indicates required backend configuration is absent
	ErrMissingConfig = errors.New("ssobackend.missing_config")

	// ErrFailedToConnect indicates every connection attempt failed
	ErrFailedToConnect = errors.New("ssobackend.failed_to_connect")

	// ErrMigration indicates the postgres session schema could not be applied
	ErrMigration = errors.New("ssobackend.migration_failed")

	// ErrHealthcheckFailed indicates a readiness ping failed
	ErrHealthcheckFailed = errors.New("ssobackend.healthcheck_failed")
)

// unavailable wraps a driver error so callers can tell I/O failures from absent records.
func unavailable(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrUnavailable, err)
}

// IsUnavailable reports whether err is a storage failure, including context
// deadline and cancellation.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
