package ssoauth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/ssokit/pkg/logger"
	"github.com/dmitrymomot/ssokit/pkg/ssosession"
	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

// ErrorHandler converts a failure during decision processing into an action.
type ErrorHandler func(rc webcontext.RequestContext, err error) Action

// NewErrorHandler maps an unavailable session backend to 503 and everything
// else to 500.
func NewErrorHandler(log *slog.Logger) ErrorHandler {
	if log == nil {
		log = logger.Noop()
	}
	return func(rc webcontext.RequestContext, err error) Action {
		status := http.StatusInternalServerError
		if errors.Is(err, ssosession.ErrBackendUnavailable) {
			status = http.StatusServiceUnavailable
		}
		log.ErrorContext(rc.Context(), "security decision failed",
			logger.Error(err),
			logger.Status(status),
			slog.String("method", rc.Method()),
			slog.String("path", rc.Path()),
			logger.Component("ssoauth"),
		)
		return Error(status, err)
	}
}
