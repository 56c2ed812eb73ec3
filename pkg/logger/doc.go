// Package logger builds slog loggers for the gateway and provides attribute
// helpers that keep key names consistent across packages.
//
// New takes functional options; NewFromConfig reads the same settings from a
// Config loaded from the environment (APP_NAME, APP_ENV, LOG_LEVEL).
// Development defaults to text output at DEBUG, staging and production to JSON
// at INFO.
//
// Context extractors add request-scoped values such as the request id from the
// context on each call. Attributes named token, secret, cookie or
// authorization are masked; WithRedactedKeys extends that list.
//
//	log := logger.NewFromConfig(cfg,
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.WarnContext(ctx, "stored attribute could not be decrypted",
//	    logger.SessionID(token.ID()),
//	    logger.Attribute(name),
//	    logger.Error(err),
//	)
//
// Error, Errors, RequestID, SessionID and Client return an empty Attr for zero
// values, so callers can pass them without nil checks. SessionID must only ever
// receive the public half of a token.
package logger
