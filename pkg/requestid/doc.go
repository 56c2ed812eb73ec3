// Package requestid attaches a correlation identifier to every request.
//
// The middleware reuses a client supplied X-Request-ID header when it is at
// most 128 characters of letters, digits, '-' and '_'. Anything else is
// replaced with a fresh UUIDv4. The chosen ID is stored in the request context
// and echoed in the response header so SSO log lines for one browser round
// trip can be correlated:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
//	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
//		log.InfoContext(r.Context(), "hello") // carries request_id
//	})
package requestid
