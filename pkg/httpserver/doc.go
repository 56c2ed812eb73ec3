// Package httpserver runs the gateway's http.Server with graceful shutdown
// and exposes liveness and readiness handlers.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//		httpserver.WithLogger(log),
//		httpserver.WithShutdownHook(func() { _ = backend.Close() }),
//	)
//	r.Get("/healthz", httpserver.LivenessHandler())
//	r.Get("/readyz", httpserver.ReadinessHandler(log, 2*time.Second,
//		httpserver.Check{Name: "sso_backend", Probe: backend.Ping}))
//	err := srv.Run(ctx, r)
//
// Run returns when ctx ends or on SIGINT/SIGTERM. Listen errors are joined
// with ErrStart and drain failures with ErrShutdown.
package httpserver
