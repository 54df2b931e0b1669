// Package httpserver runs the application's HTTP handler with graceful
// shutdown and exposes liveness and readiness handlers.
//
// Run blocks until the context ends, SIGINT or SIGTERM arrives, or Shutdown
// is called. In-flight requests are drained within the shutdown timeout and
// then every closer registered with WithCloser runs in reverse order, so the
// tenant database manager and control-plane registry are released only after
// the last request that could use them has finished:
//
//	srv := httpserver.NewFromConfig(cfg,
//	    httpserver.WithLogger(log),
//	    httpserver.WithCloser("registry", registry.Close),
//	    httpserver.WithCloser("tenantdb", dbs.Close),
//	)
//	err := srv.Run(ctx, router)
//
// ReadinessHandler reports each named Check as "ok" or "fail" and answers
// 503 when any fails. Errors returned by Run and Shutdown wrap ErrStart and
// ErrShutdown.
package httpserver
