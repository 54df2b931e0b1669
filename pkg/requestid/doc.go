// Package requestid tags every request with a correlation id and writes one
// access log record per request.
//
// Middleware reuses a well-formed X-Request-ID header or generates a UUIDv4,
// stores the id in the context and echoes it in the response. Register
// LoggerExtractor with logger.WithContextExtractors so every record logged
// with the request context carries request_id next to tenant_id:
//
//	log := logger.New(logger.WithContextExtractors(
//	    requestid.LoggerExtractor(),
//	    tenant.LoggerExtractor(),
//	))
//	r.Use(requestid.Middleware, requestid.AccessLog(log))
package requestid
