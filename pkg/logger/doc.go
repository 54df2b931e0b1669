// Package logger builds *slog.Logger instances for the service.
//
// New applies functional options (format, level, static attributes) and
// wraps the resulting handler with LogHandlerDecorator, which adds
// attributes pulled from the record's context on every call. The tenant
// middleware registers such an extractor so every log line written while
// serving a tenant request carries its tenant_id.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "kbm"),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "tenant database opened", logger.Path(path))
//
// Attribute helpers in attr.go keep key names consistent; helpers that take
// an error or identifier return an empty Attr for zero values.
package logger
