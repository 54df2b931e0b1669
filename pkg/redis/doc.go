// Package redis connects to the optional Redis server that backs the shared
// tenant resolver cache.
//
// Connect retries the initial ping according to Config, so a Redis container
// that starts after the application does not fail the boot:
//
//	cfg := redis.Config{ConnectionURL: "redis://localhost:6379/0", RetryAttempts: 3}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	cache := tenant.NewRedisCache(client, cfg.KeyPrefix, log)
//
// Healthcheck adapts the client to the readiness probe of the HTTP server.
// Failures are reported through the sentinel errors in errors.go joined with
// the go-redis cause.
package redis
