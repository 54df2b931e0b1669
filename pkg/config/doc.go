// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv (optional .env files) and
// github.com/caarlos0/env/v11 (struct tag parsing). Each package that needs
// settings declares its own struct with `env` tags, for example
// tenantdb.Config or httpserver.Config, and the composition root loads them:
//
//	var dbCfg tenantdb.Config
//	config.MustLoad(&dbCfg)
//
// Parsed values are cached per struct type for the lifetime of the process.
// Reset clears the cache, which tests use after t.Setenv.
package config
