package main

import (
	"time"

	"github.com/dmitrymomot/kbm/internal/accounts"
	"github.com/dmitrymomot/kbm/pkg/logger"
	"github.com/dmitrymomot/kbm/pkg/tenant"
)

type appConfig struct {
	BaseDomain     string        `env:"BASE_DOMAIN" envDefault:"localhost"`
	Env            string        `env:"APP_ENV" envDefault:"development"`
	ServiceName    string        `env:"SERVICE_NAME" envDefault:"kbm"`
	AdminRole      string        `env:"ADMIN_ROLE" envDefault:"app_admin"`
	TenantCacheTTL time.Duration `env:"TENANT_CACHE_TTL" envDefault:"1m"`
	MetricsEnabled bool          `env:"METRICS_ENABLED" envDefault:"true"`
	MaxUsers       int           `env:"TENANT_MAX_USERS" envDefault:"25"`
	MaxItems       int           `env:"TENANT_MAX_ITEMS" envDefault:"1000"`
}

func (c appConfig) development() bool {
	return c.Env == "" || c.Env == logger.EnvDevelopment || c.Env == "dev"
}

func (c appConfig) adminRole() string {
	if c.AdminRole == "" {
		return accounts.DefaultAdminRole
	}
	return c.AdminRole
}

func (c appConfig) quotas() tenant.Quotas {
	return tenant.Quotas{MaxUsers: c.MaxUsers, MaxItems: c.MaxItems}
}
