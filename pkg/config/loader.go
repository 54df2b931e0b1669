package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu       sync.Mutex
	cache    = make(map[reflect.Type]any)
	dotenvMu sync.Once
)

// LoadEnv loads one or more .env files into the process environment.
// Without arguments it loads ./.env. Variables that are already set win.
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// Load parses the environment into v using `env` struct tags. The first
// successful parse per struct type is cached; later calls copy the cached
// value so every component sees the same configuration.
//
//	var cfg tenantdb.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenvMu.Do(func() {
		// A missing .env file is normal outside development.
		_ = godotenv.Load()
	})

	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s", ErrInvalidConfigType, typ)
	}

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := cache[typ]; ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	cache[typ] = parsed
	*v = parsed
	return nil
}

// MustLoad is Load for configuration the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// Reset drops every cached configuration. Tests use it after changing
// the environment.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	clear(cache)
}
