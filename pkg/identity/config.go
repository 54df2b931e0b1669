package identity

import "time"

type Config struct {
	Secret   string        `env:"JWT_SECRET"`
	Issuer   string        `env:"JWT_ISSUER" envDefault:"kbm"`
	TokenTTL time.Duration `env:"JWT_TOKEN_TTL" envDefault:"24h"`
}
