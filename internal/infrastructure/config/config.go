package config

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT       JWTConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Sync      SyncConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET"`
	Issuer     string        `env:"JWT_ISSUER,      default=ontoacademy"`
	Audience   string        `env:"JWT_AUDIENCE,    default=ontoacademy-api"`
	AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=15m"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
}

type PostgresConfig struct {
	URL string `env:"DATABASE_URL, default=postgres://localhost:5432/ontoacademy?sslmode=disable"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SyncConfig struct {
	TxTimeout time.Duration `env:"SYNC_TX_TIMEOUT, default=30s"`
}

type CORSConfig struct {
	Origins []string `env:"CORS_ORIGINS, default=http://localhost:5173"`
}

type RateLimitConfig struct {
	AuthPerMinute int `env:"RATELIMIT_AUTH_PER_MINUTE, default=10"`
	SyncPerMinute int `env:"RATELIMIT_SYNC_PER_MINUTE, default=60"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(logger zerolog.Logger) *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		logger.Error().Err(err).Msg("failed to load configuration")
		panic(err)
	}
	return &cfg
}
