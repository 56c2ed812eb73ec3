package ssobackend

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Driver names accepted by Config.Driver.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverMongo    = "mongodb"
	DriverPostgres = "postgres"
)

// Config selects and configures the single active backend.
type Config struct {
	Driver          string        `env:"SSO_BACKEND" envDefault:"memory"`                  // Driver is one of memory, redis, mongodb, postgres.
	Collection      string        `env:"SSO_BACKEND_COLLECTION" envDefault:"sso_sessions"` // Collection is the mongo collection or postgres table name.
	KeyPrefix       string        `env:"SSO_BACKEND_KEY_PREFIX" envDefault:"sso:"`         // KeyPrefix is prepended to redis keys.
	CleanupInterval time.Duration `env:"SSO_BACKEND_CLEANUP_INTERVAL" envDefault:"1m"`     // CleanupInterval drives memory cleanup and the postgres sweeper.

	Redis    RedisConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
}

// RedisConfig holds connection settings for the redis driver.
type RedisConfig struct {
	URL            string        `env:"REDIS_URL"`                              // URL in the form redis://:password@localhost:6379/0.
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`    // RetryAttempts is the number of connection attempts.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`   // RetryInterval is the delay between attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"` // ConnectTimeout bounds all attempts together.
}

// MongoConfig holds connection settings for the mongodb driver.
type MongoConfig struct {
	URL            string        `env:"MONGODB_URL"`                              // URL is the mongodb connection string.
	Database       string        `env:"MONGODB_DATABASE" envDefault:"sso"`        // Database holds the session collection.
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"` // ConnectTimeout for each attempt.
	MaxPoolSize    uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`   // MaxPoolSize of the driver pool.
	MinPoolSize    uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`     // MinPoolSize of the driver pool.
	RetryAttempts  int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`    // RetryAttempts is the number of connection attempts.
	RetryInterval  time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`   // RetryInterval is the delay between attempts.
}

// PostgresConfig holds connection settings for the postgres driver.
type PostgresConfig struct {
	URL           string        `env:"PG_CONN_URL"`                      // URL is the postgres connection string.
	MaxConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"` // MaxConns of the pool.
	MinConns      int32         `env:"PG_MIN_CONNS" envDefault:"1"`       // MinConns of the pool.
	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of connection attempts.
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"` // RetryInterval grows linearly per attempt.
}

// DefaultConfig returns an in-process configuration.
func DefaultConfig() Config {
	return Config{
		Driver:          DriverMemory,
		Collection:      "sso_sessions",
		KeyPrefix:       "sso:",
		CleanupInterval: time.Minute,
	}
}

// Open connects the configured driver and prepares expiry for ttl.
// Missing configuration for the chosen driver is an error, never a silent fallback.
func Open(ctx context.Context, cfg Config, ttl time.Duration, log *slog.Logger) (Backend, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var b Backend
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverMemory:
		b = NewMemory(cfg.CleanupInterval)

	case DriverRedis:
		client, err := ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		r := NewRedis(client, cfg.KeyPrefix)
		r.owned = true
		b = r

	case DriverMongo, "mongo":
		client, err := ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		m := NewMongo(client.Database(cfg.Mongo.Database).Collection(cfg.Collection))
		m.owned = true
		b = m

	case DriverPostgres, "pg":
		pool, err := ConnectPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		p := NewPostgres(pool, cfg.Collection,
			WithPostgresSweepInterval(cfg.CleanupInterval),
			WithPostgresLogger(log),
		)
		p.closer = pool.Close
		b = p

	default:
		return nil, errors.Join(ErrUnknownDriver, errors.New(cfg.Driver))
	}

	if err := b.CreateIndex(ctx, ttl); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

// Healthcheck returns a readiness probe for the backend.
func Healthcheck(b Backend) func(context.Context) error {
	return func(ctx context.Context) error {
		return b.Ping(ctx)
	}
}
