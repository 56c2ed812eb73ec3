package ssobackend

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// updateFieldScript writes a field only while the hash exists so an expired
// session is never resurrected without a TTL.
const updateFieldScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
  return 1
end
return 0
`

var updateFieldLua = redis.NewScript(updateFieldScript)

// Redis stores one hash per session and relies on native key expiry.
type Redis struct {
	db     redis.UniversalClient
	prefix string
	owned  bool

	mu  sync.RWMutex
	ttl time.Duration
}

// NewRedis wraps an existing client. The caller keeps ownership of db.
func NewRedis(db redis.UniversalClient, keyPrefix string) *Redis {
	return &Redis{db: db, prefix: keyPrefix}
}

func (r *Redis) key(id string) string { return r.prefix + id }

// CreateIndex stores the TTL applied to new records. Redis needs no index.
func (r *Redis) CreateIndex(_ context.Context, ttl time.Duration) error {
	r.mu.Lock()
	r.ttl = ttl
	r.mu.Unlock()
	return nil
}

// CreateSession writes the created timestamp and sets the key expiry in one transaction.
func (r *Redis) CreateSession(ctx context.Context, id string) error {
	key := r.key(id)
	ttl := r.currentTTL()

	_, err := r.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, FieldCreated, strconv.FormatInt(time.Now().UnixMilli(), 10))
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	return unavailable(err)
}

// GetSession reads the whole hash. An empty hash means the key is gone.
func (r *Redis) GetSession(ctx context.Context, id string) (*Record, error) {
	values, err := r.db.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(values) == 0 {
		return nil, ErrNotFound
	}

	rec := &Record{ID: id, Fields: make(map[string]string, len(values))}
	for k, v := range values {
		if k == FieldCreated {
			if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
				rec.Created = time.UnixMilli(ms)
			}
			continue
		}
		rec.Fields[k] = v
	}
	return rec, nil
}

// UpdateSession sets one hash field if the session still exists.
func (r *Redis) UpdateSession(ctx context.Context, id, field, ciphertext string) error {
	if err := ValidateField(field); err != nil {
		return err
	}

	n, err := updateFieldLua.Run(ctx, r.db, []string{r.key(id)}, field, ciphertext).Int()
	if err != nil {
		return unavailable(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes the hash.
func (r *Redis) DeleteSession(ctx context.Context, id string) error {
	if err := r.db.Del(ctx, r.key(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return unavailable(err)
	}
	return nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

// Close closes the client only when the backend created it.
func (r *Redis) Close() error {
	if r.owned {
		return r.db.Close()
	}
	return nil
}

func (r *Redis) currentTTL() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ttl
}

// ConnectRedis parses cfg.URL and retries until the server answers PING.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, errors.Join(ErrMissingConfig, errors.New("redis url is empty"))
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrMissingConfig, err)
	}

	attempts := max(cfg.RetryAttempts, 1)
	for range attempts {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToConnect, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrFailedToConnect
}
