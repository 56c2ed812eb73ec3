package ssobackend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/ssokit/pkg/logger"
)

// PgxPool is the subset of *pgxpool.Pool used by Postgres.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Postgres stores one row per session with attribute ciphertexts in a jsonb
// column. PostgreSQL has no native row expiry, so a sweeper deletes old rows.
type Postgres struct {
	pool    PgxPool
	closer  func()
	table   string
	migrate func(ctx context.Context) error
	now     func() time.Time
	logger  *slog.Logger
	sweepIv time.Duration

	mu     sync.RWMutex
	ttl    time.Duration
	done   chan struct{}
	once   sync.Once
	ticker *time.Ticker
}

// PostgresOption configures a Postgres backend
type PostgresOption func(*Postgres)

// WithPostgresSweepInterval sets how often expired rows are deleted (0 disables)
func WithPostgresSweepInterval(d time.Duration) PostgresOption {
	return func(p *Postgres) { p.sweepIv = d }
}

// WithPostgresLogger sets the logger used by the sweeper
func WithPostgresLogger(l *slog.Logger) PostgresOption {
	return func(p *Postgres) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPostgres wraps a pool. table is sanitized as an identifier. A
// *pgxpool.Pool gets its schema from MigratePostgres on CreateIndex; any other
// PgxPool must point at a database where the table already exists.
func NewPostgres(pool PgxPool, table string, opts ...PostgresOption) *Postgres {
	p := &Postgres{
		pool:   pool,
		table:  pgx.Identifier{table}.Sanitize(),
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
		done:   make(chan struct{}),
	}
	if pgPool, ok := pool.(*pgxpool.Pool); ok {
		p.migrate = func(ctx context.Context) error {
			return MigratePostgres(ctx, pgPool, table, p.logger)
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreateIndex migrates the session table, then starts the sweeper.
func (p *Postgres) CreateIndex(ctx context.Context, ttl time.Duration) error {
	p.mu.Lock()
	p.ttl = ttl
	p.mu.Unlock()

	if p.migrate != nil {
		if err := p.migrate(ctx); err != nil {
			return err
		}
	}

	if ttl > 0 && p.sweepIv > 0 {
		p.startSweeper()
	}
	return nil
}

// CreateSession inserts an empty row; an existing row with the same id is kept.
func (p *Postgres) CreateSession(ctx context.Context, id string) error {
	q := fmt.Sprintf(`INSERT INTO %s (id, created) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, p.table)
	if _, err := p.pool.Exec(ctx, q, id, p.now()); err != nil {
		return unavailable(err)
	}
	return nil
}

// GetSession loads the live row for id.
func (p *Postgres) GetSession(ctx context.Context, id string) (*Record, error) {
	q := fmt.Sprintf(`SELECT created, fields FROM %s WHERE id = $1 AND created > $2`, p.table)

	rec := &Record{ID: id}
	err := p.pool.QueryRow(ctx, q, id, p.cutoff()).Scan(&rec.Created, &rec.Fields)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, unavailable(err)
	}
	if rec.Fields == nil {
		rec.Fields = make(map[string]string)
	}
	return rec, nil
}

// UpdateSession merges one key into the jsonb column in a single statement.
func (p *Postgres) UpdateSession(ctx context.Context, id, field, ciphertext string) error {
	if err := ValidateField(field); err != nil {
		return err
	}

	q := fmt.Sprintf(`UPDATE %s SET fields = fields || jsonb_build_object($2::text, $3::text)
WHERE id = $1 AND created > $4`, p.table)
	tag, err := p.pool.Exec(ctx, q, id, field, ciphertext, p.cutoff())
	if err != nil {
		return unavailable(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes the row.
func (p *Postgres) DeleteSession(ctx context.Context, id string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, p.table)
	if _, err := p.pool.Exec(ctx, q, id); err != nil {
		return unavailable(err)
	}
	return nil
}

// DeleteExpired removes rows older than the TTL and returns how many were deleted.
func (p *Postgres) DeleteExpired(ctx context.Context) (int64, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE created <= $1`, p.table)
	tag, err := p.pool.Exec(ctx, q, p.cutoff())
	if err != nil {
		return 0, unavailable(err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks the pool.
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

// Close stops the sweeper and closes the pool when the backend created it.
func (p *Postgres) Close() error {
	p.once.Do(func() {
		close(p.done)
		if p.closer != nil {
			p.closer()
		}
	})
	return nil
}

// cutoff is the oldest creation time still considered live.
func (p *Postgres) cutoff() time.Time {
	p.mu.RLock()
	ttl := p.ttl
	p.mu.RUnlock()

	if ttl <= 0 {
		return time.Time{}
	}
	return p.now().Add(-ttl)
}

func (p *Postgres) startSweeper() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ticker != nil {
		return
	}
	p.ticker = time.NewTicker(p.sweepIv)

	go func() {
		defer p.ticker.Stop()
		for {
			select {
			case <-p.ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), p.sweepIv)
				n, err := p.DeleteExpired(ctx)
				cancel()
				if err != nil {
					p.logger.Error("sweep expired sessions", logger.Error(err), logger.Backend(DriverPostgres))
					continue
				}
				if n > 0 {
					p.logger.Debug("swept expired sessions", slog.Int64("count", n), logger.Backend(DriverPostgres))
				}
			case <-p.done:
				return
			}
		}
	}()
}

// ConnectPostgres opens a pool and retries with linear backoff until it answers a ping.
func ConnectPostgres(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, errors.Join(ErrMissingConfig, errors.New("postgres connection url is empty"))
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrMissingConfig, err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	attempts := max(cfg.RetryAttempts, 1)
	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err := pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToConnect, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, ErrFailedToConnect
}
