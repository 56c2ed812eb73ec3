package ssobackend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/dmitrymomot/ssokit/pkg/logger"
)

var plainIdentifier = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,47}$`)

// MigratePostgres applies the session table migrations for table with goose.
// Applied versions are tracked per table in "<table>_migrations", so several
// gateways may share one database under different table names.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool, table string, log *slog.Logger) error {
	if !plainIdentifier.MatchString(table) {
		return errors.Join(ErrMigration, fmt.Errorf("table name %q must be a lowercase identifier", table))
	}
	if log == nil {
		log = logger.Noop()
	}

	store, err := database.NewStore(database.DialectPostgres, table+"_migrations")
	if err != nil {
		return errors.Join(ErrMigration, err)
	}

	// goose works on database/sql; the bridge shares the pool's connections.
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	provider, err := goose.NewProvider("", db, nil,
		goose.WithStore(store),
		goose.WithDisableGlobalRegistry(true),
		goose.WithGoMigrations(postgresMigrations(table)...),
	)
	if err != nil {
		return errors.Join(ErrMigration, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Join(ErrMigration, unavailable(err))
	}
	for _, r := range results {
		log.InfoContext(ctx, "applied session schema migration",
			logger.Backend(DriverPostgres),
			slog.String("table", table),
			slog.Int64("version", r.Source.Version),
			slog.Duration("duration", r.Duration))
	}
	return nil
}

func postgresMigrations(table string) []*goose.Migration {
	quoted := pgx.Identifier{table}.Sanitize()
	index := pgx.Identifier{table + "_created_idx"}.Sanitize()

	return []*goose.Migration{
		goose.NewGoMigration(1,
			execTx(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	created TIMESTAMPTZ NOT NULL DEFAULT now(),
	fields JSONB NOT NULL DEFAULT '{}'::jsonb
)`, quoted)),
			execTx(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoted)),
		),
		goose.NewGoMigration(2,
			execTx(fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (created)`, index, quoted)),
			execTx(fmt.Sprintf(`DROP INDEX IF EXISTS %s`, index)),
		),
	}
}

func execTx(stmt string) *goose.GoFunc {
	return &goose.GoFunc{
		RunTx: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, stmt)
			return err
		},
	}
}
