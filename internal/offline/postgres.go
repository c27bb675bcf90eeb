package offline

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool used by PostgresCache.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCache implements Cache using pgxpool.
type PostgresCache struct {
	pool    Pool
	slot    string
	closeFn func()
}

// NewPostgres creates a PostgresCache with a small connection pool.
func NewPostgres(ctx context.Context, connString, slot string) (*PostgresCache, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	if slot == "" {
		slot = DefaultSlot
	}
	return &PostgresCache{pool: pool, slot: slot, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS payload_cache (
	slot       TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	payload    BYTEA NOT NULL,
	format     TEXT NOT NULL DEFAULT 'csv',
	source_url TEXT NOT NULL DEFAULT '',
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the cache table.
func (s *PostgresCache) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close implements Cache.
func (s *PostgresCache) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Get implements Cache.
func (s *PostgresCache) Get(ctx context.Context) (*Entry, error) {
	var (
		e       Entry
		payload []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, payload, format, source_url, fetched_at FROM payload_cache WHERE slot = $1`,
		s.slot,
	).Scan(&e.ID, &payload, &e.Format, &e.SourceURL, &e.FetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached payload")
	}
	e.Payload = string(payload)
	return &e, nil
}

// Set implements Cache.
func (s *PostgresCache) Set(ctx context.Context, e Entry) error {
	e = stamp(e)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO payload_cache (slot, id, payload, format, source_url, fetched_at) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (slot) DO UPDATE SET id = $2, payload = $3, format = $4, source_url = $5, fetched_at = $6`,
		s.slot, e.ID, []byte(e.Payload), e.Format, e.SourceURL, e.FetchedAt,
	)
	return eris.Wrap(err, "postgres: set cached payload")
}

// Clear implements Cache.
func (s *PostgresCache) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM payload_cache WHERE slot = $1`, s.slot)
	return eris.Wrap(err, "postgres: clear cached payload")
}
