package offline

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteCache implements Cache using modernc.org/sqlite.
type SQLiteCache struct {
	db   *sql.DB
	slot string
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn, slot string) (*SQLiteCache, error) {
	if dsn == "" {
		return nil, eris.New("sqlite: empty database path")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if slot == "" {
		slot = DefaultSlot
	}
	return &SQLiteCache{db: db, slot: slot}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS payload_cache (
	slot       TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	payload    BLOB NOT NULL,
	format     TEXT NOT NULL DEFAULT 'csv',
	source_url TEXT NOT NULL DEFAULT '',
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate creates the cache table.
func (s *SQLiteCache) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close implements Cache.
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

// Get implements Cache.
func (s *SQLiteCache) Get(ctx context.Context) (*Entry, error) {
	var (
		e       Entry
		payload []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, payload, format, source_url, fetched_at FROM payload_cache WHERE slot = ?`,
		s.slot,
	).Scan(&e.ID, &payload, &e.Format, &e.SourceURL, &e.FetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get cached payload")
	}
	e.Payload = string(payload)
	return &e, nil
}

// Set implements Cache.
func (s *SQLiteCache) Set(ctx context.Context, e Entry) error {
	e = stamp(e)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payload_cache (slot, id, payload, format, source_url, fetched_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (slot) DO UPDATE SET id = excluded.id, payload = excluded.payload, format = excluded.format,
		 source_url = excluded.source_url, fetched_at = excluded.fetched_at`,
		s.slot, e.ID, []byte(e.Payload), e.Format, e.SourceURL, e.FetchedAt,
	)
	return eris.Wrap(err, "sqlite: set cached payload")
}

// Clear implements Cache.
func (s *SQLiteCache) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM payload_cache WHERE slot = ?`, s.slot)
	return eris.Wrap(err, "sqlite: clear cached payload")
}

// stamp fills the generated fields of an entry.
func stamp(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now().UTC()
	}
	return e
}
