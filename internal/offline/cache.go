// Package offline keeps the last successfully retrieved spreadsheet payload
// so ingestion can fall back to it when the source is unreachable.
package offline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// Entry is the single cached payload of a slot.
type Entry struct {
	ID        string    `json:"id"`
	Payload   string    `json:"-"`
	Format    string    `json:"format"`
	SourceURL string    `json:"source_url"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Cache stores one raw payload per slot. Set replaces any previous value.
type Cache interface {
	// Get returns the cached entry, or nil when the slot is empty.
	Get(ctx context.Context) (*Entry, error)
	Set(ctx context.Context, e Entry) error
	Clear(ctx context.Context) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultSlot is the slot used when none is configured.
const DefaultSlot = "default"

// Options selects and configures a Cache implementation.
type Options struct {
	Driver string
	DSN    string
	Slot   string
}

// Open creates the configured cache and applies its schema.
func Open(ctx context.Context, opts Options) (Cache, error) {
	if opts.Slot == "" {
		opts.Slot = DefaultSlot
	}
	switch opts.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, "":
		c, err := NewSQLite(opts.DSN, opts.Slot)
		if err != nil {
			return nil, err
		}
		if err := c.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
		return c, nil
	case DriverPostgres:
		c, err := NewPostgres(ctx, opts.DSN, opts.Slot)
		if err != nil {
			return nil, err
		}
		if err := c.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
		return c, nil
	default:
		return nil, eris.Errorf("offline: unknown driver %q", opts.Driver)
	}
}

// MemoryCache is an in-process Cache. It does not survive restarts.
type MemoryCache struct {
	mu    sync.RWMutex
	entry *Entry
}

// NewMemory creates an empty MemoryCache.
func NewMemory() *MemoryCache {
	return &MemoryCache{}
}

// Get implements Cache.
func (m *MemoryCache) Get(_ context.Context) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.entry == nil {
		return nil, nil
	}
	e := *m.entry
	return &e, nil
}

// Set implements Cache.
func (m *MemoryCache) Set(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e = stamp(e)
	m.entry = &e
	return nil
}

// Clear implements Cache.
func (m *MemoryCache) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = nil
	return nil
}

// Close implements Cache.
func (m *MemoryCache) Close() error { return nil }
