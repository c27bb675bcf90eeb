// Package ingest runs ingestion cycles: retrieve the published spreadsheet,
// fall back to the offline copy when retrieval fails, normalize the rows and
// hand the listings to the view controller.
package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shopmap/internal/fetcher"
	"github.com/sells-group/shopmap/internal/listing"
	"github.com/sells-group/shopmap/internal/model"
	"github.com/sells-group/shopmap/internal/normalize"
	"github.com/sells-group/shopmap/internal/offline"
)

var (
	// ErrIngestionFailure means retrieval failed and no usable cached
	// payload exists. It is the only ingestion error shown to users.
	ErrIngestionFailure = eris.New("ingest: source unavailable and no cached copy")

	// ErrStaleResponse marks a cycle whose result was superseded by a newer
	// cycle that completed first. Its listings were not applied.
	ErrStaleResponse = eris.New("ingest: stale response discarded")
)

// Origin tells where a cycle's payload came from.
type Origin string

// Payload origins.
const (
	OriginLive  Origin = "live"
	OriginCache Origin = "cache"
)

// Source retrieves and decodes the spreadsheet payload.
type Source interface {
	Retrieve(ctx context.Context) (string, error)
	Decode(payload string) ([][]string, error)
	Format() fetcher.Format
	URL() string
}

// Applier receives the listings of a completed cycle.
type Applier interface {
	Replace(listings []model.Listing)
}

// Result describes one ingestion cycle.
type Result struct {
	CycleID     string          `json:"cycle_id"`
	Seq         uint64          `json:"seq"`
	Origin      Origin          `json:"origin"`
	Listings    []model.Listing `json:"-"`
	Stats       normalize.Stats `json:"stats"`
	Summary     listing.Summary `json:"summary"`
	Stale       bool            `json:"stale"`
	CompletedAt time.Time       `json:"completed_at"`
}

// Ingester runs ingestion cycles. Run may be called concurrently; the
// latest-started cycle to complete wins and older completions are dropped.
type Ingester struct {
	source     Source
	cache      offline.Cache
	normalizer *normalize.Normalizer
	apply      Applier

	seq     atomic.Uint64
	mu      sync.Mutex
	applied uint64
	last    *Result
}

// New creates an Ingester. A nil normalizer uses the built-in alias table.
func New(source Source, cache offline.Cache, normalizer *normalize.Normalizer, apply Applier) *Ingester {
	if normalizer == nil {
		normalizer = normalize.New(nil)
	}
	return &Ingester{
		source:     source,
		cache:      cache,
		normalizer: normalizer,
		apply:      apply,
	}
}

// Run executes one cycle. On success the listings have been applied and, for
// a live payload, the offline cache updated. A superseded cycle returns its
// Result with Stale set and an error wrapping ErrStaleResponse.
func (in *Ingester) Run(ctx context.Context) (*Result, error) {
	seq := in.seq.Add(1)
	res := &Result{CycleID: uuid.New().String(), Seq: seq}
	log := zap.L().With(zap.String("cycle_id", res.CycleID), zap.Uint64("seq", seq))

	payload, rows, err := in.live(ctx)
	res.Origin = OriginLive
	if err != nil {
		log.Warn("ingest: retrieval failed, using offline copy", zap.Error(err))
		payload, rows, err = in.fallback(ctx, err)
		if err != nil {
			log.Error("ingest: cycle failed", zap.Error(err))
			return nil, err
		}
		res.Origin = OriginCache
	}

	listings, stats := in.normalizer.Normalize(rows)
	res.Listings = listings
	res.Stats = stats
	res.Summary = listing.Summarize(listings)

	in.mu.Lock()
	defer in.mu.Unlock()

	if seq < in.applied {
		res.Stale = true
		log.Debug("ingest: discarding stale response", zap.Uint64("applied_seq", in.applied))
		return res, eris.Wrapf(ErrStaleResponse, "cycle %d superseded by %d", seq, in.applied)
	}
	in.applied = seq

	if res.Origin == OriginLive && in.cache != nil {
		entry := offline.Entry{
			Payload:   payload,
			Format:    string(in.source.Format()),
			SourceURL: in.source.URL(),
		}
		if err := in.cache.Set(ctx, entry); err != nil {
			log.Warn("ingest: failed to update offline copy", zap.Error(err))
		}
	}

	if in.apply != nil {
		in.apply.Replace(listings)
	}
	res.CompletedAt = time.Now().UTC()
	in.last = res

	if len(listings) == 0 {
		log.Info("ingest: source has no valid listings", zap.Int("rows", stats.Rows))
	}
	log.Info("ingest: cycle complete",
		zap.String("origin", string(res.Origin)),
		zap.Int("listings", stats.Kept),
		zap.Int("dropped", stats.Dropped),
		zap.Int("blank", stats.Blank),
	)
	return res, nil
}

// Last returns the most recently applied cycle, or nil.
func (in *Ingester) Last() *Result {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.last
}

// live retrieves and decodes the current payload. A payload that cannot be
// decoded counts as a failed retrieval.
func (in *Ingester) live(ctx context.Context) (string, [][]string, error) {
	payload, err := in.source.Retrieve(ctx)
	if err != nil {
		return "", nil, err
	}
	rows, err := in.source.Decode(payload)
	if err != nil {
		return "", nil, eris.Wrap(err, "ingest: decode live payload")
	}
	return payload, rows, nil
}

func (in *Ingester) fallback(ctx context.Context, cause error) (string, [][]string, error) {
	if in.cache == nil {
		return "", nil, eris.Wrapf(ErrIngestionFailure, "no offline cache configured: %v", cause)
	}
	entry, err := in.cache.Get(ctx)
	if err != nil {
		return "", nil, eris.Wrapf(ErrIngestionFailure, "read offline copy: %v (retrieval: %v)", err, cause)
	}
	if entry == nil {
		return "", nil, eris.Wrapf(ErrIngestionFailure, "%v", cause)
	}
	if entry.Format != "" && entry.Format != string(in.source.Format()) {
		return "", nil, eris.Wrapf(ErrIngestionFailure,
			"offline copy is %s but source is %s (retrieval: %v)", entry.Format, in.source.Format(), cause)
	}
	rows, err := in.source.Decode(entry.Payload)
	if err != nil {
		return "", nil, eris.Wrapf(ErrIngestionFailure, "decode offline copy: %v", err)
	}
	return entry.Payload, rows, nil
}

// Watch runs a cycle every interval until ctx is cancelled. Failed cycles
// are logged and the loop continues with the next tick. Superseded cycles
// are not failures.
func (in *Ingester) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return eris.Errorf("ingest: invalid refresh interval %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_, err := in.Run(ctx)
			logScheduled(zap.L(), err)
		}
	}
}

// logScheduled reports the outcome of a scheduled cycle. A superseded cycle
// is logged at debug level only.
func logScheduled(log *zap.Logger, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrStaleResponse):
		log.Debug("ingest: scheduled refresh superseded", zap.Error(err))
	default:
		log.Warn("ingest: scheduled refresh failed", zap.Error(err))
	}
}
