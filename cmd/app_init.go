package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/shopmap/internal/config"
	"github.com/sells-group/shopmap/internal/fetcher"
	"github.com/sells-group/shopmap/internal/ingest"
	"github.com/sells-group/shopmap/internal/listing"
	"github.com/sells-group/shopmap/internal/model"
	"github.com/sells-group/shopmap/internal/normalize"
	"github.com/sells-group/shopmap/internal/offline"
	"github.com/sells-group/shopmap/internal/viewsync"
)

// appEnv holds everything the serve/ingest/list/export commands share.
type appEnv struct {
	Cache      offline.Cache
	Source     *fetcher.Source
	Frame      *viewsync.Snapshot
	Controller *viewsync.Controller
	Ingester   *ingest.Ingester
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Cache != nil {
		_ = e.Cache.Close()
	}
}

// initApp validates the config for mode and builds the source, cache,
// controller and ingester. Callers should defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	src, err := fetcher.NewSource(sourceOptions(cfg.Source))
	if err != nil {
		return nil, err
	}

	aliases, err := normalize.LoadAliases(cfg.Directory.AliasesFile)
	if err != nil {
		return nil, err
	}

	cache, err := initCache(ctx)
	if err != nil {
		return nil, err
	}

	frame := viewsync.NewSnapshot()
	store := listing.NewStore(listing.ParseLocale(cfg.Directory.Locale))
	ctrl := viewsync.NewController(store, viewOptions(cfg.Map), frame, frame)

	return &appEnv{
		Cache:      cache,
		Source:     src,
		Frame:      frame,
		Controller: ctrl,
		Ingester:   ingest.New(src, cache, normalize.New(aliases), ctrl),
	}, nil
}

// initCache opens the configured offline cache and applies its schema.
func initCache(ctx context.Context) (offline.Cache, error) {
	c, err := offline.Open(ctx, offline.Options{
		Driver: cfg.Offline.Driver,
		DSN:    cfg.Offline.DatabaseURL,
		Slot:   cfg.Offline.Slot,
	})
	if err != nil {
		return nil, eris.Wrap(err, "init offline cache")
	}
	return c, nil
}

func sourceOptions(sc config.SourceConfig) fetcher.SourceOptions {
	return fetcher.SourceOptions{
		URL:            sc.URL,
		Format:         fetcher.Format(sc.Format),
		CacheBustParam: sc.CacheBustParam,
		SheetName:      sc.SheetName,
		HTTP: fetcher.HTTPOptions{
			UserAgent:   sc.UserAgent,
			Timeout:     time.Duration(sc.TimeoutSecs) * time.Second,
			MaxAttempts: sc.MaxAttempts,
			RatePerSec:  sc.RatePerSec,
		},
		FTP: fetcher.FTPOptions{
			Timeout: time.Duration(sc.TimeoutSecs) * time.Second,
		},
	}
}

func viewOptions(mc config.MapConfig) viewsync.Options {
	return viewsync.Options{
		DefaultCenter: model.LatLng{Lat: mc.DefaultLat, Lng: mc.DefaultLng},
		DefaultZoom:   mc.DefaultZoom,
		DetailZoom:    mc.DetailZoom,
		Padding:       mc.Padding,
	}
}
