// Package api exposes the directory to browser list and map clients over
// HTTP. Every mutating route goes through the view controller.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/shopmap/internal/ingest"
	"github.com/sells-group/shopmap/internal/offline"
	"github.com/sells-group/shopmap/internal/viewsync"
)

// Refresher runs ingestion cycles on demand.
type Refresher interface {
	Run(ctx context.Context) (*ingest.Result, error)
	Last() *ingest.Result
}

// Options configures the HTTP surface.
type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Server wires the controller, its rendered frame and the ingester to routes.
type Server struct {
	ctrl    *viewsync.Controller
	frame   *viewsync.Snapshot
	refresh Refresher
	cache   offline.Cache
	opts    Options
}

// NewServer creates a Server. frame must be the renderer the controller
// draws into.
func NewServer(ctrl *viewsync.Controller, frame *viewsync.Snapshot, refresh Refresher, cache offline.Cache, opts Options) *Server {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{ctrl: ctrl, frame: frame, refresh: refresh, cache: cache, opts: opts}
}

// Handler returns the chi router serving all routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/listings", s.handleListings)
		r.Get("/groups", s.handleGroups)
		r.Get("/map", s.handleMap)
		r.Get("/legend", s.handleLegend)
		r.Get("/state", s.handleState)
		r.Get("/export.csv", s.handleExport)

		r.Post("/filter", s.handleFilter)
		r.Post("/groups", s.handleSetGroups)
		r.Post("/select/{key}", s.handleSelect)
		r.Post("/back", s.handleBack)
		r.Post("/view-all", s.handleViewAll)
		r.Post("/refresh", s.handleRefresh)
	})

	return r
}

// requestLogger logs each request with zap once the response is written.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
