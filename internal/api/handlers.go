package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/shopmap/internal/export"
	"github.com/sells-group/shopmap/internal/ingest"
	"github.com/sells-group/shopmap/internal/listing"
	"github.com/sells-group/shopmap/internal/model"
	"github.com/sells-group/shopmap/internal/viewsync"
)

// listingView is a listing as sent to list clients.
type listingView struct {
	model.Listing
	Key      string `json:"key"`
	Initials string `json:"initials"`
	Bucket   int    `json:"bucket"`
	Color    string `json:"color"`
	Stars    string `json:"stars"`
}

type groupView struct {
	Bucket   int           `json:"bucket"`
	Label    string        `json:"label"`
	Color    string        `json:"color"`
	Listings []listingView `json:"listings"`
}

type stateView struct {
	viewsync.State
	LastCycle *ingest.Result `json:"last_cycle,omitempty"`
}

type filterRequest struct {
	MinRating int    `json:"min_rating"`
	Search    string `json:"search"`
}

type groupsRequest struct {
	Groups []int `json:"groups"`
}

func toListingViews(ls []model.Listing) []listingView {
	out := make([]listingView, 0, len(ls))
	for _, l := range ls {
		out = append(out, listingView{
			Listing:  l,
			Key:      l.Key(),
			Initials: l.Initials(),
			Bucket:   l.Bucket(),
			Color:    model.BucketColor(l.Bucket()),
			Stars:    model.StarsText(l.Rating),
		})
	}
	return out
}

func toGroupViews(groups []listing.Group) []groupView {
	out := make([]groupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupView{
			Bucket:   g.Bucket,
			Label:    g.Label,
			Color:    g.Color,
			Listings: toListingViews(g.Listings),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) state() stateView {
	st := stateView{State: s.ctrl.State()}
	if s.refresh != nil {
		st.LastCycle = s.refresh.Last()
	}
	return st
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.ctrl.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"listings": st.Total,
	})
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	if grouped, _ := strconv.ParseBool(r.URL.Query().Get("grouped")); grouped {
		writeJSON(w, http.StatusOK, toGroupViews(s.ctrl.Grouped()))
		return
	}
	writeJSON(w, http.StatusOK, toListingViews(s.frame.List()))
}

func (s *Server) handleGroups(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toGroupViews(s.ctrl.Grouped()))
}

func (s *Server) handleMap(w http.ResponseWriter, _ *http.Request) {
	f := s.frame.Frame()
	resp := map[string]any{
		"markers":  f.Markers,
		"viewport": f.Viewport,
	}
	if f.Detail != nil {
		resp["selected"] = f.Detail.Key()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLegend(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Legend())
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.ctrl.SetFilter(req.MinRating, req.Search)
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleSetGroups(w http.ResponseWriter, r *http.Request) {
	var req groupsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, g := range req.Groups {
		if g < model.MinRating || g > model.MaxRating {
			writeError(w, http.StatusBadRequest, "groups must be between 0 and 5")
			return
		}
	}
	s.ctrl.SetGroups(model.NewGroupSet(req.Groups...))
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := s.ctrl.SelectListing(key); err != nil {
		if errors.Is(err, viewsync.ErrUnknownListing) {
			writeError(w, http.StatusNotFound, "listing not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleBack(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.Back()
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleViewAll(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.ViewAll()
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresh == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh not configured")
		return
	}
	res, err := s.refresh.Run(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, ingest.ErrStaleResponse):
		// A newer cycle already applied; answer with the current state.
		zap.L().Debug("api: refresh superseded by a newer cycle", zap.Error(err))
		writeJSON(w, http.StatusOK, s.state())
	case errors.Is(err, ingest.ErrIngestionFailure):
		writeError(w, http.StatusServiceUnavailable, "could not load the shop list and no offline copy is available")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	raw := ""
	if s.cache != nil {
		entry, err := s.cache.Get(r.Context())
		if err != nil {
			zap.L().Warn("api: read offline copy for export", zap.Error(err))
		}
		raw = export.RawPayload(entry)
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="shops.csv"`)
	if err := export.Write(w, raw, s.ctrl.All()); err != nil {
		zap.L().Warn("api: write export", zap.Error(err))
	}
}
