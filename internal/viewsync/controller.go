// Package viewsync keeps the list and map views of the directory consistent.
// A Controller owns the selection state machine and pushes declarative
// frames to the list and map collaborators.
package viewsync

import (
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shopmap/internal/listing"
	"github.com/sells-group/shopmap/internal/model"
)

// ErrUnknownListing is returned when a selection names a listing that is not
// in the store.
var ErrUnknownListing = eris.New("viewsync: unknown listing")

// State is a read-only copy of the controller's state.
type State struct {
	Selection model.Selection      `json:"selection"`
	Criteria  model.FilterCriteria `json:"criteria"`
	Groups    []int                `json:"groups"`
	Viewport  model.Viewport       `json:"viewport"`
	Total     int                  `json:"total"`
	Visible   int                  `json:"visible"`
}

// Controller is the single authority over what is selected and shown.
// Events are serialized: each handler runs to completion before the next.
type Controller struct {
	mu        sync.Mutex
	opts      Options
	store     *listing.Store
	criteria  model.FilterCriteria
	selection model.Selection
	view      []model.Listing
	markers   []model.Marker
	viewport  model.Viewport
	mapView   MapRenderer
	listView  ListRenderer
}

// NewController creates a controller in the AllShops state with criteria
// that exclude nothing. Nil renderers are replaced by no-ops.
func NewController(store *listing.Store, opts Options, mapView MapRenderer, listView ListRenderer) *Controller {
	if mapView == nil {
		mapView = noopRenderer{}
	}
	if listView == nil {
		listView = noopRenderer{}
	}
	c := &Controller{
		opts:      opts,
		store:     store,
		criteria:  model.DefaultCriteria(),
		selection: model.AllShops(),
		mapView:   mapView,
		listView:  listView,
	}
	c.derive()
	c.viewport = FitViewport(c.view, c.opts)
	return c
}

// Replace swaps in the listings of a new ingestion cycle. Filters are kept.
// A Detail selection follows its listing into the new data, or reverts to
// AllShops when the listing is gone.
func (c *Controller) Replace(listings []model.Listing) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.SetAll(listings)
	c.derive()

	if c.selection.IsDetail() {
		key := c.selection.Listing.Key()
		if l, ok := c.store.Find(key); ok {
			c.focus(l)
			c.render()
			return
		}
		zap.L().Info("viewsync: selected listing gone after refresh, showing all", zap.String("key", key))
	}
	c.showAll()
	c.render()
}

// SelectListing moves to Detail for the listing with key. It is the target
// of both list clicks and map marker clicks.
func (c *Controller) SelectListing(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.store.Find(key)
	if !ok {
		return eris.Wrapf(ErrUnknownListing, "select %q", key)
	}
	c.focus(l)
	c.render()
	return nil
}

// Back returns from the detail panel to the list.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showAll()
	c.render()
}

// ViewAll shows every listing of the derived view on the map.
func (c *Controller) ViewAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showAll()
	c.render()
}

// SetFilter updates the minimum rating and search text.
func (c *Controller) SetFilter(minRating int, search string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria.MinRating = model.ClampRating(minRating)
	c.criteria.SearchText = strings.TrimSpace(search)
	c.refilter()
}

// SetGroups replaces the set of included rating buckets. An empty set hides
// every listing; nil restores all buckets.
func (c *Controller) SetGroups(groups model.GroupSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if groups == nil {
		groups = model.AllGroups()
	}
	c.criteria.RatingGroups = groups.Clone()
	c.refilter()
}

// Render pushes the current state to the collaborators again. Repeated calls
// produce identical frames.
func (c *Controller) Render() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.render()
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	sel := c.selection
	if sel.Listing != nil {
		l := *sel.Listing
		sel.Listing = &l
	}
	crit := c.criteria
	crit.RatingGroups = crit.RatingGroups.Clone()
	return State{
		Selection: sel,
		Criteria:  crit,
		Groups:    crit.RatingGroups.Sorted(),
		Viewport:  c.viewport,
		Total:     c.store.Len(),
		Visible:   len(c.view),
	}
}

// View returns the derived view: listings passing the current filter and
// group selection, in store order.
func (c *Controller) View() []model.Listing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Listing(nil), c.view...)
}

// Grouped returns the derived view partitioned by rating bucket.
func (c *Controller) Grouped() []listing.Group {
	c.mu.Lock()
	defer c.mu.Unlock()
	return listing.GroupByBucket(c.view)
}

// Legend returns the map legend for the current group selection.
func (c *Controller) Legend() []model.LegendEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BuildLegend(c.criteria.RatingGroups)
}

// All returns every listing in the store.
func (c *Controller) All() []model.Listing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.All()
}

// refilter recomputes the derived view after a criteria change. In Detail
// the selection and camera stay put; only the marker layer and list follow.
func (c *Controller) refilter() {
	c.derive()
	if !c.selection.IsDetail() {
		c.viewport = FitViewport(c.view, c.opts)
	}
	c.render()
}

func (c *Controller) derive() {
	c.view = c.store.ApplyFilter(c.criteria)
	c.markers = BuildMarkers(c.view)
}

func (c *Controller) focus(l model.Listing) {
	c.selection = model.Detail(l)
	c.viewport = FocusViewport(l, c.opts)
}

func (c *Controller) showAll() {
	c.selection = model.AllShops()
	c.viewport = FitViewport(c.view, c.opts)
}

func (c *Controller) render() {
	// A Snapshot serving both views takes the whole frame under one lock.
	if snap, ok := c.mapView.(*Snapshot); ok && c.listView == ListRenderer(snap) {
		f := Frame{Markers: c.markers, Viewport: c.viewport, List: c.view}
		if c.selection.IsDetail() {
			f.Detail = c.selection.Listing
		}
		snap.RenderFrame(f)
		return
	}

	c.mapView.RenderMarkers(c.markers)
	c.mapView.SetViewport(c.viewport)
	c.listView.RenderList(c.view)
	if c.selection.IsDetail() {
		c.listView.RenderDetail(*c.selection.Listing)
	}
}

type noopRenderer struct{}

func (noopRenderer) RenderMarkers([]model.Marker) {}
func (noopRenderer) SetViewport(model.Viewport)   {}
func (noopRenderer) RenderList([]model.Listing)   {}
func (noopRenderer) RenderDetail(model.Listing)   {}
