package viewsync

import (
	"sync"

	"github.com/sells-group/shopmap/internal/model"
)

// MapRenderer is the map collaborator. RenderMarkers replaces the whole
// marker layer.
type MapRenderer interface {
	RenderMarkers(markers []model.Marker)
	SetViewport(vp model.Viewport)
}

// ListRenderer is the list and detail collaborator.
type ListRenderer interface {
	RenderList(listings []model.Listing)
	RenderDetail(l model.Listing)
}

// Snapshot records the latest frame pushed by a Controller. It implements
// both renderer interfaces and is safe for concurrent readers.
type Snapshot struct {
	mu       sync.RWMutex
	markers  []model.Marker
	viewport model.Viewport
	list     []model.Listing
	detail   *model.Listing
	frames   int
}

// NewSnapshot creates an empty Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// RenderMarkers implements MapRenderer.
func (s *Snapshot) RenderMarkers(markers []model.Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = append([]model.Marker(nil), markers...)
	s.frames++
}

// SetViewport implements MapRenderer.
func (s *Snapshot) SetViewport(vp model.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = vp
}

// RenderList implements ListRenderer. It clears any detail panel.
func (s *Snapshot) RenderList(listings []model.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append([]model.Listing(nil), listings...)
	s.detail = nil
}

// RenderDetail implements ListRenderer.
func (s *Snapshot) RenderDetail(l model.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detail = &l
}

// Frame is one consistent copy of everything a Snapshot holds.
type Frame struct {
	Markers  []model.Marker
	Viewport model.Viewport
	List     []model.Listing
	Detail   *model.Listing
}

// Frame returns the current markers, viewport, list and detail read under
// a single lock, so they always belong to the same render.
func (s *Snapshot) Frame() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := Frame{
		Markers:  append([]model.Marker(nil), s.markers...),
		Viewport: s.viewport,
		List:     append([]model.Listing(nil), s.list...),
	}
	if s.detail != nil {
		d := *s.detail
		f.Detail = &d
	}
	return f
}

// RenderFrame replaces markers, viewport, list and detail in one step.
func (s *Snapshot) RenderFrame(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = append([]model.Marker(nil), f.Markers...)
	s.viewport = f.Viewport
	s.list = append([]model.Listing(nil), f.List...)
	s.detail = nil
	if f.Detail != nil {
		d := *f.Detail
		s.detail = &d
	}
	s.frames++
}

// Markers returns the current marker layer.
func (s *Snapshot) Markers() []model.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Marker(nil), s.markers...)
}

// Viewport returns the last requested viewport.
func (s *Snapshot) Viewport() model.Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

// List returns the listings last sent to the list.
func (s *Snapshot) List() []model.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Listing(nil), s.list...)
}

// Detail returns the listing shown in the detail panel, if any.
func (s *Snapshot) Detail() (model.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.detail == nil {
		return model.Listing{}, false
	}
	return *s.detail, true
}

// Frames counts marker layer rebuilds.
func (s *Snapshot) Frames() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}
