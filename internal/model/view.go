package model

// SelectionKind identifies which of the two view states is active.
type SelectionKind string

const (
	SelectionAllShops SelectionKind = "all_shops"
	SelectionDetail   SelectionKind = "detail"
)

// Selection is the two-state view machine: either every listing passing the
// current filters is shown, or a single listing is shown in detail.
type Selection struct {
	Kind    SelectionKind `json:"kind"`
	Listing *Listing      `json:"listing,omitempty"`
}

// AllShops returns the overview selection.
func AllShops() Selection {
	return Selection{Kind: SelectionAllShops}
}

// Detail returns a selection focused on l.
func Detail(l Listing) Selection {
	return Selection{Kind: SelectionDetail, Listing: &l}
}

// IsDetail reports whether a single listing is selected.
func (s Selection) IsDetail() bool {
	return s.Kind == SelectionDetail && s.Listing != nil
}

// LatLng is a geographic coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a south-west / north-east bounding box.
type Bounds struct {
	SouthWest LatLng `json:"south_west"`
	NorthEast LatLng `json:"north_east"`
}

// Viewport is a map camera request: either Bounds to fit, or a Center and Zoom.
type Viewport struct {
	Bounds *Bounds `json:"bounds,omitempty"`
	Center *LatLng `json:"center,omitempty"`
	Zoom   int     `json:"zoom,omitempty"`
}

// Marker is one point placed on the map collaborator's marker layer.
type Marker struct {
	Key       string  `json:"key"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Color     string  `json:"color"`
	Tooltip   string  `json:"tooltip"`
}

// LegendEntry describes one rating bucket in the map legend.
type LegendEntry struct {
	Bucket int    `json:"bucket"`
	Label  string `json:"label"`
	Color  string `json:"color"`
	Active bool   `json:"active"`
}
