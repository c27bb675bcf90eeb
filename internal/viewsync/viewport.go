package viewsync

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/shopmap/internal/model"
)

// Options holds the camera defaults used when fitting the map.
type Options struct {
	DefaultCenter model.LatLng
	DefaultZoom   int
	DetailZoom    int
	Padding       float64 // fraction of the span added on every side
}

// DefaultOptions returns the Yangon-centered defaults of the directory.
func DefaultOptions() Options {
	return Options{
		DefaultCenter: model.LatLng{Lat: 16.8409, Lng: 96.1735},
		DefaultZoom:   12,
		DetailZoom:    16,
		Padding:       0.2,
	}
}

// FitViewport returns the padded bounding box of listings, or the default
// center and zoom when there is nothing to fit.
func FitViewport(listings []model.Listing, opts Options) model.Viewport {
	flat := make([]float64, 0, 2*len(listings))
	for _, l := range listings {
		if !l.HasCoordinates() {
			continue
		}
		flat = append(flat, l.Longitude, l.Latitude)
	}
	if len(flat) == 0 {
		center := opts.DefaultCenter
		return model.Viewport{Center: &center, Zoom: opts.DefaultZoom}
	}

	b := geom.NewMultiPointFlat(geom.XY, flat).Bounds()
	minLng, minLat := b.Min(0), b.Min(1)
	maxLng, maxLat := b.Max(0), b.Max(1)

	pad := opts.Padding
	if pad < 0 {
		pad = 0
	}
	padLng := (maxLng - minLng) * pad
	padLat := (maxLat - minLat) * pad

	return model.Viewport{Bounds: &model.Bounds{
		SouthWest: model.LatLng{Lat: minLat - padLat, Lng: minLng - padLng},
		NorthEast: model.LatLng{Lat: maxLat + padLat, Lng: maxLng + padLng},
	}}
}

// FocusViewport centers the map on a single listing at the detail zoom.
func FocusViewport(l model.Listing, opts Options) model.Viewport {
	center := model.LatLng{Lat: l.Latitude, Lng: l.Longitude}
	return model.Viewport{Center: &center, Zoom: opts.DetailZoom}
}
