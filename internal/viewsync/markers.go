package viewsync

import (
	"fmt"

	"github.com/sells-group/shopmap/internal/model"
)

// BuildMarkers returns one marker per listing, colored by rating bucket.
func BuildMarkers(listings []model.Listing) []model.Marker {
	out := make([]model.Marker, 0, len(listings))
	for _, l := range listings {
		out = append(out, model.Marker{
			Key:       l.Key(),
			Latitude:  l.Latitude,
			Longitude: l.Longitude,
			Color:     model.BucketColor(l.Bucket()),
			Tooltip:   Tooltip(l),
		})
	}
	return out
}

// Tooltip is the marker hover text, e.g. "Ruby Mart (★★★☆☆)".
func Tooltip(l model.Listing) string {
	return fmt.Sprintf("%s (%s)", l.Name, model.StarsText(l.Rating))
}

// BuildLegend lists every bucket from 5 down to unrated, marking the buckets
// included by groups as active.
func BuildLegend(groups model.GroupSet) []model.LegendEntry {
	out := make([]model.LegendEntry, 0, model.MaxRating+1)
	for b := model.MaxRating; b >= model.MinRating; b-- {
		out = append(out, model.LegendEntry{
			Bucket: b,
			Label:  model.BucketLabel(b),
			Color:  model.BucketColor(b),
			Active: groups.Has(b),
		})
	}
	return out
}
