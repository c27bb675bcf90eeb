package listing

import "github.com/sells-group/shopmap/internal/model"

// Group is the listings of one rating bucket.
type Group struct {
	Bucket   int             `json:"bucket"`
	Label    string          `json:"label"`
	Color    string          `json:"color"`
	Listings []model.Listing `json:"listings"`
}

// GroupByBucket partitions listings by rating bucket, highest bucket first.
// Buckets without listings are omitted and input order is kept within a bucket.
func GroupByBucket(listings []model.Listing) []Group {
	var buckets [model.MaxRating + 1][]model.Listing
	for _, l := range listings {
		b := l.Bucket()
		buckets[b] = append(buckets[b], l)
	}

	var out []Group
	for b := model.MaxRating; b >= model.MinRating; b-- {
		if len(buckets[b]) == 0 {
			continue
		}
		out = append(out, Group{
			Bucket:   b,
			Label:    model.BucketLabel(b),
			Color:    model.BucketColor(b),
			Listings: buckets[b],
		})
	}
	return out
}

// Summary counts listings overall and per rating bucket.
type Summary struct {
	Total     int         `json:"total"`
	PerBucket map[int]int `json:"per_bucket"`
}

// Summarize builds a Summary for listings.
func Summarize(listings []model.Listing) Summary {
	s := Summary{Total: len(listings), PerBucket: make(map[int]int, model.MaxRating+1)}
	for _, l := range listings {
		s.PerBucket[l.Bucket()]++
	}
	return s
}
