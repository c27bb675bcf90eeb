package model

import "sort"

// GroupSet is a set of rating buckets.
type GroupSet map[int]struct{}

// AllGroups returns the full bucket set {0..5}.
func AllGroups() GroupSet {
	g := make(GroupSet, MaxRating+1)
	for b := MinRating; b <= MaxRating; b++ {
		g[b] = struct{}{}
	}
	return g
}

// NewGroupSet builds a set from bucket values. Values outside [0,5] are ignored.
func NewGroupSet(buckets ...int) GroupSet {
	g := make(GroupSet, len(buckets))
	for _, b := range buckets {
		if b < MinRating || b > MaxRating {
			continue
		}
		g[b] = struct{}{}
	}
	return g
}

// Has reports whether bucket b is in the set.
func (g GroupSet) Has(b int) bool {
	_, ok := g[b]
	return ok
}

// Sorted returns the buckets in descending order, matching legend order.
func (g GroupSet) Sorted() []int {
	out := make([]int, 0, len(g))
	for b := range g {
		out = append(out, b)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// Clone returns an independent copy of the set. A nil set stays nil.
func (g GroupSet) Clone() GroupSet {
	if g == nil {
		return nil
	}
	out := make(GroupSet, len(g))
	for b := range g {
		out[b] = struct{}{}
	}
	return out
}

// FilterCriteria holds the user's current filter and grouping choices. The
// zero value excludes nothing: a nil RatingGroups means every bucket.
type FilterCriteria struct {
	MinRating    int      `json:"min_rating"`
	RatingGroups GroupSet `json:"-"`
	SearchText   string   `json:"search_text"`
}

// DefaultCriteria returns criteria that exclude nothing.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{
		MinRating:    MinRating,
		RatingGroups: AllGroups(),
	}
}

// ClampRating coerces a minimum-rating value into [0,5].
func ClampRating(r int) int {
	if r < MinRating {
		return MinRating
	}
	if r > MaxRating {
		return MaxRating
	}
	return r
}
