package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucket(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{5.9, 5},
		{5, 5},
		{0, 0},
		{-3, 0},
		{3.2, 3},
		{0.99, 0},
		{4.999, 4},
		{math.NaN(), 0},
		{math.Inf(1), 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bucket(tt.in), "Bucket(%v)", tt.in)
	}
}

func TestListingKey_StableAcrossInstances(t *testing.T) {
	a := Listing{Name: "Ruby Mart", Latitude: 16.8409, Longitude: 96.1735, Rating: 4}
	b := Listing{Name: " ruby mart ", Latitude: 16.8409, Longitude: 96.1735, Phone: "123"}
	c := Listing{Name: "Ruby Mart", Latitude: 16.8410, Longitude: 96.1735}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Len(t, a.Key(), 16)
}

func TestListingHasCoordinates(t *testing.T) {
	assert.True(t, Listing{Latitude: 1, Longitude: 2}.HasCoordinates())
	assert.False(t, Listing{Latitude: math.NaN(), Longitude: 2}.HasCoordinates())
	assert.False(t, Listing{Latitude: 1, Longitude: math.Inf(-1)}.HasCoordinates())
}

func TestListingInitials(t *testing.T) {
	assert.Equal(t, "C", Listing{Name: "crystal store"}.Initials())
	assert.Equal(t, "Á", Listing{Name: "ámbar"}.Initials())
	assert.Equal(t, "S", Listing{Name: "   "}.Initials())
}

func TestStarsText(t *testing.T) {
	assert.Equal(t, "★★★☆☆", StarsText(3))
	assert.Equal(t, "☆☆☆☆☆", StarsText(0))
	assert.Equal(t, "★★★★★", StarsText(9))
}

func TestGroupSet(t *testing.T) {
	g := NewGroupSet(5, 3, 9, -1)
	assert.True(t, g.Has(5))
	assert.True(t, g.Has(3))
	assert.False(t, g.Has(9))
	assert.Equal(t, []int{5, 3}, g.Sorted())

	all := AllGroups()
	assert.Equal(t, []int{5, 4, 3, 2, 1, 0}, all.Sorted())

	clone := all.Clone()
	delete(clone, 0)
	assert.True(t, all.Has(0))

	var none GroupSet
	assert.Nil(t, none.Clone())
	assert.NotNil(t, GroupSet{}.Clone())
}

func TestDefaultCriteria(t *testing.T) {
	c := DefaultCriteria()
	assert.Equal(t, 0, c.MinRating)
	assert.Len(t, c.RatingGroups, 6)
	assert.Empty(t, c.SearchText)
}

func TestSelection(t *testing.T) {
	assert.False(t, AllShops().IsDetail())
	d := Detail(Listing{Name: "x"})
	assert.True(t, d.IsDetail())
	assert.Equal(t, "x", d.Listing.Name)
}

func TestBucketPalette(t *testing.T) {
	assert.Equal(t, "#10b981", BucketColor(5))
	assert.Equal(t, "#ef4444", BucketColor(1))
	assert.Equal(t, "#9ca3af", BucketColor(0))
	assert.Equal(t, "#9ca3af", BucketColor(-2))
	assert.Equal(t, "#10b981", BucketColor(8))

	assert.Equal(t, "5★", BucketLabel(5))
	assert.Equal(t, "3★", BucketLabel(3))
	assert.Equal(t, "unrated", BucketLabel(0))
}
