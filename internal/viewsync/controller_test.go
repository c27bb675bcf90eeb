package viewsync

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/sells-group/shopmap/internal/listing"
	"github.com/sells-group/shopmap/internal/model"
)

func testListings() []model.Listing {
	return []model.Listing{
		{Name: "Alpha", Latitude: 10, Longitude: 100, Rating: 5},
		{Name: "Bravo", Latitude: 20, Longitude: 110, Rating: 3},
		{Name: "Charlie", Latitude: 15, Longitude: 105, Rating: 0},
	}
}

func newTestController(t *testing.T) (*Controller, *Snapshot) {
	t.Helper()
	snap := NewSnapshot()
	c := NewController(listing.NewStore(language.English), DefaultOptions(), snap, snap)
	c.Replace(testListings())
	return c, snap
}

func TestController_InitialState(t *testing.T) {
	snap := NewSnapshot()
	c := NewController(listing.NewStore(language.English), DefaultOptions(), snap, snap)

	st := c.State()
	assert.Equal(t, model.SelectionAllShops, st.Selection.Kind)
	assert.Equal(t, []int{5, 4, 3, 2, 1, 0}, st.Groups)
	require.NotNil(t, st.Viewport.Center)
	assert.Equal(t, 12, st.Viewport.Zoom)
}

func TestController_ReplaceFitsAll(t *testing.T) {
	c, snap := newTestController(t)

	st := c.State()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 3, st.Visible)
	require.NotNil(t, st.Viewport.Bounds)
	assert.InDelta(t, 8, st.Viewport.Bounds.SouthWest.Lat, 1e-9)
	assert.InDelta(t, 98, st.Viewport.Bounds.SouthWest.Lng, 1e-9)
	assert.InDelta(t, 22, st.Viewport.Bounds.NorthEast.Lat, 1e-9)
	assert.InDelta(t, 112, st.Viewport.Bounds.NorthEast.Lng, 1e-9)

	assert.Len(t, snap.Markers(), 3)
	assert.Len(t, snap.List(), 3)
	assert.Equal(t, st.Viewport, snap.Viewport())
}

func TestController_SelectAndBack(t *testing.T) {
	c, snap := newTestController(t)
	bravo := testListings()[1]

	require.NoError(t, c.SelectListing(bravo.Key()))
	st := c.State()
	require.True(t, st.Selection.IsDetail())
	assert.Equal(t, "Bravo", st.Selection.Listing.Name)
	require.NotNil(t, st.Viewport.Center)
	assert.Equal(t, model.LatLng{Lat: 20, Lng: 110}, *st.Viewport.Center)
	assert.Equal(t, 16, st.Viewport.Zoom)

	d, ok := snap.Detail()
	require.True(t, ok)
	assert.Equal(t, "Bravo", d.Name)

	c.Back()
	st = c.State()
	assert.Equal(t, model.SelectionAllShops, st.Selection.Kind)
	assert.NotNil(t, st.Viewport.Bounds)
	_, ok = snap.Detail()
	assert.False(t, ok)
}

func TestController_SelectUnknown(t *testing.T) {
	c, _ := newTestController(t)

	err := c.SelectListing("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownListing))
	assert.Equal(t, model.SelectionAllShops, c.State().Selection.Kind)
}

func TestController_ViewAllBoundsFilteredSet(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.SelectListing(testListings()[0].Key()))

	c.SetFilter(3, "")
	c.ViewAll()

	st := c.State()
	assert.Equal(t, model.SelectionAllShops, st.Selection.Kind)
	require.NotNil(t, st.Viewport.Bounds)
	// Alpha (10,100) and Bravo (20,110): span 10, padded by 2 each side.
	assert.InDelta(t, 8, st.Viewport.Bounds.SouthWest.Lat, 1e-9)
	assert.InDelta(t, 22, st.Viewport.Bounds.NorthEast.Lat, 1e-9)
	assert.Equal(t, 2, st.Visible)
}

func TestController_ViewAllEmptyFallsBackToDefault(t *testing.T) {
	c, snap := newTestController(t)

	c.SetGroups(model.NewGroupSet())
	c.ViewAll()

	st := c.State()
	assert.Equal(t, 0, st.Visible)
	assert.Nil(t, st.Viewport.Bounds)
	require.NotNil(t, st.Viewport.Center)
	assert.Equal(t, DefaultOptions().DefaultCenter, *st.Viewport.Center)
	assert.Equal(t, DefaultOptions().DefaultZoom, st.Viewport.Zoom)
	assert.Empty(t, snap.Markers())
}

func TestController_SetGroupsNilRestoresAll(t *testing.T) {
	c, _ := newTestController(t)

	c.SetGroups(model.NewGroupSet(5))
	require.Equal(t, 1, c.State().Visible)

	c.SetGroups(nil)
	st := c.State()
	assert.Equal(t, 3, st.Visible)
	assert.Equal(t, []int{5, 4, 3, 2, 1, 0}, st.Groups)
	for _, e := range c.Legend() {
		assert.True(t, e.Active, "bucket %d", e.Bucket)
	}
}

func TestController_FilterInDetailKeepsDetail(t *testing.T) {
	c, snap := newTestController(t)
	alpha := testListings()[0]
	require.NoError(t, c.SelectListing(alpha.Key()))
	before := c.State().Viewport

	c.SetFilter(4, "")

	st := c.State()
	require.True(t, st.Selection.IsDetail())
	assert.Equal(t, "Alpha", st.Selection.Listing.Name)
	assert.Equal(t, before, st.Viewport)
	// Markers already reflect the new filter.
	require.Len(t, snap.Markers(), 1)
	assert.Equal(t, alpha.Key(), snap.Markers()[0].Key)

	d, ok := snap.Detail()
	require.True(t, ok)
	assert.Equal(t, "Alpha", d.Name)
}

func TestController_ReplaceRebindsDetail(t *testing.T) {
	c, _ := newTestController(t)
	bravo := testListings()[1]
	require.NoError(t, c.SelectListing(bravo.Key()))

	updated := testListings()
	updated[1].Phone = "0911"
	c.Replace(updated)

	st := c.State()
	require.True(t, st.Selection.IsDetail())
	assert.Equal(t, "0911", st.Selection.Listing.Phone)
}

func TestController_ReplaceDropsMissingDetail(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.SelectListing(testListings()[1].Key()))

	c.Replace(testListings()[:1])

	st := c.State()
	assert.Equal(t, model.SelectionAllShops, st.Selection.Kind)
	assert.Equal(t, 1, st.Total)
}

func TestController_ReplaceKeepsCriteria(t *testing.T) {
	c, _ := newTestController(t)
	c.SetFilter(3, "alp")
	c.SetGroups(model.NewGroupSet(5))

	c.Replace(testListings())

	st := c.State()
	assert.Equal(t, 3, st.Criteria.MinRating)
	assert.Equal(t, "alp", st.Criteria.SearchText)
	assert.Equal(t, []int{5}, st.Groups)
	assert.Equal(t, 1, st.Visible)
}

func TestController_RenderIsIdempotent(t *testing.T) {
	c, snap := newTestController(t)

	c.Render()
	m1, v1, l1 := snap.Markers(), snap.Viewport(), snap.List()
	frames := snap.Frames()
	c.Render()

	assert.Equal(t, m1, snap.Markers())
	assert.Equal(t, v1, snap.Viewport())
	assert.Equal(t, l1, snap.List())
	assert.Equal(t, frames+1, snap.Frames())
}

func TestController_SetFilterClampsRating(t *testing.T) {
	c, _ := newTestController(t)
	c.SetFilter(9, "  ")
	st := c.State()
	assert.Equal(t, 5, st.Criteria.MinRating)
	assert.Equal(t, "", st.Criteria.SearchText)
	assert.Equal(t, 1, st.Visible)
}

func TestController_GroupedAndLegend(t *testing.T) {
	c, _ := newTestController(t)
	c.SetGroups(model.NewGroupSet(5, 0))

	groups := c.Grouped()
	require.Len(t, groups, 2)
	assert.Equal(t, 5, groups[0].Bucket)
	assert.Equal(t, 0, groups[1].Bucket)

	legend := c.Legend()
	require.Len(t, legend, 6)
	assert.True(t, legend[0].Active)
	assert.False(t, legend[2].Active)
	assert.True(t, legend[5].Active)
	assert.Equal(t, "unrated", legend[5].Label)
}

func TestController_StateIsCopy(t *testing.T) {
	c, _ := newTestController(t)
	st := c.State()
	delete(st.Criteria.RatingGroups, 5)
	assert.Equal(t, []int{5, 4, 3, 2, 1, 0}, c.State().Groups)
}

func TestController_NilRenderers(t *testing.T) {
	c := NewController(listing.NewStore(language.English), DefaultOptions(), nil, nil)
	c.Replace(testListings())
	require.NoError(t, c.SelectListing(testListings()[2].Key()))
	assert.Len(t, c.All(), 3)
	assert.Len(t, c.View(), 3)
}

func TestSnapshot_FrameIsConsistent(t *testing.T) {
	c, snap := newTestController(t)
	alpha := testListings()[0]
	opts := DefaultOptions()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			assert.NoError(t, c.SelectListing(alpha.Key()))
			c.Back()
		}
	}()

	for i := 0; i < 200; i++ {
		f := snap.Frame()
		if f.Detail != nil {
			require.NotNil(t, f.Viewport.Center)
			assert.Equal(t, alpha.Latitude, f.Viewport.Center.Lat)
			assert.Equal(t, opts.DetailZoom, f.Viewport.Zoom)
		} else {
			assert.NotNil(t, f.Viewport.Bounds)
		}
		assert.Len(t, f.Markers, 3)
		assert.Len(t, f.List, 3)
	}
	wg.Wait()
}

func TestSnapshot_FrameCopies(t *testing.T) {
	c, snap := newTestController(t)
	require.NoError(t, c.SelectListing(testListings()[1].Key()))

	f := snap.Frame()
	require.NotNil(t, f.Detail)
	assert.Equal(t, "Bravo", f.Detail.Name)

	f.Detail.Name = "changed"
	f.Markers[0].Color = "changed"
	d, ok := snap.Detail()
	require.True(t, ok)
	assert.Equal(t, "Bravo", d.Name)
	assert.NotEqual(t, "changed", snap.Markers()[0].Color)
}
