package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/sells-group/shopmap/internal/ingest"
	"github.com/sells-group/shopmap/internal/listing"
	"github.com/sells-group/shopmap/internal/model"
	"github.com/sells-group/shopmap/internal/offline"
	"github.com/sells-group/shopmap/internal/viewsync"
)

type fakeRefresher struct {
	res   *ingest.Result
	last  *ingest.Result
	err   error
	calls int
}

func (f *fakeRefresher) Run(context.Context) (*ingest.Result, error) {
	f.calls++
	return f.res, f.err
}

func (f *fakeRefresher) Last() *ingest.Result {
	if f.last != nil {
		return f.last
	}
	return f.res
}

func testListings() []model.Listing {
	return []model.Listing{
		{Name: "Alpha", Latitude: 10, Longitude: 100, Rating: 5, Category: "Cafe"},
		{Name: "Bravo", Latitude: 20, Longitude: 110, Rating: 3},
		{Name: "Charlie", Latitude: 15, Longitude: 105, Rating: 0},
	}
}

type testEnv struct {
	srv     *httptest.Server
	ctrl    *viewsync.Controller
	cache   *offline.MemoryCache
	refresh *fakeRefresher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	frame := viewsync.NewSnapshot()
	ctrl := viewsync.NewController(listing.NewStore(language.English), viewsync.DefaultOptions(), frame, frame)
	ctrl.Replace(testListings())

	cache := offline.NewMemory()
	refresh := &fakeRefresher{res: &ingest.Result{CycleID: "c1", Seq: 1, Origin: ingest.OriginLive}}
	s := NewServer(ctrl, frame, refresh, cache, Options{})

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, ctrl: ctrl, cache: cache, refresh: refresh}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.InDelta(t, 3, body["listings"], 0)
}

func TestListings(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/listings", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	items := decode[[]map[string]any](t, resp)
	require.Len(t, items, 3)
	assert.Equal(t, "Alpha", items[0]["name"])
	assert.Equal(t, "A", items[0]["initials"])
	assert.Equal(t, "#10b981", items[0]["color"])
	assert.Equal(t, "★★★★★", items[0]["stars"])
	assert.NotEmpty(t, items[0]["key"])
}

func TestListingsGrouped(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/listings?grouped=true", "")
	groups := decode[[]groupView](t, resp)
	require.Len(t, groups, 3)
	assert.Equal(t, 5, groups[0].Bucket)
	assert.Equal(t, 0, groups[2].Bucket)
	assert.Equal(t, "unrated", groups[2].Label)

	resp = env.do(t, http.MethodGet, "/api/groups", "")
	assert.Len(t, decode[[]groupView](t, resp), 3)
}

func TestFilterAndGroups(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/filter", `{"min_rating":3,"search":"  "}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[stateView](t, resp)
	assert.Equal(t, 2, st.Visible)
	assert.Equal(t, 3, st.Criteria.MinRating)
	require.NotNil(t, st.LastCycle)
	assert.Equal(t, "c1", st.LastCycle.CycleID)

	resp = env.do(t, http.MethodPost, "/api/groups", `{"groups":[5]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st = decode[stateView](t, resp)
	assert.Equal(t, 1, st.Visible)
	assert.Equal(t, []int{5}, st.Groups)

	resp = env.do(t, http.MethodPost, "/api/groups", `{"groups":[]}`)
	st = decode[stateView](t, resp)
	assert.Equal(t, 0, st.Visible)
	require.NotNil(t, st.Viewport.Center)

	resp = env.do(t, http.MethodGet, "/api/legend", "")
	legend := decode[[]model.LegendEntry](t, resp)
	require.Len(t, legend, 6)
	for _, e := range legend {
		assert.False(t, e.Active)
	}
}

func TestFilter_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/filter", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/groups", `{"groups":[7]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSelectBackAndMap(t *testing.T) {
	env := newTestEnv(t)
	bravo := testListings()[1]

	resp := env.do(t, http.MethodPost, "/api/select/"+bravo.Key(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[stateView](t, resp)
	assert.Equal(t, model.SelectionDetail, st.Selection.Kind)
	assert.Equal(t, 16, st.Viewport.Zoom)

	resp = env.do(t, http.MethodGet, "/api/map", "")
	m := decode[map[string]json.RawMessage](t, resp)
	var selected string
	require.NoError(t, json.Unmarshal(m["selected"], &selected))
	assert.Equal(t, bravo.Key(), selected)
	var markers []model.Marker
	require.NoError(t, json.Unmarshal(m["markers"], &markers))
	assert.Len(t, markers, 3)

	resp = env.do(t, http.MethodPost, "/api/back", "")
	st = decode[stateView](t, resp)
	assert.Equal(t, model.SelectionAllShops, st.Selection.Kind)
	assert.NotNil(t, st.Viewport.Bounds)

	resp = env.do(t, http.MethodPost, "/api/view-all", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSelectUnknown(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/select/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, env.refresh.calls)

	env.refresh.err = eris.Wrap(ingest.ErrIngestionFailure, "boom")
	resp = env.do(t, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Contains(t, body["error"], "no offline copy")

	env.refresh.err = errors.New("unexpected")
	resp = env.do(t, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestRefresh_SupersededIsNotAnError(t *testing.T) {
	env := newTestEnv(t)
	env.refresh.res = &ingest.Result{CycleID: "old", Seq: 1, Stale: true}
	env.refresh.last = &ingest.Result{CycleID: "new", Seq: 2, Origin: ingest.OriginLive}
	env.refresh.err = eris.Wrapf(ingest.ErrStaleResponse, "cycle 1 superseded by 2")

	resp := env.do(t, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := decode[stateView](t, resp)
	require.NotNil(t, st.LastCycle)
	assert.Equal(t, "new", st.LastCycle.CycleID)
	assert.Equal(t, 3, st.Total)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/export.csv", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "shops.csv")
	var b bytes.Buffer
	_, err := b.ReadFrom(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(b.String(), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Name,Latitude,Longitude,Rating,Address,Category,Phone,ImageURL,Description", lines[0])
	assert.Equal(t, "Alpha,10,100,5,,Cafe,,,", lines[1])
}

func TestExport_PrefersCachedPayload(t *testing.T) {
	env := newTestEnv(t)
	raw := "Store Name,GPS Lat,GPS Long\nAlpha,10,100\n"
	require.NoError(t, env.cache.Set(context.Background(), offline.Entry{Payload: raw, Format: "csv"}))

	resp := env.do(t, http.MethodGet, "/api/export.csv", "")
	var b bytes.Buffer
	_, err := b.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, raw, b.String())
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/api/state", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://maps.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
