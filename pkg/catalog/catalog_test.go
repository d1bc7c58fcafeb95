package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringroad/pkg/model"
	"ringroad/pkg/request"
)

const sampleJSON = `{
  "pois": [
    {"id": "p1", "name": "Gullfoss", "category": "waterfall", "description": "Two-stage falls", "lat": 64.3271, "lng": -20.1199},
    {"id": "p2", "name": "Skógafoss", "category": "waterfall", "description": "Staircase to the top", "lat": 63.5321, "lng": -19.5114},
    {"id": "p3", "name": "Reykjavík", "category": "town", "tags": ["harbour"], "description": "Capital", "lat": 64.1466, "lng": -21.9426}
  ],
  "route": [[64.1466, -21.9426], [63.5321, -19.5114], [64.3271, -20.1199]]
}`

const sampleYAML = `pois:
  - name: Mývatn
    category: geothermal
    description: Volcanic lake
    lat: 65.6425
    lng: -16.9929
  - name: Akureyri
    category: town
    lat: 65.6825
    lng: -18.0908
route:
  - [65.6425, -16.9929]
  - [65.6825, -18.0908]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func mustLoad(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewLoader(writeFile(t, "pois.json", sampleJSON)).Load(context.Background())
	require.NoError(t, err)
	return c
}

func TestLoad_JSON(t *testing.T) {
	c := mustLoad(t)

	require.Equal(t, 3, c.Len())
	assert.Equal(t, "p1", c.At(0).ID)
	assert.Equal(t, 2, c.IndexOf("p3"))
	assert.Equal(t, -1, c.IndexOf("missing"))
	assert.Nil(t, c.At(3))

	p, ok := c.Get("p2")
	require.True(t, ok)
	assert.Equal(t, "Skógafoss", p.Name)

	assert.Equal(t, []model.Category{model.CategoryWaterfall, model.CategoryTown}, c.Categories())
	assert.Equal(t, [2]float64{64.1466, -21.9426}, c.Route()[0])
	assert.Greater(t, c.RouteLength(), 100000.0)
}

func TestLoad_YAMLDerivesIDs(t *testing.T) {
	c, err := NewLoader(writeFile(t, "pois.yaml", sampleYAML)).Load(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())
	assert.Equal(t, DeriveID("Mývatn"), c.At(0).ID)
	assert.NotEqual(t, c.At(0).ID, c.At(1).ID)
	assert.Len(t, c.Route(), 2)
}

func TestDeriveID_Stable(t *testing.T) {
	assert.Equal(t, DeriveID("Gullfoss"), DeriveID(" Gullfoss "))
	assert.NotEqual(t, DeriveID("Gullfoss"), DeriveID("Goðafoss"))
}

func TestLoad_Failures(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		target  error
	}{
		{
			name:    "MalformedJSON",
			file:    "pois.json",
			content: `{"pois": [`,
		},
		{
			name:    "DuplicateID",
			file:    "pois.json",
			content: `{"pois": [{"id":"a","name":"A","category":"town","lat":64,"lng":-20},{"id":"a","name":"B","category":"town","lat":64,"lng":-20}]}`,
			target:  ErrDuplicateID,
		},
		{
			name:    "LatitudeOutOfRange",
			file:    "pois.json",
			content: `{"pois": [{"name":"A","category":"town","lat":95,"lng":-20}]}`,
		},
		{
			name:    "UnknownCategory",
			file:    "pois.json",
			content: `{"pois": [{"name":"A","category":"volcano","lat":64,"lng":-20}]}`,
		},
		{
			name:    "MissingName",
			file:    "pois.json",
			content: `{"pois": [{"category":"town","lat":64,"lng":-20}]}`,
		},
		{
			name:    "BadRoute",
			file:    "pois.json",
			content: `{"pois": [], "route": [[64, -200]]}`,
			target:  ErrInvalidRoute,
		},
		{
			name:    "MalformedYAML",
			file:    "pois.yml",
			content: "pois: [unclosed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(writeFile(t, tt.file, tt.content)).Load(context.Background())
			require.Error(t, err)

			var le *LoadError
			require.ErrorAs(t, err, &le)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.json")).Load(context.Background())

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_BundledData(t *testing.T) {
	c, err := NewLoader("../../data/pois.json").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 13, c.Len())
	assert.Equal(t, "Þingvellir National Park", c.At(0).Name)
	assert.Len(t, c.Route(), 14)
}

func TestAdjacency(t *testing.T) {
	c := mustLoad(t)

	next, ok := c.Next("p1")
	require.True(t, ok)
	assert.Equal(t, "p2", next.ID)

	prev, ok := c.Previous("p2")
	require.True(t, ok)
	assert.Equal(t, "p1", prev.ID)

	_, ok = c.Next("p3")
	assert.False(t, ok, "last POI has no next")
	_, ok = c.Previous("p1")
	assert.False(t, ok, "first POI has no previous")
	_, ok = c.Next("missing")
	assert.False(t, ok)
}

func TestPOIs_ReturnsCopy(t *testing.T) {
	c := mustLoad(t)
	list := c.POIs()
	list[0] = nil
	assert.NotNil(t, c.At(0))
}

func TestBounds(t *testing.T) {
	c := mustLoad(t)

	raw := c.Bounds(0)
	assert.InDelta(t, 63.5321, raw.South, 1e-9)
	assert.InDelta(t, 64.3271, raw.North, 1e-9)
	assert.InDelta(t, -21.9426, raw.West, 1e-9)
	assert.InDelta(t, -19.5114, raw.East, 1e-9)

	padded := c.Bounds(0.2)
	height := raw.North - raw.South
	assert.InDelta(t, raw.North+height*0.2, padded.North, 1e-9)
	assert.InDelta(t, raw.South-height*0.2, padded.South, 1e-9)

	empty, err := New(nil, nil)
	require.NoError(t, err)
	assert.True(t, empty.Bounds(0.2).IsZero())
}

func TestNearest(t *testing.T) {
	c := mustLoad(t)

	p, dist, ok := c.Nearest(64.15, -21.95)
	require.True(t, ok)
	assert.Equal(t, "p3", p.ID)
	assert.Less(t, dist, 1000.0)

	empty, _ := New(nil, nil)
	_, _, ok = empty.Nearest(64, -20)
	assert.False(t, ok)
}

func TestNearby(t *testing.T) {
	c := mustLoad(t)

	hits, err := c.Nearby(64.3271, -20.1199, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p1", hits[0].POI.ID)

	hits, err = c.Nearby(10, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("pois.yaml", ""))
	assert.Equal(t, FormatYAML, DetectFormat("https://x/pois.yml?v=2", ""))
	assert.Equal(t, FormatYAML, DetectFormat("https://x/pois", "application/yaml"))
	assert.Equal(t, FormatJSON, DetectFormat("pois.yaml", "application/json; charset=utf-8"))
	assert.Equal(t, FormatJSON, DetectFormat("pois", ""))
}

type fakeFetcher struct {
	resp *request.Response
	err  error
	hits int
}

func (f *fakeFetcher) Get(ctx context.Context, u string, headers map[string]string) (*request.Response, error) {
	f.hits++
	return f.resp, f.err
}

type memCache map[string][]byte

func (m memCache) GetCache(ctx context.Context, key string) ([]byte, bool) {
	v, ok := m[key]
	return v, ok
}

func (m memCache) SetCache(ctx context.Context, key string, val []byte) error {
	m[key] = val
	return nil
}

func TestLoad_RemoteWithCacheFallback(t *testing.T) {
	const src = "https://example.com/pois"
	cache := memCache{}
	f := &fakeFetcher{resp: &request.Response{Body: []byte(sampleYAML), ContentType: "text/yaml"}}

	var stale []string
	l := NewLoader(src, WithFetcher(f), WithCache(cache, func(s string) { stale = append(stale, s) }))

	c, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	require.Contains(t, cache, "catalog:"+src)

	// Fetch now fails; the cached JSON copy is served.
	f.resp, f.err = nil, errors.New("connection refused")
	c, err = l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, DeriveID("Mývatn"), c.At(0).ID)
	assert.Equal(t, []string{src}, stale)
}

func TestLoad_RemoteFailureWithoutCache(t *testing.T) {
	f := &fakeFetcher{err: errors.New("boom")}
	_, err := NewLoader("https://example.com/pois.json", WithFetcher(f)).Load(context.Background())

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "https://example.com/pois.json", le.Source)
}

func TestLoad_RemoteWithoutFetcher(t *testing.T) {
	_, err := NewLoader("https://example.com/pois.json").Load(context.Background())
	var le *LoadError
	assert.ErrorAs(t, err, &le)
}

const geoJSONCatalog = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-20.1199, 64.3271]},
     "properties": {"name": "Gullfoss", "category": "waterfall", "tags": ["golden circle"]}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-20.3010, 64.3104]},
     "properties": {"id": "geysir", "name": "Geysir", "category": "geothermal"}},
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[-21.9426, 64.1466], [-20.1199, 64.3271]]},
     "properties": {"kind": "route"}}
  ]
}`

func TestParse_GeoJSON(t *testing.T) {
	c, err := NewLoader("pois.geojson").Parse([]byte(geoJSONCatalog), FormatGeoJSON)
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())
	first := c.At(0)
	assert.Equal(t, "Gullfoss", first.Name)
	assert.Equal(t, DeriveID("Gullfoss"), first.ID)
	assert.InDelta(t, 64.3271, first.Lat, 1e-9)
	assert.InDelta(t, -20.1199, first.Lon, 1e-9)
	assert.Equal(t, []string{"golden circle"}, first.Tags)
	assert.Equal(t, "geysir", c.At(1).ID)

	route := c.Route()
	require.Len(t, route, 2)
	assert.InDelta(t, 64.1466, route[0][0], 1e-9)
	assert.InDelta(t, -21.9426, route[0][1], 1e-9)
}

func TestParse_GeoJSONValidation(t *testing.T) {
	bad := `{"type": "FeatureCollection", "features": [
	  {"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {"name": "X", "category": "volcano"}}
	]}`
	_, err := NewLoader("x.geojson").Parse([]byte(bad), FormatGeoJSON)
	assert.Error(t, err)
}

func TestFeatureCollection(t *testing.T) {
	c, err := NewLoader("pois.geojson").Parse([]byte(geoJSONCatalog), FormatGeoJSON)
	require.NoError(t, err)

	fc := c.FeatureCollection()
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "Gullfoss", fc.Features[0].Properties["name"])
	assert.Equal(t, "route", fc.Features[2].Properties["kind"])

	// Round trip through the GeoJSON decoder
	data, err := fc.MarshalJSON()
	require.NoError(t, err)
	again, err := NewLoader("again.geojson").Parse(data, FormatGeoJSON)
	require.NoError(t, err)
	assert.Equal(t, c.Len(), again.Len())
	assert.Equal(t, c.At(0).ID, again.At(0).ID)
}

func TestDetectFormat_GeoJSON(t *testing.T) {
	assert.Equal(t, FormatGeoJSON, DetectFormat("pois.geojson", ""))
	assert.Equal(t, FormatGeoJSON, DetectFormat("https://x/pois", "application/geo+json"))
}
