package geomap

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/geo-map/internal/geostyle"
	"github.com/joeblew999/geo-map/internal/mapconfig"
	"github.com/joeblew999/geo-map/internal/viewport"
)

type recorder struct {
	events []Event
}

func (r *recorder) listen(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) types() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// failingEngine rejects layer registration.
type failingEngine struct {
	*MemoryEngine
}

func (failingEngine) AddLayer(geostyle.LayerStyle) error { return eris.New("engine busy") }

// limitedEngine accepts a fixed number of layers, then rejects the rest.
type limitedEngine struct {
	*MemoryEngine
	room int
}

func (e *limitedEngine) AddLayer(l geostyle.LayerStyle) error {
	if e.room == 0 {
		return eris.New("layer limit reached")
	}
	e.room--
	return e.MemoryEngine.AddLayer(l)
}

func newTestMap(t *testing.T, attrs mapconfig.Attributes) (*Map, *ClassList, *MemoryEngine, *recorder) {
	t.Helper()
	if attrs == nil {
		attrs = mapconfig.Attributes{}
	}
	attrs[mapconfig.AttrAccessToken] = "pk.test"
	snap, err := mapconfig.Resolve(attrs, nil)
	require.NoError(t, err)

	host := NewClassList()
	rec := &recorder{}
	m := New(snap, host, WithListener(rec.listen), WithID("map-1"))
	engine := NewMemoryEngine(snap.Center, snap.Zoom)
	return m, host, engine, rec
}

func TestNewID(t *testing.T) {
	id := NewID()
	assert.Regexp(t, regexp.MustCompile(`^dtrm-[0-9a-f]{16}-\d+$`), id)
	assert.NotEqual(t, id, NewID())
}

func TestAttach_EmitsLoadedOnceWithInitialClass(t *testing.T) {
	m, host, engine, rec := newTestMap(t, mapconfig.Attributes{mapconfig.AttrZoom: "12"})

	require.NoError(t, m.Attach(engine))
	assert.True(t, m.Loaded())
	assert.Equal(t, []string{"middle"}, host.Classes())
	assert.Equal(t, []string{EventLoaded}, rec.types())
	assert.Equal(t, "map-1", rec.events[0].MapID)

	loaded, ok := rec.events[0].Payload.(mapconfig.Snapshot)
	require.True(t, ok)
	assert.Empty(t, loaded.AccessToken)
	assert.Equal(t, 12.0, loaded.Zoom)
	assert.Equal(t, "pk.test", m.Snapshot().AccessToken)

	err := m.Attach(engine)
	assert.True(t, eris.Is(err, ErrAlreadyLoaded))
	assert.Len(t, rec.events, 1)
}

func TestAttach_NilEngine(t *testing.T) {
	m, _, _, _ := newTestMap(t, nil)
	err := m.Attach(nil)
	assert.True(t, eris.Is(err, ErrNotAttached))
	assert.False(t, m.Loaded())
}

func TestMoveEnd_ClassifiesBeforeNotifying(t *testing.T) {
	m, host, engine, _ := newTestMap(t, nil)

	var classesAtEmit []string
	m.listeners = append(m.listeners, func(ev Event) {
		if ev.Type == EventViewportChanged {
			classesAtEmit = host.Classes()
		}
	})
	require.NoError(t, m.Attach(engine))
	assert.Equal(t, []string{"far"}, host.Classes())

	engine.Move(orb.Point{2.35, 48.85}, orb.Bound{Min: orb.Point{2.3, 48.8}, Max: orb.Point{2.4, 48.9}}, 16)
	change, err := m.MoveEnd()
	require.NoError(t, err)

	assert.Equal(t, viewport.Near, change.Proximity)
	assert.True(t, change.Changed)
	assert.Equal(t, 16.0, change.Zoom)
	assert.Equal(t, orb.Point{2.35, 48.85}, change.Center)
	assert.Equal(t, mapconfig.Bounds{2.3, 48.8, 2.4, 48.9}, change.Bounds)
	assert.Equal(t, []string{"near"}, host.Classes())
	assert.Equal(t, []string{"near"}, classesAtEmit)

	p, ok := m.Proximity()
	assert.True(t, ok)
	assert.Equal(t, viewport.Near, p)
}

func TestMoveEnd_SuccessiveMoves(t *testing.T) {
	m, host, engine, rec := newTestMap(t, mapconfig.Attributes{mapconfig.AttrZoomBreakpoints: "8,4"})
	require.NoError(t, m.Attach(engine))

	steps := []struct {
		zoom    float64
		want    viewport.Proximity
		changed bool
	}{
		{zoom: 4, want: viewport.Middle, changed: true},
		{zoom: 8, want: viewport.Middle, changed: false},
		{zoom: 8.5, want: viewport.Near, changed: true},
		{zoom: 3.9, want: viewport.Far, changed: true},
		{zoom: 2, want: viewport.Far, changed: false},
	}
	for _, s := range steps {
		engine.Move(orb.Point{}, orb.Bound{}, s.zoom)
		change, err := m.MoveEnd()
		require.NoError(t, err)
		assert.Equal(t, s.want, change.Proximity, "zoom %v", s.zoom)
		assert.Equal(t, s.changed, change.Changed, "zoom %v", s.zoom)
		assert.Equal(t, []string{s.want.String()}, host.Classes())
	}
	assert.Len(t, rec.events, 1+len(steps))
}

func TestMoveEnd_NotAttached(t *testing.T) {
	m, _, _, rec := newTestMap(t, nil)
	_, err := m.MoveEnd()
	assert.True(t, eris.Is(err, ErrNotAttached))
	assert.Empty(t, rec.events)
}

func TestLoadGeoJSON_RegistersLayersInOrder(t *testing.T) {
	m, _, engine, rec := newTestMap(t, nil)
	require.NoError(t, m.Attach(engine))

	data := []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{"lanes":2}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{"lanes":4}}
	]}`)
	layers, err := m.LoadGeoJSON(data)
	require.NoError(t, err)

	require.Len(t, layers, 2)
	assert.Equal(t, "LineString-layer", layers[0].ID)
	assert.Equal(t, "Point-layer", layers[1].ID)
	assert.Equal(t, layers, engine.Layers())

	src, ok := engine.Source(geostyle.SourceName)
	require.True(t, ok)
	assert.JSONEq(t, string(data), string(src))

	assert.Equal(t, geostyle.Range{Min: 2, Max: 4}, m.Analysis().PropertyRanges["lanes"])
	assert.Equal(t, []string{EventLoaded, EventLayersChanged}, rec.types())

	payload, ok := rec.events[1].Payload.(LayersChange)
	require.True(t, ok)
	assert.Len(t, payload.Layers, 2)
}

func TestLoadGeoJSON_Errors(t *testing.T) {
	m, _, engine, _ := newTestMap(t, nil)
	_, err := m.LoadGeoJSON([]byte(`{"features":[]}`))
	assert.True(t, eris.Is(err, ErrNotAttached))

	require.NoError(t, m.Attach(engine))
	_, err = m.LoadGeoJSON([]byte(`not json`))
	assert.True(t, eris.Is(err, geostyle.ErrInvalidGeoJSON))

	m2, _, engine2, _ := newTestMap(t, nil)
	require.NoError(t, m2.Attach(failingEngine{engine2}))
	_, err = m2.LoadGeoJSON([]byte(`{"features":[{"geometry":{"type":"Point","coordinates":[0,0]}}]}`))
	assert.Error(t, err)
	assert.Empty(t, m2.Layers())
}

func TestLoadGeoJSON_PartialRegistration(t *testing.T) {
	m, _, engine, _ := newTestMap(t, nil)
	require.NoError(t, m.Attach(&limitedEngine{MemoryEngine: engine, room: 1}))

	_, err := m.LoadGeoJSON([]byte(`{"features":[
		{"geometry":{"type":"Point","coordinates":[0,0]},"properties":{"v":1}},
		{"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]},"properties":{"v":9}}
	]}`))
	require.Error(t, err)

	layers := m.Layers()
	require.Len(t, layers, 1)
	assert.Equal(t, "Point-layer", layers[0].ID)
	assert.Equal(t, layers, engine.Layers())
	assert.Equal(t, []string{"Point", "Polygon"}, m.Analysis().GeometryTypes)
	assert.Equal(t, geostyle.Range{Min: 1, Max: 9}, m.Analysis().PropertyRanges["v"])
}

func TestLoadGeoJSON_Empty(t *testing.T) {
	m, _, engine, _ := newTestMap(t, nil)
	require.NoError(t, m.Attach(engine))

	layers, err := m.LoadGeoJSON([]byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	assert.Empty(t, layers)
	assert.Empty(t, engine.Layers())
}

func TestEvent_JSON(t *testing.T) {
	ev := Event{Type: EventViewportChanged, MapID: "m", Payload: ViewportChange{Zoom: 3, Proximity: viewport.Far}}
	out, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"proximity":"far"`)
	assert.Contains(t, string(out), `"mapId":"m"`)
}
