package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/geo-map/internal/geostyle"
	"github.com/joeblew999/geo-map/internal/service"
)

const sampleGeoJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","geometry":{"type":"Point","coordinates":[2.35,48.85]},"properties":{"pop":10}},
 {"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]},"properties":{"pop":30}}
]}`

func newTestAPI(t *testing.T) (humatest.TestAPI, *Services) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sources"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sources", "places.geojson"), []byte(sampleGeoJSON), 0o644))

	bus := service.NewEventBus()
	svc := &Services{
		Maps:    service.NewMapService(bus, nil),
		Source:  service.NewSourceService(dir, nil),
		Bus:     bus,
		DataDir: dir,
	}

	cfg := huma.DefaultConfig("geo-map test", Version)
	cfg.Transformers = append(cfg.Transformers, LinkTransformer())
	api := humatest.Wrap(t, humago.New(http.NewServeMux(), cfg))
	RegisterRoutes(api, svc)
	return api, svc
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func TestHealth(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode[HealthBody](t, resp.Body.Bytes())
	assert.Equal(t, "ok", body.Status)
	assert.Contains(t, resp.Header().Values("Link"), `</api/v1/maps>; rel="maps"`)
}

func TestInfo(t *testing.T) {
	api, svc := newTestAPI(t)

	resp := api.Get("/api/v1/info")
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode[InfoBody](t, resp.Body.Bytes())
	assert.Equal(t, "geo-map", body.Name)
	assert.Equal(t, svc.DataDir, body.DataDir)
	assert.Zero(t, body.Sessions)
}

func TestResolveConfig(t *testing.T) {
	api, _ := newTestAPI(t)

	t.Run("url overrides attributes", func(t *testing.T) {
		resp := api.Post("/api/v1/config/resolve", map[string]any{
			"attributes": map[string]string{"accesstoken": "pk.test", "zoom": "4", "locked": ""},
			"query":      "?zoom=12",
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		body := decode[map[string]any](t, resp.Body.Bytes())
		assert.Equal(t, 12.0, body["zoom"])
		assert.Equal(t, true, body["locked"])
	})

	t.Run("missing token", func(t *testing.T) {
		resp := api.Post("/api/v1/config/resolve", map[string]any{
			"attributes": map[string]string{"zoom": "4"},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Contains(t, resp.Body.String(), "missing_credential")
	})

	t.Run("bad threshold order", func(t *testing.T) {
		resp := api.Post("/api/v1/config/resolve", map[string]any{
			"attributes": map[string]string{"accesstoken": "pk.test", "zoom-breakpoints": "10,15"},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Contains(t, resp.Body.String(), "invalid_threshold_order")
	})
}

func TestClassify(t *testing.T) {
	api, _ := newTestAPI(t)

	tests := []struct {
		query string
		want  string
	}{
		{"zoom=5", "far"},
		{"zoom=10", "middle"},
		{"zoom=15", "middle"},
		{"zoom=15.01", "near"},
		{"zoom=7&near=8&far=6", "middle"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := api.Get("/api/v1/viewport/classify?" + tt.query)
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
			body := decode[ClassifyBody](t, resp.Body.Bytes())
			assert.Equal(t, tt.want, body.Proximity)
			assert.Equal(t, tt.want, body.Classes.Active().String())
		})
	}

	resp := api.Get("/api/v1/viewport/classify?zoom=5&near=10&far=10")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestStyleGeoJSON(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Post("/api/v1/geojson/style", "Content-Type: application/geo+json", strings.NewReader(sampleGeoJSON))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decode[StyleBody](t, resp.Body.Bytes())
	assert.Equal(t, []string{"Point", "Polygon"}, body.Analysis.GeometryTypes)
	require.Len(t, body.Layers, 2)
	assert.Equal(t, "Point-layer", body.Layers[0].ID)

	resp = api.Post("/api/v1/geojson/analyze", "Content-Type: application/geo+json", strings.NewReader("{nope"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSources(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Get("/api/v1/sources")
	require.Equal(t, http.StatusOK, resp.Code)
	files := decode[[]service.SourceFile](t, resp.Body.Bytes())
	require.Len(t, files, 1)
	assert.Equal(t, "places.geojson", files[0].Name)

	resp = api.Get("/api/v1/sources/places.geojson/style")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	st := decode[service.SourceStyle](t, resp.Body.Bytes())
	assert.Len(t, st.Layers, 2)

	resp = api.Get("/api/v1/sources/analysis")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	all := decode[map[string]geostyle.Analysis](t, resp.Body.Bytes())
	require.Contains(t, all, "places.geojson")
	assert.Equal(t, []string{"Point", "Polygon"}, all["places.geojson"].GeometryTypes)

	assert.Equal(t, http.StatusNotFound, api.Get("/api/v1/sources/missing.geojson/analysis").Code)
	assert.Equal(t, http.StatusBadRequest, api.Get("/api/v1/sources/places.csv/analysis").Code)
}

func TestMapLifecycle(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Post("/api/v1/maps", map[string]any{
		"attributes": map[string]string{"accesstoken": "pk.test", "zoom": "3"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.NotContains(t, resp.Body.String(), "pk.test")
	created := decode[service.MapState](t, resp.Body.Bytes())
	require.NotEmpty(t, created.ID)
	assert.True(t, created.Loaded)
	assert.Equal(t, "far", created.Proximity)
	assert.Equal(t, []string{"far"}, created.Classes)

	resp = api.Post("/api/v1/maps/"+created.ID+"/move", map[string]any{
		"center": []float64{2.35, 48.85},
		"bounds": []float64{2, 48, 3, 49},
		"zoom":   16,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	moved := decode[ViewportBody](t, resp.Body.Bytes())
	assert.Equal(t, "near", moved.Proximity)
	assert.True(t, moved.Changed)

	resp = api.Post("/api/v1/maps/"+created.ID+"/geojson", "Content-Type: application/geo+json", strings.NewReader(sampleGeoJSON))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = api.Get("/api/v1/maps/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	got := decode[service.MapState](t, resp.Body.Bytes())
	assert.Equal(t, []string{"near"}, got.Classes)
	assert.Len(t, got.Layers, 2)

	assert.Equal(t, http.StatusOK, api.Delete("/api/v1/maps/"+created.ID).Code)
	assert.Equal(t, http.StatusNotFound, api.Get("/api/v1/maps/"+created.ID).Code)
	assert.Equal(t, http.StatusNotFound, api.Post("/api/v1/maps/"+created.ID+"/move", map[string]any{"center": []float64{0, 0}, "bounds": []float64{0, 0, 1, 1}, "zoom": 1}).Code)
}

func TestListMaps_FilterByProximity(t *testing.T) {
	api, svc := newTestAPI(t)
	far, err := svc.Maps.Create(map[string]string{"accesstoken": "pk.test", "zoom": "2"}, nil)
	require.NoError(t, err)
	near, err := svc.Maps.Create(map[string]string{"accesstoken": "pk.test", "zoom": "18"}, nil)
	require.NoError(t, err)

	resp := api.Get("/api/v1/maps?proximity=near")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	got := decode[[]service.MapState](t, resp.Body.Bytes())
	require.Len(t, got, 1)
	assert.Equal(t, near.ID, got[0].ID)

	resp = api.Get("/api/v1/maps")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]service.MapState](t, resp.Body.Bytes()), 2)
	assert.NotEqual(t, far.ID, near.ID)

	assert.Equal(t, http.StatusUnprocessableEntity, api.Get("/api/v1/maps?proximity=close").Code)
}
