// Package api defines the Huma API routes and handlers.
package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joeblew999/geo-map/internal/geomap"
	"github.com/joeblew999/geo-map/internal/geostyle"
	"github.com/joeblew999/geo-map/internal/mapconfig"
	"github.com/joeblew999/geo-map/internal/metrics"
	"github.com/joeblew999/geo-map/internal/service"
	"github.com/joeblew999/geo-map/internal/viewport"
)

// Version is the API version reported by health and info.
const Version = "1.0.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Maps   *service.MapService
	Source *service.SourceService
	Bus    *service.EventBus
	Log    *zap.Logger

	DataDir string
}

// RegisterRoutes registers every REST and SSE operation.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
	NewEventHandler(svc).RegisterRoutes(api)
}

// Types

type NameInput struct {
	Name string `path:"name" doc:"Source file name" example:"parcels.geojson"`
}

type MapIDInput struct {
	ID string `path:"id" doc:"Map instance ID"`
}

type GeoJSONInput struct {
	RawBody []byte `contentType:"application/geo+json" doc:"GeoJSON feature collection"`
}

type ListMapsInput struct {
	Proximity string `query:"proximity" enum:"far,middle,near" doc:"Only sessions currently in this proximity state"`
}

type ConfigBody struct {
	Attributes map[string]string `json:"attributes" doc:"Declared map attributes (accesstoken, styleurl, latitude, longitude, zoom, bearing, pitch, locked, search-bounds, zoom-breakpoints, geolocate, slideshow)"`
	Query      string            `json:"query,omitempty" doc:"Page URL or query string supplying center, zoom, bearing, and pitch overrides" example:"?zoom=12&latitude=48.85"`
}

type ClassifyInput struct {
	Zoom float64 `query:"zoom" required:"true" doc:"Zoom level to classify" example:"12"`
	Near float64 `query:"near" default:"15" doc:"Near breakpoint"`
	Far  float64 `query:"far" default:"10" doc:"Far breakpoint"`
}

type ClassifyBody struct {
	Proximity  string              `json:"proximity" enum:"far,middle,near" doc:"Proximity state"`
	Classes    viewport.ClassSet   `json:"classes" doc:"Presentation flags; exactly one is true"`
	Thresholds viewport.Thresholds `json:"thresholds" doc:"Breakpoints used"`
}

type StyleBody struct {
	Analysis geostyle.Analysis     `json:"analysis" doc:"Geometry and property inventory"`
	Layers   []geostyle.LayerStyle `json:"layers" doc:"Default layers in geometry discovery order"`
}

type ViewportBody struct {
	MapID     string           `json:"mapId" doc:"Map instance ID"`
	Center    [2]float64       `json:"center" doc:"Camera center as [longitude, latitude]"`
	Bounds    mapconfig.Bounds `json:"bounds" doc:"Visible box as [west, south, east, north]"`
	Zoom      float64          `json:"zoom" doc:"Zoom level"`
	Proximity string           `json:"proximity" enum:"far,middle,near" doc:"Proximity after the move"`
	Changed   bool             `json:"changed" doc:"Whether the proximity state changed"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
	log *zap.Logger
}

func NewAPIHandler(svc *Services) *APIHandler {
	log := zap.NewNop()
	if svc != nil && svc.Log != nil {
		log = svc.Log
	}
	return &APIHandler{svc: svc, log: log}
}

// RegisterHealth registers health and info routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

// RegisterConfig registers configuration resolution.
func (h *APIHandler) RegisterConfig(api huma.API) {
	huma.Post(api, "/api/v1/config/resolve", h.ResolveConfig, huma.OperationTags("config"))
}

// RegisterViewport registers zoom classification.
func (h *APIHandler) RegisterViewport(api huma.API) {
	huma.Get(api, "/api/v1/viewport/classify", h.Classify, huma.OperationTags("viewport"))
}

// RegisterGeoJSON registers dataset analysis and styling.
func (h *APIHandler) RegisterGeoJSON(api huma.API) {
	huma.Post(api, "/api/v1/geojson/analyze", h.AnalyzeGeoJSON, huma.OperationTags("geojson"))
	huma.Post(api, "/api/v1/geojson/style", h.StyleGeoJSON, huma.OperationTags("geojson"))
}

// RegisterSources registers source file routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("sources"))
	huma.Get(api, "/api/v1/sources/analysis", h.GetSourcesAnalysis, huma.OperationTags("sources"))
	huma.Get(api, "/api/v1/sources/{name}/analysis", h.GetSourceAnalysis, huma.OperationTags("sources"))
	huma.Get(api, "/api/v1/sources/{name}/style", h.GetSourceStyle, huma.OperationTags("sources"))
}

// RegisterMaps registers map session routes.
func (h *APIHandler) RegisterMaps(api huma.API) {
	huma.Get(api, "/api/v1/maps", h.GetMaps, huma.OperationTags("maps"))
	huma.Post(api, "/api/v1/maps", h.CreateMap, huma.OperationTags("maps"))
	huma.Get(api, "/api/v1/maps/{id}", h.GetMap, huma.OperationTags("maps"))
	huma.Delete(api, "/api/v1/maps/{id}", h.DeleteMap, huma.OperationTags("maps"))
	huma.Post(api, "/api/v1/maps/{id}/move", h.MoveMap, huma.OperationTags("maps"))
	huma.Post(api, "/api/v1/maps/{id}/geojson", h.LoadMapGeoJSON, huma.OperationTags("maps"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) ResolveConfig(ctx context.Context, input *struct{ Body ConfigBody }) (*struct{ Body mapconfig.Snapshot }, error) {
	snap, err := service.ResolveConfig(h.log, input.Body.Attributes, mapconfig.ParseURLParams(input.Body.Query))
	if err != nil {
		return nil, configError(err)
	}
	return &struct{ Body mapconfig.Snapshot }{Body: snap}, nil
}

func (h *APIHandler) Classify(ctx context.Context, input *ClassifyInput) (*struct{ Body ClassifyBody }, error) {
	th := viewport.Thresholds{Near: input.Near, Far: input.Far}
	if !th.Valid() {
		return nil, huma.Error422UnprocessableEntity("far breakpoint must be below near breakpoint",
			&huma.ErrorDetail{Location: "query.far", Message: mapconfig.KindInvalidThresholdOrder, Value: input.Far})
	}
	p := viewport.Classify(input.Zoom, th)
	metrics.Classifications.WithLabelValues(p.String()).Inc()
	return &struct{ Body ClassifyBody }{Body: ClassifyBody{
		Proximity:  p.String(),
		Classes:    viewport.Presentation(p),
		Thresholds: th,
	}}, nil
}

func (h *APIHandler) AnalyzeGeoJSON(ctx context.Context, input *GeoJSONInput) (*struct{ Body geostyle.Analysis }, error) {
	a, err := geostyle.AnalyzeBytes(input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	metrics.Analyses.Inc()
	return &struct{ Body geostyle.Analysis }{Body: a}, nil
}

func (h *APIHandler) StyleGeoJSON(ctx context.Context, input *GeoJSONInput) (*struct{ Body StyleBody }, error) {
	a, err := geostyle.AnalyzeBytes(input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	metrics.Analyses.Inc()
	layers := geostyle.Synthesize(a)
	for _, l := range layers {
		metrics.LayersSynthesized.WithLabelValues(string(l.Type)).Inc()
	}
	return &struct{ Body StyleBody }{Body: StyleBody{Analysis: a, Layers: layers}}, nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*struct{ Body []service.SourceFile }, error) {
	if h.svc == nil || h.svc.Source == nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	sources, err := h.svc.Source.List()
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list sources", err)
	}
	return &struct{ Body []service.SourceFile }{Body: sources}, nil
}

func (h *APIHandler) GetSourcesAnalysis(ctx context.Context, input *struct{}) (*struct{ Body map[string]geostyle.Analysis }, error) {
	if h.svc == nil || h.svc.Source == nil {
		return &struct{ Body map[string]geostyle.Analysis }{Body: map[string]geostyle.Analysis{}}, nil
	}
	all, err := h.svc.Source.AnalyzeAll(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to analyze sources", err)
	}
	return &struct{ Body map[string]geostyle.Analysis }{Body: all}, nil
}

func (h *APIHandler) GetSourceAnalysis(ctx context.Context, input *NameInput) (*struct{ Body geostyle.Analysis }, error) {
	if h.svc == nil || h.svc.Source == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	a, err := h.svc.Source.Analyze(input.Name)
	if err != nil {
		return nil, sourceError(err)
	}
	return &struct{ Body geostyle.Analysis }{Body: a}, nil
}

func (h *APIHandler) GetSourceStyle(ctx context.Context, input *NameInput) (*struct{ Body service.SourceStyle }, error) {
	if h.svc == nil || h.svc.Source == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	st, err := h.svc.Source.Style(input.Name)
	if err != nil {
		return nil, sourceError(err)
	}
	return &struct{ Body service.SourceStyle }{Body: st}, nil
}

func (h *APIHandler) GetMaps(ctx context.Context, input *ListMapsInput) (*struct{ Body []service.MapState }, error) {
	if h.svc == nil || h.svc.Maps == nil {
		return &struct{ Body []service.MapState }{Body: []service.MapState{}}, nil
	}
	maps := h.svc.Maps.List()
	if input.Proximity == "" {
		return &struct{ Body []service.MapState }{Body: maps}, nil
	}

	want, err := viewport.Parse(input.Proximity)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	filtered := []service.MapState{}
	for _, m := range maps {
		if m.Proximity == want.String() {
			filtered = append(filtered, m)
		}
	}
	return &struct{ Body []service.MapState }{Body: filtered}, nil
}

func (h *APIHandler) CreateMap(ctx context.Context, input *struct{ Body ConfigBody }) (*struct{ Body service.MapState }, error) {
	if h.svc == nil || h.svc.Maps == nil {
		return nil, huma.Error400BadRequest("service not available")
	}
	st, err := h.svc.Maps.Create(input.Body.Attributes, mapconfig.ParseURLParams(input.Body.Query))
	if err != nil {
		return nil, configError(err)
	}
	return &struct{ Body service.MapState }{Body: st}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *MapIDInput) (*struct{ Body service.MapState }, error) {
	if h.svc == nil || h.svc.Maps == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	st, ok := h.svc.Maps.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("map not found")
	}
	return &struct{ Body service.MapState }{Body: st}, nil
}

func (h *APIHandler) DeleteMap(ctx context.Context, input *MapIDInput) (*struct{ Body MessageBody }, error) {
	if h.svc == nil || h.svc.Maps == nil {
		return nil, huma.Error400BadRequest("service not available")
	}
	if err := h.svc.Maps.Delete(input.ID); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Map deleted"}}, nil
}

func (h *APIHandler) MoveMap(ctx context.Context, input *struct {
	ID   string `path:"id" doc:"Map instance ID"`
	Body service.MoveInput
}) (*struct{ Body ViewportBody }, error) {
	if h.svc == nil || h.svc.Maps == nil {
		return nil, huma.Error400BadRequest("service not available")
	}
	change, err := h.svc.Maps.Move(input.ID, input.Body)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body ViewportBody }{Body: viewportBody(input.ID, change)}, nil
}

func (h *APIHandler) LoadMapGeoJSON(ctx context.Context, input *struct {
	ID      string `path:"id" doc:"Map instance ID"`
	RawBody []byte `contentType:"application/geo+json" doc:"GeoJSON feature collection"`
}) (*struct{ Body []geostyle.LayerStyle }, error) {
	if h.svc == nil || h.svc.Maps == nil {
		return nil, huma.Error400BadRequest("service not available")
	}
	layers, err := h.svc.Maps.LoadGeoJSON(input.ID, input.RawBody)
	if err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body []geostyle.LayerStyle }{Body: layers}, nil
}

func viewportBody(id string, c geomap.ViewportChange) ViewportBody {
	return ViewportBody{
		MapID:     id,
		Center:    [2]float64(c.Center),
		Bounds:    c.Bounds,
		Zoom:      c.Zoom,
		Proximity: c.Proximity.String(),
		Changed:   c.Changed,
	}
}

// configError maps a resolution failure to a 422 carrying its kind.
func configError(err error) error {
	kind := mapconfig.ErrorKind(err)
	if kind == "" {
		return huma.Error500InternalServerError("failed to resolve configuration", err)
	}
	loc := "body.attributes"
	switch kind {
	case mapconfig.KindMissingCredential:
		loc += "." + mapconfig.AttrAccessToken
	case mapconfig.KindMalformedBounds:
		loc += "." + mapconfig.AttrSearchBounds
	default:
		loc += "." + mapconfig.AttrZoomBreakpoints
	}
	return huma.Error422UnprocessableEntity("invalid map configuration",
		&huma.ErrorDetail{Location: loc, Message: kind})
}

func sourceError(err error) error {
	switch {
	case eris.Is(err, service.ErrInvalidSourceName):
		return huma.Error400BadRequest(err.Error())
	case eris.Is(err, service.ErrSourceNotFound):
		return huma.Error404NotFound(err.Error())
	case eris.Is(err, geostyle.ErrInvalidGeoJSON):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError("failed to read source", err)
	}
}

func mapError(err error) error {
	switch {
	case eris.Is(err, service.ErrMapNotFound):
		return huma.Error404NotFound("map not found")
	case eris.Is(err, geostyle.ErrInvalidGeoJSON):
		return huma.Error400BadRequest(err.Error())
	default:
		return huma.Error500InternalServerError("map operation failed", err)
	}
}
