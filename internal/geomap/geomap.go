// Package geomap drives one embedded map instance: it applies a resolved
// configuration to a rendering engine adapter, keeps the host element's
// far/middle/near class in step with the zoom level, registers default
// layers for GeoJSON data, and reports what happened to listeners.
//
// A Map is owned by a single event loop. The engine adapter calls MoveEnd
// after every camera move; classification and notification happen
// synchronously inside that call.
package geomap

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joeblew999/geo-map/internal/geostyle"
	"github.com/joeblew999/geo-map/internal/mapconfig"
	"github.com/joeblew999/geo-map/internal/metrics"
	"github.com/joeblew999/geo-map/internal/viewport"
)

var (
	ErrAlreadyLoaded = eris.New("geomap: map already loaded")
	ErrNotAttached   = eris.New("geomap: no engine attached")
)

// Event types.
const (
	EventLoaded          = "loaded"
	EventViewportChanged = "viewport-changed"
	EventLayersChanged   = "layers-changed"
)

// Event is a notification emitted by a Map.
type Event struct {
	Type    string `json:"type"`
	MapID   string `json:"mapId"`
	Payload any    `json:"payload,omitempty"`
}

// ViewportChange is the payload of a viewport-changed event.
type ViewportChange struct {
	Center    orb.Point          `json:"center"`
	Bounds    mapconfig.Bounds   `json:"bounds"`
	Zoom      float64            `json:"zoom"`
	Proximity viewport.Proximity `json:"proximity"`
	Changed   bool               `json:"changed"`
}

// LayersChange is the payload of a layers-changed event.
type LayersChange struct {
	Analysis geostyle.Analysis     `json:"analysis"`
	Layers   []geostyle.LayerStyle `json:"layers"`
}

// Option configures a Map.
type Option func(*Map)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(m *Map) { m.log = log }
}

// WithListener adds a function called for every event, in emission order.
func WithListener(fn func(Event)) Option {
	return func(m *Map) { m.listeners = append(m.listeners, fn) }
}

// WithID overrides the generated instance id.
func WithID(id string) Option {
	return func(m *Map) { m.id = id }
}

// Map is one map instance.
type Map struct {
	id        string
	snap      mapconfig.Snapshot
	host      Host
	engine    Engine
	tracker   *viewport.Tracker
	listeners []func(Event)
	log       *zap.Logger
	loaded    bool
	analysis  geostyle.Analysis
	layers    []geostyle.LayerStyle
}

// New creates a map for a resolved snapshot. Nothing happens until an
// engine is attached.
func New(snap mapconfig.Snapshot, host Host, opts ...Option) *Map {
	m := &Map{
		id:      NewID(),
		snap:    snap,
		host:    host,
		tracker: viewport.NewTracker(snap.Thresholds),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(zap.String("map", m.id))
	return m
}

// NewID returns an instance id shaped like dtrm-<16 hex>-<unix millis>.
func NewID() string {
	u := uuid.New()
	return fmt.Sprintf("dtrm-%s-%d", hex.EncodeToString(u[:8]), time.Now().UnixMilli())
}

// ID returns the instance id.
func (m *Map) ID() string { return m.id }

// Snapshot returns the configuration the map was built from, including the
// access token.
func (m *Map) Snapshot() mapconfig.Snapshot { return m.snap }

// Loaded reports whether Attach has completed.
func (m *Map) Loaded() bool { return m.loaded }

// Proximity returns the current state, if any classification has run.
func (m *Map) Proximity() (viewport.Proximity, bool) { return m.tracker.Current() }

// Layers returns the layers registered by the last LoadGeoJSON.
func (m *Map) Layers() []geostyle.LayerStyle {
	out := make([]geostyle.LayerStyle, len(m.layers))
	copy(out, m.layers)
	return out
}

// Analysis returns the analysis of the last loaded dataset.
func (m *Map) Analysis() geostyle.Analysis { return m.analysis }

// Attach finishes setup against a constructed engine: it classifies the
// configured zoom, applies the matching host class, and emits loaded. It
// may be called once. The loaded payload carries a redacted snapshot.
func (m *Map) Attach(engine Engine) error {
	if m.loaded {
		return ErrAlreadyLoaded
	}
	if engine == nil {
		return eris.Wrap(ErrNotAttached, "attach nil engine")
	}
	m.engine = engine
	m.classify(m.snap.Zoom)
	m.loaded = true

	m.log.Info("map loaded",
		zap.Float64("zoom", m.snap.Zoom),
		zap.Bool("locked", m.snap.Locked),
		zap.String("style", m.snap.StyleURL),
	)
	m.emit(EventLoaded, m.snap.Redacted())
	return nil
}

// MoveEnd handles an engine move-end: classify the new zoom, update the
// host classes, then emit viewport-changed.
func (m *Map) MoveEnd() (ViewportChange, error) {
	if m.engine == nil {
		return ViewportChange{}, ErrNotAttached
	}
	zoom := m.engine.Zoom()
	p, changed := m.classify(zoom)

	change := ViewportChange{
		Center:    m.engine.Center(),
		Bounds:    mapconfig.BoundsFromOrb(m.engine.Bounds()),
		Zoom:      zoom,
		Proximity: p,
		Changed:   changed,
	}
	m.emit(EventViewportChanged, change)
	return change, nil
}

// LoadGeoJSON analyzes a dataset, hands it to the engine as the shared
// GeoJSON source, and registers one default layer per geometry type.
//
// Once the source is set, Analysis and Layers describe the new dataset. If
// the engine rejects a layer, Layers holds only the ones it accepted.
func (m *Map) LoadGeoJSON(data []byte) ([]geostyle.LayerStyle, error) {
	if m.engine == nil {
		return nil, ErrNotAttached
	}
	analysis, err := geostyle.AnalyzeBytes(data)
	if err != nil {
		return nil, err
	}
	layers := geostyle.Synthesize(analysis)
	metrics.Analyses.Inc()

	if err := m.engine.SetSource(geostyle.SourceName, data); err != nil {
		return nil, eris.Wrap(err, "geomap: set source")
	}
	m.analysis = analysis
	m.layers = make([]geostyle.LayerStyle, 0, len(layers))
	for _, layer := range layers {
		if err := m.engine.AddLayer(layer); err != nil {
			return nil, eris.Wrapf(err, "geomap: add layer %s", layer.ID)
		}
		m.layers = append(m.layers, layer)
		metrics.LayersSynthesized.WithLabelValues(string(layer.Type)).Inc()
	}

	m.log.Debug("geojson loaded",
		zap.Strings("geometryTypes", analysis.GeometryTypes),
		zap.Int("layers", len(layers)),
	)
	m.emit(EventLayersChanged, LayersChange{Analysis: analysis, Layers: layers})
	return m.Layers(), nil
}

func (m *Map) classify(zoom float64) (viewport.Proximity, bool) {
	p, changed := m.tracker.Observe(zoom)
	if m.host != nil {
		viewport.Presentation(p).Apply(m.host)
	}
	metrics.Classifications.WithLabelValues(p.String()).Inc()
	if changed {
		m.log.Debug("proximity changed", zap.Stringer("proximity", p), zap.Float64("zoom", zoom))
	}
	return p, changed
}

func (m *Map) emit(typ string, payload any) {
	ev := Event{Type: typ, MapID: m.id, Payload: payload}
	for _, fn := range m.listeners {
		fn(ev)
	}
}
