package service

import (
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joeblew999/geo-map/internal/geomap"
	"github.com/joeblew999/geo-map/internal/geostyle"
	"github.com/joeblew999/geo-map/internal/mapconfig"
	"github.com/joeblew999/geo-map/internal/metrics"
)

// ResourceMaps is the event resource name for map sessions.
const ResourceMaps = "maps"

// ErrMapNotFound is returned for an unknown session id.
var ErrMapNotFound = eris.New("map not found")

// ResolveConfig resolves a snapshot and records the outcome.
func ResolveConfig(log *zap.Logger, attrs mapconfig.Attributes, params mapconfig.URLParams) (mapconfig.Snapshot, error) {
	snap, err := mapconfig.Resolve(attrs, params)
	if err != nil {
		kind := mapconfig.ErrorKind(err)
		metrics.Resolutions.WithLabelValues(kind).Inc()
		log.Warn("map config rejected", zap.String("kind", kind), zap.Error(err))
		return mapconfig.Snapshot{}, err
	}
	metrics.Resolutions.WithLabelValues("ok").Inc()
	return snap, nil
}

// mapSession is one headless map driven over the API.
type mapSession struct {
	mu     sync.Mutex
	m      *geomap.Map
	engine *geomap.MemoryEngine
	host   *geomap.ClassList
}

func (s *mapSession) state() MapState {
	st := MapState{
		ID:       s.m.ID(),
		Snapshot: s.m.Snapshot().Redacted(),
		Loaded:   s.m.Loaded(),
		Classes:  s.host.Classes(),
		Zoom:     s.engine.Zoom(),
		Layers:   s.m.Layers(),
	}
	if p, ok := s.m.Proximity(); ok {
		st.Proximity = p.String()
	}
	return st
}

// MapService holds map sessions. Each session is locked for the duration
// of an operation, so one session sees its moves in order.
type MapService struct {
	bus  *EventBus
	log  *zap.Logger
	maps map[string]*mapSession
	mu   sync.RWMutex
}

// NewMapService creates a map service publishing to bus.
func NewMapService(bus *EventBus, log *zap.Logger) *MapService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MapService{
		bus:  bus,
		log:  log,
		maps: make(map[string]*mapSession),
	}
}

// Create resolves a configuration and starts a loaded session.
func (s *MapService) Create(attrs mapconfig.Attributes, params mapconfig.URLParams) (MapState, error) {
	snap, err := ResolveConfig(s.log, attrs, params)
	if err != nil {
		return MapState{}, err
	}

	host := geomap.NewClassList()
	engine := geomap.NewMemoryEngine(snap.Center, snap.Zoom)
	m := geomap.New(snap, host,
		geomap.WithLogger(s.log),
		geomap.WithListener(s.forward),
	)
	sess := &mapSession{m: m, engine: engine, host: host}

	s.mu.Lock()
	s.maps[m.ID()] = sess
	s.mu.Unlock()
	metrics.ActiveSessions.Inc()
	s.publish(Event{Resource: ResourceMaps, Action: "created", ID: m.ID()})

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := m.Attach(engine); err != nil {
		return MapState{}, err
	}
	return sess.state(), nil
}

// Get returns a session by ID.
func (s *MapService) Get(id string) (MapState, bool) {
	sess, ok := s.session(id)
	if !ok {
		return MapState{}, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state(), true
}

// List returns all sessions ordered by ID.
func (s *MapService) List() []MapState {
	s.mu.RLock()
	sessions := make([]*mapSession, 0, len(s.maps))
	for _, sess := range s.maps {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	result := make([]MapState, 0, len(sessions))
	for _, sess := range sessions {
		sess.mu.Lock()
		result = append(result, sess.state())
		sess.mu.Unlock()
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Move applies a renderer-reported move end to a session.
func (s *MapService) Move(id string, in MoveInput) (geomap.ViewportChange, error) {
	sess, ok := s.session(id)
	if !ok {
		return geomap.ViewportChange{}, eris.Wrapf(ErrMapNotFound, "map %q", id)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	b := in.Bounds.Bound()
	sess.engine.Move(orb.Point(in.Center), b, in.Zoom)
	return sess.m.MoveEnd()
}

// LoadGeoJSON replaces the dataset of a session.
func (s *MapService) LoadGeoJSON(id string, data []byte) ([]geostyle.LayerStyle, error) {
	sess, ok := s.session(id)
	if !ok {
		return nil, eris.Wrapf(ErrMapNotFound, "map %q", id)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.m.LoadGeoJSON(data)
}

// Delete removes a session.
func (s *MapService) Delete(id string) error {
	s.mu.Lock()
	_, exists := s.maps[id]
	delete(s.maps, id)
	s.mu.Unlock()

	if !exists {
		return eris.Wrapf(ErrMapNotFound, "map %q", id)
	}
	metrics.ActiveSessions.Dec()
	s.publish(Event{Resource: ResourceMaps, Action: "deleted", ID: id})
	return nil
}

func (s *MapService) session(id string) (*mapSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.maps[id]
	return sess, ok
}

// forward republishes map events on the bus.
func (s *MapService) forward(ev geomap.Event) {
	s.publish(Event{Resource: ResourceMaps, Action: ev.Type, ID: ev.MapID, Payload: ev.Payload})
}

func (s *MapService) publish(e Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
