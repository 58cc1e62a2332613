package geomap

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/paulmach/orb"

	"github.com/joeblew999/geo-map/internal/geostyle"
)

// Engine is the adapter around the external map rendering engine. The
// engine owns tiles, projection, camera, and input; the component only
// reads the camera after a move and registers sources and layers.
type Engine interface {
	Center() orb.Point
	Bounds() orb.Bound
	Zoom() float64
	SetSource(name string, data json.RawMessage) error
	AddLayer(layer geostyle.LayerStyle) error
}

// Host is the element the map is mounted in.
type Host interface {
	ToggleClass(name string, on bool)
}

// MemoryEngine is a headless Engine. The camera is whatever the last Move
// reported; sources and layers are recorded in registration order. It is
// used for server-side sessions driven by a remote renderer.
type MemoryEngine struct {
	mu      sync.RWMutex
	center  orb.Point
	bounds  orb.Bound
	zoom    float64
	sources map[string]json.RawMessage
	layers  []geostyle.LayerStyle
}

// NewMemoryEngine returns an engine whose camera starts at center/zoom.
func NewMemoryEngine(center orb.Point, zoom float64) *MemoryEngine {
	return &MemoryEngine{
		center:  center,
		bounds:  center.Bound(),
		zoom:    zoom,
		sources: make(map[string]json.RawMessage),
	}
}

// Move records a camera position reported by the renderer.
func (e *MemoryEngine) Move(center orb.Point, bounds orb.Bound, zoom float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.center, e.bounds, e.zoom = center, bounds, zoom
}

func (e *MemoryEngine) Center() orb.Point {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.center
}

func (e *MemoryEngine) Bounds() orb.Bound {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bounds
}

func (e *MemoryEngine) Zoom() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.zoom
}

// SetSource replaces the data of a named source.
func (e *MemoryEngine) SetSource(name string, data json.RawMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources[name] = data
	return nil
}

// AddLayer registers a layer, replacing any layer with the same id.
func (e *MemoryEngine) AddLayer(layer geostyle.LayerStyle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, l := range e.layers {
		if l.ID == layer.ID {
			e.layers[i] = layer
			return nil
		}
	}
	e.layers = append(e.layers, layer)
	return nil
}

// Layers returns the registered layers in registration order.
func (e *MemoryEngine) Layers() []geostyle.LayerStyle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]geostyle.LayerStyle, len(e.layers))
	copy(out, e.layers)
	return out
}

// Source returns the data registered under name.
func (e *MemoryEngine) Source(name string) (json.RawMessage, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	data, ok := e.sources[name]
	return data, ok
}

// ClassList is a Host that keeps its classes in a set.
type ClassList struct {
	mu      sync.RWMutex
	classes map[string]struct{}
}

// NewClassList returns an empty class list.
func NewClassList() *ClassList {
	return &ClassList{classes: make(map[string]struct{})}
}

func (c *ClassList) ToggleClass(name string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.classes[name] = struct{}{}
		return
	}
	delete(c.classes, name)
}

// Contains reports whether name is currently set.
func (c *ClassList) Contains(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.classes[name]
	return ok
}

// Classes returns the current classes, sorted.
func (c *ClassList) Classes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.classes))
	for name := range c.classes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
