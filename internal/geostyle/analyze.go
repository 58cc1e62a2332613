// Package geostyle inspects GeoJSON feature collections and builds default
// map layer styles for them.
//
// Analysis and synthesis are kept as two steps: Analyze records which
// geometry types are present and the numeric range of every property, and
// Synthesize turns that inventory into one layer per geometry type.
package geostyle

import (
	"encoding/json"
	"math"

	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
)

// ErrInvalidGeoJSON is returned by AnalyzeBytes for a document that is not
// a feature collection.
var ErrInvalidGeoJSON = eris.New("geostyle: invalid feature collection")

// Feature is a leniently decoded GeoJSON feature. Geometry is kept raw so a
// malformed geometry does not prevent the properties from being read.
type Feature struct {
	Geometry   json.RawMessage `json:"geometry,omitempty"`
	Properties map[string]any  `json:"properties,omitempty"`
}

// FeatureCollection is a leniently decoded GeoJSON feature collection.
type FeatureCollection struct {
	Features []Feature `json:"features"`
}

// Range is the inclusive numeric span observed for one property.
type Range struct {
	Min float64 `json:"min" doc:"Smallest numeric value seen"`
	Max float64 `json:"max" doc:"Largest numeric value seen"`
}

// Analysis is the inventory of a feature collection.
type Analysis struct {
	GeometryTypes  []string         `json:"geometryTypes" doc:"Distinct geometry types in first-occurrence order"`
	PropertyRanges map[string]Range `json:"propertyRanges" doc:"Numeric range per property name"`
}

// analyzer accumulates an Analysis one feature at a time.
type analyzer struct {
	seen   map[string]struct{}
	result Analysis
}

func newAnalyzer() *analyzer {
	return &analyzer{
		seen: make(map[string]struct{}),
		result: Analysis{
			GeometryTypes:  []string{},
			PropertyRanges: make(map[string]Range),
		},
	}
}

func (a *analyzer) addGeometryType(t string) {
	if t == "" {
		return
	}
	if _, ok := a.seen[t]; ok {
		return
	}
	a.seen[t] = struct{}{}
	a.result.GeometryTypes = append(a.result.GeometryTypes, t)
}

func (a *analyzer) addProperties(props map[string]any) {
	for key, raw := range props {
		v, ok := asNumber(raw)
		if !ok {
			continue
		}
		r, exists := a.result.PropertyRanges[key]
		if !exists {
			a.result.PropertyRanges[key] = Range{Min: v, Max: v}
			continue
		}
		if v < r.Min {
			r.Min = v
		}
		if v > r.Max {
			r.Max = v
		}
		a.result.PropertyRanges[key] = r
	}
}

// Analyze walks every feature once and records geometry types and numeric
// property ranges.
func Analyze(fc FeatureCollection) Analysis {
	a := newAnalyzer()
	for _, f := range fc.Features {
		a.addGeometryType(geometryType(f.Geometry))
		a.addProperties(f.Properties)
	}
	return a.result
}

// AnalyzeOrb analyzes a collection that was already decoded by orb.
func AnalyzeOrb(fc *geojson.FeatureCollection) Analysis {
	a := newAnalyzer()
	if fc == nil {
		return a.result
	}
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		if f.Geometry != nil {
			a.addGeometryType(f.Geometry.GeoJSONType())
		}
		a.addProperties(f.Properties)
	}
	return a.result
}

// AnalyzeBytes decodes a GeoJSON document and analyzes it.
func AnalyzeBytes(data []byte) (Analysis, error) {
	fc, err := Decode(data)
	if err != nil {
		return Analysis{}, err
	}
	return Analyze(fc), nil
}

// Decode parses a GeoJSON feature collection without validating geometry.
func Decode(data []byte) (FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return FeatureCollection{}, eris.Wrap(ErrInvalidGeoJSON, err.Error())
	}
	if fc.Features == nil {
		return FeatureCollection{}, eris.Wrap(ErrInvalidGeoJSON, "missing features array")
	}
	return fc, nil
}

// geometryType returns the GeoJSON type name of a raw geometry, or "" when
// the geometry is absent or cannot be decoded.
func geometryType(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil || g == nil {
		return ""
	}
	// Collections keep their members in Geometries and leave Coordinates nil.
	return g.Type
}

// asNumber reports the float value of any Go numeric kind. NaN and
// infinities are not ranges.
func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
