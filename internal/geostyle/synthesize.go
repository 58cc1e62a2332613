package geostyle

import "encoding/json"

// SourceName is the logical GeoJSON source every synthesized layer draws from.
const SourceName = "geojson-data"

// DefaultColor is the paint color used by every default layer.
const DefaultColor = "#007cbf"

// Primitive is the rendering primitive of a layer.
type Primitive string

const (
	Circle Primitive = "circle"
	Line   Primitive = "line"
	Fill   Primitive = "fill"
)

// LayerStyle describes how the engine should draw one geometry type.
type LayerStyle struct {
	ID     string         `json:"id" doc:"Layer identifier" example:"Polygon-layer"`
	Type   Primitive      `json:"type" enum:"circle,line,fill" doc:"Rendering primitive"`
	Source string         `json:"source" doc:"Source the layer reads from" example:"geojson-data"`
	Paint  map[string]any `json:"paint" doc:"Paint properties"`
}

// PrimitiveFor maps a GeoJSON geometry type to its rendering primitive.
// Unknown types, including GeometryCollection, are drawn as circles.
func PrimitiveFor(geometryType string) Primitive {
	switch geometryType {
	case "Point", "MultiPoint":
		return Circle
	case "LineString", "MultiLineString":
		return Line
	case "Polygon", "MultiPolygon":
		return Fill
	default:
		return Circle
	}
}

// DefaultPaint returns a fresh copy of the default paint for p.
func DefaultPaint(p Primitive) map[string]any {
	switch p {
	case Line:
		return map[string]any{
			"line-width": 2.0,
			"line-color": DefaultColor,
		}
	case Fill:
		return map[string]any{
			"fill-color":   DefaultColor,
			"fill-opacity": 0.5,
		}
	default:
		return map[string]any{
			"circle-radius":  5.0,
			"circle-color":   DefaultColor,
			"circle-opacity": 0.8,
		}
	}
}

// LayerID is the deterministic layer id for a geometry type.
func LayerID(geometryType string) string {
	return geometryType + "-layer"
}

// Synthesize builds one layer per geometry type, in analysis order.
// Only the geometry inventory is used; PropertyRanges are left for
// data-driven paint.
func Synthesize(a Analysis) []LayerStyle {
	layers := make([]LayerStyle, 0, len(a.GeometryTypes))
	for _, t := range a.GeometryTypes {
		p := PrimitiveFor(t)
		layers = append(layers, LayerStyle{
			ID:     LayerID(t),
			Type:   p,
			Source: SourceName,
			Paint:  DefaultPaint(p),
		})
	}
	return layers
}

// Style is a Mapbox GL style fragment holding the GeoJSON source and the
// synthesized layers.
type Style struct {
	Version int                    `json:"version"`
	Name    string                 `json:"name,omitempty"`
	Sources map[string]StyleSource `json:"sources"`
	Layers  []LayerStyle           `json:"layers"`
}

// StyleSource is a GeoJSON source entry in a Style.
type StyleSource struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewStyle wraps layers into a version 8 style that points at data.
func NewStyle(name string, layers []LayerStyle, data json.RawMessage) Style {
	if layers == nil {
		layers = []LayerStyle{}
	}
	return Style{
		Version: 8,
		Name:    name,
		Sources: map[string]StyleSource{
			SourceName: {Type: "geojson", Data: data},
		},
		Layers: layers,
	}
}
