package mapconfig

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// scalar describes one overridable numeric field.
type scalar struct {
	name     string
	def      float64
	min, max float64
}

func (s scalar) inRange(v float64) bool {
	return v >= s.min && v <= s.max
}

var (
	latitudeField  = scalar{name: AttrLatitude, def: 0, min: -90, max: 90}
	longitudeField = scalar{name: AttrLongitude, def: 0, min: -180, max: 180}
	zoomField      = scalar{name: AttrZoom, def: DefaultZoom, min: 0, max: math.MaxFloat64}
	bearingField   = scalar{name: AttrBearing, def: 0, min: -math.MaxFloat64, max: math.MaxFloat64}
	pitchField     = scalar{name: AttrPitch, def: 0, min: 0, max: MaxPitch}
)

// coerceFloat leniently turns a URL param or attribute value into a finite
// number. It never fails; ok is false when the value is unusable.
func coerceFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
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

// resolveScalar applies URL param > attribute > default. A value that does
// not parse or falls outside the field range is skipped as if unset.
func resolveScalar(s scalar, attrs Attributes, params URLParams) float64 {
	if raw, ok := params[s.name]; ok {
		if v, ok := coerceFloat(raw); ok && s.inRange(v) {
			return v
		}
	}
	if raw, ok := attrs[s.name]; ok {
		if v, ok := coerceFloat(raw); ok && s.inRange(v) {
			return v
		}
	}
	return s.def
}
