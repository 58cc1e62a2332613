// Package viewport classifies the map zoom level into discrete proximity
// states and projects them onto host presentation classes.
package viewport

import (
	"encoding/json"
	"fmt"
)

// Proximity is how close the current view is to the ground.
type Proximity int

const (
	Far Proximity = iota
	Middle
	Near
)

// Default zoom breakpoints.
const (
	DefaultNear = 15.0
	DefaultFar  = 10.0
)

// All lists every proximity state in ascending zoom order.
var All = []Proximity{Far, Middle, Near}

func (p Proximity) String() string {
	switch p {
	case Far:
		return "far"
	case Middle:
		return "middle"
	case Near:
		return "near"
	default:
		return fmt.Sprintf("Proximity(%d)", int(p))
	}
}

// MarshalJSON encodes the state as its class name.
func (p Proximity) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Parse returns the state named s.
func Parse(s string) (Proximity, error) {
	for _, p := range All {
		if p.String() == s {
			return p, nil
		}
	}
	return Far, fmt.Errorf("viewport: unknown proximity %q", s)
}

// Thresholds are the zoom breakpoints between states. Far must be below Near.
type Thresholds struct {
	Near float64 `json:"near" doc:"Zoom above which the view is near" example:"15"`
	Far  float64 `json:"far" doc:"Zoom below which the view is far" example:"10"`
}

// DefaultThresholds returns the 15/10 breakpoints.
func DefaultThresholds() Thresholds {
	return Thresholds{Near: DefaultNear, Far: DefaultFar}
}

// Valid reports whether Far < Near.
func (t Thresholds) Valid() bool {
	return t.Far < t.Near
}

// Classify maps zoom to a proximity state. Both breakpoints belong to
// Middle: zoom == Far and zoom == Near are Middle, only zoom > Near is Near.
func Classify(zoom float64, t Thresholds) Proximity {
	switch {
	case zoom < t.Far:
		return Far
	case zoom <= t.Near:
		return Middle
	default:
		return Near
	}
}
