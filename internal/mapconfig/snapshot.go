// Package mapconfig resolves the configuration of a map instance from its
// declared attributes and URL query overrides.
package mapconfig

import (
	"github.com/paulmach/orb"

	"github.com/joeblew999/geo-map/internal/viewport"
)

// Attribute names read from the host element.
const (
	AttrAccessToken     = "accesstoken"
	AttrStyleURL        = "styleurl"
	AttrLatitude        = "latitude"
	AttrLongitude       = "longitude"
	AttrZoom            = "zoom"
	AttrBearing         = "bearing"
	AttrPitch           = "pitch"
	AttrLocked          = "locked"
	AttrSearchBounds    = "search-bounds"
	AttrZoomBreakpoints = "zoom-breakpoints"
	AttrGeolocate       = "geolocate"
	AttrSlideshow       = "slideshow"
)

// KnownAttributes lists every attribute Resolve understands.
var KnownAttributes = []string{
	AttrAccessToken, AttrStyleURL, AttrLatitude, AttrLongitude, AttrZoom,
	AttrBearing, AttrPitch, AttrLocked, AttrSearchBounds, AttrZoomBreakpoints,
	AttrGeolocate, AttrSlideshow,
}

// Defaults.
const (
	DefaultStyleURL   = "mapbox://styles/mapbox/streets-v11"
	DefaultZoom       = 1.0
	DefaultProjection = "globe"
	MaxPitch          = 60.0
)

// Attributes are the string attributes declared on the host element. A key
// that is present with any value counts as declared.
type Attributes map[string]string

// Has reports whether name is declared.
func (a Attributes) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Bounds is a west, south, east, north box.
type Bounds [4]float64

func (b Bounds) West() float64  { return b[0] }
func (b Bounds) South() float64 { return b[1] }
func (b Bounds) East() float64  { return b[2] }
func (b Bounds) North() float64 { return b[3] }

// Bound converts b to an orb bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West(), b.South()},
		Max: orb.Point{b.East(), b.North()},
	}
}

// Snapshot is a fully resolved map configuration. It is produced once by
// Resolve and treated as a value afterwards; a configuration change means
// resolving a new Snapshot.
type Snapshot struct {
	AccessToken  string              `json:"accessToken,omitempty" doc:"Rendering engine access token; omitted once handed to a session"`
	StyleURL     string              `json:"styleUrl" doc:"Base map style reference" example:"mapbox://styles/mapbox/streets-v11"`
	Center       orb.Point           `json:"center" doc:"Camera center as [longitude, latitude]"`
	Zoom         float64             `json:"zoom" doc:"Initial zoom level"`
	Bearing      float64             `json:"bearing" doc:"Initial bearing in degrees"`
	Pitch        float64             `json:"pitch" doc:"Initial pitch in degrees (0-60)"`
	Locked       bool                `json:"locked" doc:"Whether user interaction is disabled"`
	Thresholds   viewport.Thresholds `json:"thresholds" doc:"Zoom breakpoints between far, middle, and near"`
	SearchBounds *Bounds             `json:"searchBounds,omitempty" doc:"Geocoder search box as [west, south, east, north]"`
	Geolocate    bool                `json:"geolocate" doc:"Whether the geolocate control is requested"`
	Slideshow    string              `json:"slideshow,omitempty" doc:"Slideshow reference, passed through"`
	Projection   string              `json:"projection" doc:"Map projection" example:"globe"`
}

// Latitude returns the center latitude.
func (s Snapshot) Latitude() float64 { return s.Center.Lat() }

// Longitude returns the center longitude.
func (s Snapshot) Longitude() float64 { return s.Center.Lon() }

// Interactive reports whether the map accepts user input.
func (s Snapshot) Interactive() bool { return !s.Locked }

// Redacted returns a copy without the access token, for anything that
// leaves the process after the engine has been configured.
func (s Snapshot) Redacted() Snapshot {
	s.AccessToken = ""
	return s
}

// BoundsFromOrb converts an orb bound to a west, south, east, north box.
func BoundsFromOrb(b orb.Bound) Bounds {
	return Bounds{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
}
