package mapconfig

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"github.com/joeblew999/geo-map/internal/viewport"
)

// Resolve merges declared attributes with URL overrides into a Snapshot.
//
// Center, zoom, bearing, and pitch take the URL value first, then the
// attribute, then the default; a value that does not parse is treated as
// unset. The access token, style, lock flag, search bounds, and zoom
// breakpoints come from attributes only. A missing token or a malformed
// search-bounds or zoom-breakpoints attribute is an error.
func Resolve(attrs Attributes, params URLParams) (Snapshot, error) {
	if attrs == nil {
		attrs = Attributes{}
	}
	if params == nil {
		params = URLParams{}
	}

	token := strings.TrimSpace(attrs[AttrAccessToken])
	if token == "" {
		return Snapshot{}, eris.Wrap(ErrMissingCredential, "resolve map config")
	}

	snap := Snapshot{
		AccessToken: token,
		StyleURL:    DefaultStyleURL,
		Center: orb.Point{
			resolveScalar(longitudeField, attrs, params),
			resolveScalar(latitudeField, attrs, params),
		},
		Zoom:       resolveScalar(zoomField, attrs, params),
		Bearing:    resolveScalar(bearingField, attrs, params),
		Pitch:      resolveScalar(pitchField, attrs, params),
		Locked:     attrs.Has(AttrLocked),
		Thresholds: viewport.DefaultThresholds(),
		Geolocate:  attrs.Has(AttrGeolocate),
		Slideshow:  attrs[AttrSlideshow],
		Projection: DefaultProjection,
	}
	if s := strings.TrimSpace(attrs[AttrStyleURL]); s != "" {
		snap.StyleURL = s
	}

	if raw := strings.TrimSpace(attrs[AttrZoomBreakpoints]); raw != "" {
		t, err := parseThresholds(raw)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Thresholds = t
	}

	if raw := strings.TrimSpace(attrs[AttrSearchBounds]); raw != "" {
		b, err := parseBounds(raw)
		if err != nil {
			return Snapshot{}, err
		}
		snap.SearchBounds = &b
	}

	return snap, nil
}

// ResolveURL is Resolve with the overrides read from a page URL.
func ResolveURL(attrs Attributes, pageURL string) (Snapshot, error) {
	return Resolve(attrs, ParseURLParams(pageURL))
}
