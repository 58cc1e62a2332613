package mapconfig

import "github.com/rotisserie/eris"

// Structural errors. Any of these stops resolution; a map must not be built
// from a configuration that failed with one of them.
var (
	ErrMissingCredential     = eris.New("mapconfig: access token is required")
	ErrInvalidThresholdOrder = eris.New("mapconfig: far zoom breakpoint must be below near breakpoint")
	ErrMalformedBounds       = eris.New("mapconfig: search bounds need exactly four numbers")
	ErrMalformedThresholds   = eris.New("mapconfig: zoom breakpoints need exactly two numbers")
)

// Error kinds reported to API clients.
const (
	KindMissingCredential     = "missing_credential"
	KindInvalidThresholdOrder = "invalid_threshold_order"
	KindMalformedBounds       = "malformed_bounds"
	KindMalformedThresholds   = "malformed_thresholds"
)

// ErrorKind returns the machine-readable kind of a resolution error, or ""
// for errors that did not come from Resolve.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case eris.Is(err, ErrMissingCredential):
		return KindMissingCredential
	case eris.Is(err, ErrInvalidThresholdOrder):
		return KindInvalidThresholdOrder
	case eris.Is(err, ErrMalformedBounds):
		return KindMalformedBounds
	case eris.Is(err, ErrMalformedThresholds):
		return KindMalformedThresholds
	default:
		return ""
	}
}
