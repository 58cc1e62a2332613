package mapconfig

import (
	"encoding/json"
	"net/url"
	"strings"
)

// URLParams are query parameters after JSON decoding. Values are whatever
// encoding/json produced (float64, bool, string, ...) or the raw string when
// the value is not JSON.
type URLParams map[string]any

// ParseURLParams reads the query of a full URL or a bare query string.
// Repeated keys keep the last value. Malformed escapes are skipped.
func ParseURLParams(raw string) URLParams {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}

	params := URLParams{}
	values, _ := url.ParseQuery(raw)
	for key, vals := range values {
		if key == "" || len(vals) == 0 {
			continue
		}
		params[key] = decodeParam(vals[len(vals)-1])
	}
	return params
}

func decodeParam(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}
