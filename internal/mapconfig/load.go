package mapconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides for attribute files, e.g.
// GEOMAP_ACCESSTOKEN or GEOMAP_ZOOM_BREAKPOINTS.
const EnvPrefix = "GEOMAP"

// presenceFlags are attributes whose meaning is "declared or not".
var presenceFlags = map[string]bool{
	AttrLocked:    true,
	AttrGeolocate: true,
}

// LoadAttributes reads declared attributes from a YAML, JSON, or TOML file
// and from GEOMAP_* environment variables. An empty path reads the
// environment only. Lists are joined with commas, so search-bounds may be
// written as a four element list. A presence flag set to false is dropped.
func LoadAttributes(path string) (Attributes, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, eris.Wrapf(err, "mapconfig: read attributes %s", path)
		}
	}

	attrs := Attributes{}
	for _, key := range v.AllKeys() {
		attrs[key] = attributeString(v.Get(key))
	}
	for _, key := range KnownAttributes {
		if _, ok := attrs[key]; ok {
			continue
		}
		if v.IsSet(key) {
			attrs[key] = attributeString(v.Get(key))
		}
	}

	for key := range presenceFlags {
		raw, ok := attrs[key]
		if !ok {
			continue
		}
		if on, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil && !on {
			delete(attrs, key)
		}
	}
	return attrs, nil
}

func attributeString(v any) string {
	switch t := v.(type) {
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(t, ",")
	default:
		return cast.ToString(v)
	}
}
