package mapconfig

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/joeblew999/geo-map/internal/viewport"
)

// splitNumbers strictly parses a comma separated list of finite numbers.
func splitNumbers(raw string) ([]float64, bool) {
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// parseBounds parses "west,south,east,north".
func parseBounds(raw string) (Bounds, error) {
	nums, ok := splitNumbers(raw)
	if !ok || len(nums) != 4 {
		return Bounds{}, eris.Wrapf(ErrMalformedBounds, "search-bounds %q", raw)
	}
	return Bounds{nums[0], nums[1], nums[2], nums[3]}, nil
}

// parseThresholds parses the combined "near,far" breakpoint attribute.
func parseThresholds(raw string) (viewport.Thresholds, error) {
	nums, ok := splitNumbers(raw)
	if !ok || len(nums) != 2 {
		return viewport.Thresholds{}, eris.Wrapf(ErrMalformedThresholds, "zoom-breakpoints %q", raw)
	}
	t := viewport.Thresholds{Near: nums[0], Far: nums[1]}
	if !t.Valid() {
		return viewport.Thresholds{}, eris.Wrapf(ErrInvalidThresholdOrder, "zoom-breakpoints near=%g far=%g", t.Near, t.Far)
	}
	return t, nil
}
