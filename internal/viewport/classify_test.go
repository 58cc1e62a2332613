package viewport

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name     string
		zoom     float64
		expected Proximity
	}{
		{name: "far: world view", zoom: 0, expected: Far},
		{name: "far: just below far breakpoint", zoom: 9.999, expected: Far},
		{name: "middle: at far breakpoint", zoom: 10, expected: Middle},
		{name: "middle: between breakpoints", zoom: 12.5, expected: Middle},
		{name: "middle: at near breakpoint", zoom: 15, expected: Middle},
		{name: "near: just above near breakpoint", zoom: 15.001, expected: Near},
		{name: "near: street level", zoom: 22, expected: Near},
		{name: "far: negative zoom", zoom: -3, expected: Far},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.zoom, th))
		})
	}
}

func TestClassify_BoundariesForArbitraryThresholds(t *testing.T) {
	pairs := []Thresholds{
		{Near: 15, Far: 10},
		{Near: 1, Far: 0},
		{Near: 20.5, Far: 3.25},
		{Near: -1, Far: -5},
	}
	for _, th := range pairs {
		eps := 1e-9
		assert.Equal(t, Middle, Classify(th.Far, th))
		assert.Equal(t, Middle, Classify(th.Near, th))
		assert.Equal(t, Far, Classify(th.Far-eps, th))
		assert.Equal(t, Near, Classify(th.Near+eps, th))
		assert.Equal(t, Far, Classify(math.Nextafter(th.Far, math.Inf(-1)), th))
		assert.Equal(t, Near, Classify(math.Nextafter(th.Near, math.Inf(1)), th))
	}
}

func TestProximity_StringAndJSON(t *testing.T) {
	assert.Equal(t, "far", Far.String())
	assert.Equal(t, "middle", Middle.String())
	assert.Equal(t, "near", Near.String())
	assert.Equal(t, "Proximity(7)", Proximity(7).String())

	out, err := json.Marshal(map[string]Proximity{"state": Near})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"near"}`, string(out))
}

func TestParse(t *testing.T) {
	for _, p := range All {
		got, err := Parse(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := Parse("close")
	assert.Error(t, err)
}

func TestThresholds_Valid(t *testing.T) {
	assert.True(t, DefaultThresholds().Valid())
	assert.False(t, Thresholds{Near: 10, Far: 10}.Valid())
	assert.False(t, Thresholds{Near: 10, Far: 15}.Valid())
}
