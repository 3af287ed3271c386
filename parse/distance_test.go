package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShapeDistWithHeuristic(t *testing.T) {
	for _, tc := range []struct {
		raw      string
		expected float64
		err      bool
	}{
		{"0,85", 850, false},
		{"0.85", 850, false},
		{"11,999", 11999, false},
		{"12", 12, false},
		{"1500", 1500, false},
		{"0", 0, false},
		{" 3,5 ", 3500, false},
		{"-0,2", -200, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1,2,3", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"+Inf", 0, true},
		{"-infinity", 0, true},
		{"1e400", 0, true},
	} {
		t.Run(tc.raw, func(t *testing.T) {
			v, err := ParseShapeDist(tc.raw)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, KilometerHeuristic(v), 1e-6)
		})
	}
}

func TestDistancePolicies(t *testing.T) {
	assert.Equal(t, 5.0, Meters(5))
	assert.Equal(t, 5000.0, Kilometers(5))
	assert.Equal(t, 15000.0, Kilometers(15))
	assert.Equal(t, 15.0, KilometerHeuristic(15))
}

func TestKilometerHeuristicIdempotentAboveThreshold(t *testing.T) {
	for _, v := range []float64{KilometerThreshold, 12.5, 15, 850, 1500, 11999, 1e6} {
		once := KilometerHeuristic(v)
		assert.Equal(t, v, once)
		assert.Equal(t, once, KilometerHeuristic(once))
	}

	// Below the threshold the first pass lands in meters, which
	// the heuristic then leaves alone.
	for _, v := range []float64{0.5, 3.5, 11.999} {
		once := KilometerHeuristic(v)
		assert.Equal(t, once, KilometerHeuristic(once))
	}
}

func TestDistancePolicyFor(t *testing.T) {
	for _, tc := range []struct {
		unit     string
		in       float64
		expected float64
	}{
		{"", 5, 5000},
		{"auto", 20, 20},
		{"meters", 5, 5},
		{"M", 5, 5},
		{"kilometers", 20, 20000},
		{"km", 1, 1000},
	} {
		policy, err := DistancePolicyFor(tc.unit)
		require.NoError(t, err, tc.unit)
		assert.Equal(t, tc.expected, policy(tc.in), tc.unit)
	}

	_, err := DistancePolicyFor("furlongs")
	assert.Error(t, err)
}
