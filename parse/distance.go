package parse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Values of shape_dist_traveled below this are taken to be in
// kilometers.
const KilometerThreshold = 12

// Converts a parsed shape_dist_traveled value into meters.
type DistancePolicy func(float64) float64

// Infers the unit from magnitude: anything below KilometerThreshold
// is rescaled from km to m. A legitimately short distance recorded
// in meters is misread as km.
func KilometerHeuristic(v float64) float64 {
	if v < KilometerThreshold {
		return v * 1000
	}
	return v
}

// For sources known to record meters.
func Meters(v float64) float64 {
	return v
}

// For sources known to record kilometers.
func Kilometers(v float64) float64 {
	return v * 1000
}

// Maps a unit name from configuration to a policy. "auto" (or blank)
// selects KilometerHeuristic.
func DistancePolicyFor(unit string) (DistancePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "auto":
		return KilometerHeuristic, nil
	case "m", "meters":
		return Meters, nil
	case "km", "kilometers":
		return Kilometers, nil
	}
	return nil, fmt.Errorf("unknown distance unit '%s'", unit)
}

// Parses a number that may use a comma as decimal separator.
func ParseDecimal(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: '%s'", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: '%s'", raw)
	}
	return v, nil
}

// Parses a raw shape_dist_traveled value. The unit is not corrected
// here; see DistancePolicy.
func ParseShapeDist(raw string) (float64, error) {
	return ParseDecimal(raw)
}
