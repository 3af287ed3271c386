package statistics

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Descriptive statistics for a set of values.
//
// Mean, Median, Min and Max are nil when Count is 0. Std is the
// sample standard deviation and is 0 (not undefined) when Count < 2.
type Stats struct {
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Std    float64  `json:"std"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
}

func Describe(values []float64) Stats {
	s := Stats{Count: len(values)}
	if len(values) == 0 {
		return s
	}

	data := stats.Float64Data(values)

	// Errors are only returned for empty input, handled above.
	mean, _ := data.Mean()
	median, _ := data.Median()
	min, _ := data.Min()
	max, _ := data.Max()

	s.Mean = &mean
	s.Median = &median
	s.Min = &min
	s.Max = &max
	s.Std = SampleStd(values)

	return s
}

// Same as Describe, restricted to strictly positive values.
func DescribePositive(values []float64) Stats {
	return Describe(Positive(values))
}

// Sample variance with Bessel's correction. 0 for fewer than two
// values.
func SampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	v, err := stats.SampleVariance(values)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}

func SampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	v, err := stats.StandardDeviationSample(values)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}

// Mean of values, 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, _ := stats.Mean(values)
	return m
}

func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, _ := stats.Median(values)
	return m
}

func Positive(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}

// Returns v, or 0 if v is nil.
func Value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
