package gtfsstats

import (
	"sort"

	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/statistics"
)

// Human readable names of the known services.
var DefaultServiceLabels = map[string]string{
	"1840": "Weekdays (Mon–Thu)",
	"1841": "Friday only",
	"1842": "Saturday only",
	"1843": "Sunday only",
}

// Total scheduled time of a single trip.
type TripDuration struct {
	TripID    string  `json:"trip_id"`
	RouteID   string  `json:"route_id"`
	ServiceID string  `json:"service_id"`
	TotalTime float64 `json:"total_time"`

	// Furthest cumulative distance reached. Trips with the same
	// route and distance are taken to follow the same pattern.
	MaxDistance float64 `json:"max_distance"`
}

// Per-trip total time (unfiltered) and max distance, ordered by trip.
// Trips without a route are left out.
func TripDurations(segments []model.Segment) []TripDuration {
	byTrip := map[string]*TripDuration{}
	order := []string{}
	for i := range segments {
		seg := &segments[i]
		if seg.RouteID == "" {
			continue
		}
		d, found := byTrip[seg.TripID]
		if !found {
			d = &TripDuration{
				TripID:      seg.TripID,
				RouteID:     seg.RouteID,
				ServiceID:   seg.ServiceID,
				MaxDistance: seg.ShapeDistTraveled,
			}
			byTrip[seg.TripID] = d
			order = append(order, seg.TripID)
		}
		d.TotalTime += seg.TimeBetweenStops
		if seg.ShapeDistTraveled > d.MaxDistance {
			d.MaxDistance = seg.ShapeDistTraveled
		}
	}

	sort.Strings(order)
	out := make([]TripDuration, 0, len(order))
	for _, id := range order {
		out = append(out, *byTrip[id])
	}
	return out
}

// Trip duration statistics for one service of a route pattern.
type ServiceDuration struct {
	RouteID      string  `json:"route_id"`
	MaxDistance  float64 `json:"max_distance"`
	ServiceID    string  `json:"service_id"`
	ServiceLabel string  `json:"service_label,omitempty"`
	Count        int     `json:"count"`
	Mean         float64 `json:"mean"`
	Variance     float64 `json:"variance"`
	Std          float64 `json:"std"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Median       float64 `json:"median"`
}

// Compares trip durations of the same route pattern across services.
// Only patterns (route, max distance) run under two or more services
// are kept. Variance and Std are 0 for single-trip groups.
func CompareServiceDurations(durations []TripDuration, labels map[string]string) []ServiceDuration {
	type pattern struct {
		route string
		dist  float64
	}
	type key struct {
		pattern
		service string
	}

	services := map[pattern]map[string]bool{}
	times := map[key][]float64{}
	for _, d := range durations {
		p := pattern{d.RouteID, d.MaxDistance}
		if services[p] == nil {
			services[p] = map[string]bool{}
		}
		services[p][d.ServiceID] = true

		k := key{p, d.ServiceID}
		times[k] = append(times[k], d.TotalTime)
	}

	out := []ServiceDuration{}
	for k, values := range times {
		if len(services[k.pattern]) < 2 {
			continue
		}
		s := statistics.Describe(values)
		out = append(out, ServiceDuration{
			RouteID:      k.route,
			MaxDistance:  k.dist,
			ServiceID:    k.service,
			ServiceLabel: labels[k.service],
			Count:        s.Count,
			Mean:         statistics.Value(s.Mean),
			Variance:     statistics.SampleVariance(values),
			Std:          s.Std,
			Min:          statistics.Value(s.Min),
			Max:          statistics.Value(s.Max),
			Median:       statistics.Value(s.Median),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RouteID != out[j].RouteID {
			return out[i].RouteID < out[j].RouteID
		}
		if out[i].MaxDistance != out[j].MaxDistance {
			return out[i].MaxDistance < out[j].MaxDistance
		}
		return out[i].ServiceID < out[j].ServiceID
	})

	return out
}
