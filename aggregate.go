package gtfsstats

import (
	"fmt"
	"sort"

	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/statistics"
)

// A numeric column of the segment table.
type Field string

const (
	FieldTime     Field = "time_between_stops"
	FieldSpeed    Field = "avg_speed"
	FieldDistance Field = "distance_between_stops"
)

func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldTime, FieldSpeed, FieldDistance:
		return f, nil
	case "":
		return FieldTime, nil
	}
	return "", fmt.Errorf("unknown field '%s'", s)
}

func (f Field) Value(seg *model.Segment) float64 {
	switch f {
	case FieldSpeed:
		return seg.AvgSpeed
	case FieldDistance:
		return seg.DistanceBetweenStops
	}
	return seg.TimeBetweenStops
}

// Values of field over segments.
func (f Field) Values(segments []model.Segment) []float64 {
	values := make([]float64, 0, len(segments))
	for i := range segments {
		values = append(values, f.Value(&segments[i]))
	}
	return values
}

// Statistics for one (route, service). Time and Speed only describe
// strictly positive values.
//
// AvgTravelTime is the unfiltered sum of time over the group divided
// by TripCount, and is not expected to agree with Time.Mean.
type RouteServiceSummary struct {
	RouteID       string           `json:"route_id"`
	ServiceID     string           `json:"service_id"`
	TripCount     int              `json:"trip_count"`
	TotalTime     float64          `json:"total_time"`
	AvgTravelTime float64          `json:"avg_travel_time"`
	Time          statistics.Stats `json:"time_between_stops"`
	Speed         statistics.Stats `json:"avg_speed"`
}

// Statistics for one (route, stop), over strictly positive values.
type RouteStopSummary struct {
	RouteID string           `json:"route_id"`
	StopID  string           `json:"stop_id"`
	Time    statistics.Stats `json:"time_between_stops"`
	Speed   statistics.Stats `json:"avg_speed"`
}

type groupKey struct {
	a, b string
}

type group struct {
	times  []float64
	speeds []float64
	total  float64
	trips  map[string]bool
}

func groupSegments(segments []model.Segment, key func(*model.Segment) groupKey) ([]groupKey, map[groupKey]*group) {
	groups := map[groupKey]*group{}
	for i := range segments {
		seg := &segments[i]
		if seg.RouteID == "" {
			continue
		}

		k := key(seg)
		g, found := groups[k]
		if !found {
			g = &group{trips: map[string]bool{}}
			groups[k] = g
		}

		g.times = append(g.times, seg.TimeBetweenStops)
		g.speeds = append(g.speeds, seg.AvgSpeed)
		g.total += seg.TimeBetweenStops
		g.trips[seg.TripID] = true
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})

	return keys, groups
}

// Summarizes segments per (route, service), ordered by route and
// service. Segments without a route are left out.
//
// TripCount is the number of trips of the (route, service) in trips.
// When trips has none, the distinct trips among the segments are
// counted instead.
func SummarizeRouteServices(segments []model.Segment, trips map[string]*model.Trip) []RouteServiceSummary {
	tripCount := map[groupKey]int{}
	for _, t := range trips {
		tripCount[groupKey{t.RouteID, t.ServiceID}]++
	}

	keys, groups := groupSegments(segments, func(seg *model.Segment) groupKey {
		return groupKey{seg.RouteID, seg.ServiceID}
	})

	summaries := make([]RouteServiceSummary, 0, len(keys))
	for _, k := range keys {
		g := groups[k]

		count := tripCount[k]
		if count == 0 {
			count = len(g.trips)
		}

		avg := 0.0
		if count > 0 {
			avg = g.total / float64(count)
		}

		summaries = append(summaries, RouteServiceSummary{
			RouteID:       k.a,
			ServiceID:     k.b,
			TripCount:     count,
			TotalTime:     g.total,
			AvgTravelTime: avg,
			Time:          statistics.DescribePositive(g.times),
			Speed:         statistics.DescribePositive(g.speeds),
		})
	}

	return summaries
}

// Summarizes segments per (route, stop), ordered by route and stop.
func SummarizeRouteStops(segments []model.Segment) []RouteStopSummary {
	keys, groups := groupSegments(segments, func(seg *model.Segment) groupKey {
		return groupKey{seg.RouteID, seg.StopID}
	})

	summaries := make([]RouteStopSummary, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		summaries = append(summaries, RouteStopSummary{
			RouteID: k.a,
			StopID:  k.b,
			Time:    statistics.DescribePositive(g.times),
			Speed:   statistics.DescribePositive(g.speeds),
		})
	}

	return summaries
}

// Describes a single field over segments. With positiveOnly, values
// <= 0 are left out.
func DescribeField(segments []model.Segment, field Field, positiveOnly bool) statistics.Stats {
	values := field.Values(segments)
	if positiveOnly {
		return statistics.DescribePositive(values)
	}
	return statistics.Describe(values)
}
