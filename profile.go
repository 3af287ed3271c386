package gtfsstats

import (
	"math"
	"sort"

	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/statistics"
)

const (
	// Assumed cycling speed when comparing against the bus.
	DefaultBicycleKmh = 15.0

	// Assumed length of a single stop-to-stop segment.
	SegmentKm = 0.5
)

// Mean speed arriving at one stop of a route, along with the stop
// that follows it.
type ProfileStop struct {
	StopSequence uint32  `json:"stop_sequence"`
	StopID       string  `json:"stop_id"`
	StopName     string  `json:"stop_name"`
	SpeedKmh     float64 `json:"speed_kmh"`
	Samples      int     `json:"samples"`

	NextStopID       string  `json:"next_stop_id"`
	NextStopName     string  `json:"next_stop_name"`
	NextStopSpeedKmh float64 `json:"next_stop_speed_kmh"`
}

// Builds the speed profile of a route: one entry per (stop
// sequence, stop), in sequence order, with the mean of the strictly
// positive speeds arriving there. The last position has no next stop
// and is left out.
func RouteProfile(segments []model.Segment, stops map[string]*model.Stop, routeID string) []ProfileStop {
	type key struct {
		seq  uint32
		stop string
	}

	speeds := map[key][]float64{}
	for i := range segments {
		seg := &segments[i]
		if seg.RouteID != routeID {
			continue
		}
		k := key{seg.StopSequence, seg.StopID}
		if _, found := speeds[k]; !found {
			speeds[k] = []float64{}
		}
		if seg.AvgSpeed > 0 {
			speeds[k] = append(speeds[k], seg.AvgSpeed*3.6)
		}
	}

	keys := make([]key, 0, len(speeds))
	for k := range speeds {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].seq != keys[j].seq {
			return keys[i].seq < keys[j].seq
		}
		return keys[i].stop < keys[j].stop
	})

	name := func(stopID string) string {
		if st, found := stops[stopID]; found {
			return st.Name
		}
		return ""
	}

	profile := make([]ProfileStop, 0, len(keys))
	for _, k := range keys {
		profile = append(profile, ProfileStop{
			StopSequence: k.seq,
			StopID:       k.stop,
			StopName:     name(k.stop),
			SpeedKmh:     statistics.Mean(speeds[k]),
			Samples:      len(speeds[k]),
		})
	}

	if len(profile) < 2 {
		return []ProfileStop{}
	}

	for i := 0; i < len(profile)-1; i++ {
		profile[i].NextStopID = profile[i+1].StopID
		profile[i].NextStopName = profile[i+1].StopName
		profile[i].NextStopSpeedKmh = profile[i+1].SpeedKmh
	}

	return profile[:len(profile)-1]
}

// Mean speed over a stretch of a route profile.
type Corridor struct {
	FromStopID string  `json:"from_stop_id"`
	ToStopID   string  `json:"to_stop_id"`
	SpeedKmh   float64 `json:"speed_kmh"`
	Segments   int     `json:"segments"`

	// False if no stop in the stretch has speed samples.
	Available bool `json:"available"`
}

// Averages the profile entries after from, up to and including to.
// Entries without samples are left out of the mean, but count as
// segments.
func CorridorSpeed(profile []ProfileStop, fromStopID string, toStopID string) Corridor {
	c := Corridor{FromStopID: fromStopID, ToStopID: toStopID}

	start := -1
	for i, p := range profile {
		if p.StopID == fromStopID {
			start = i
			break
		}
	}
	if start < 0 {
		return c
	}

	end := -1
	for i := start + 1; i < len(profile); i++ {
		if profile[i].StopID == toStopID {
			end = i
			break
		}
	}
	if end < 0 {
		return c
	}

	speeds := []float64{}
	for _, p := range profile[start+1 : end+1] {
		c.Segments++
		if p.Samples > 0 {
			speeds = append(speeds, p.SpeedKmh)
		}
	}

	if len(speeds) > 0 {
		c.SpeedKmh = statistics.Mean(speeds)
		c.Available = true
	}

	return c
}

// Bus against bicycle over a corridor.
type ModeComparison struct {
	BusKmh         float64 `json:"bus_kmh"`
	BicycleKmh     float64 `json:"bicycle_kmh"`
	Faster         string  `json:"faster"`
	DistanceKm     float64 `json:"distance_km"`
	BusMinutes     float64 `json:"bus_minutes"`
	BicycleMinutes float64 `json:"bicycle_minutes"`
}

// Compares the corridor's bus speed with cycling at bicycleKmh. The
// distance is estimated from the segment count. Ties go to the
// bicycle.
func CompareModes(c Corridor, bicycleKmh float64) ModeComparison {
	if !(bicycleKmh > 0) || math.IsInf(bicycleKmh, 1) {
		bicycleKmh = DefaultBicycleKmh
	}

	m := ModeComparison{
		BusKmh:     c.SpeedKmh,
		BicycleKmh: bicycleKmh,
		Faster:     "bicycle",
		DistanceKm: float64(c.Segments) * SegmentKm,
	}
	if c.SpeedKmh > bicycleKmh {
		m.Faster = "bus"
	}

	if c.SpeedKmh > 0 {
		m.BusMinutes = m.DistanceKm * 60 / c.SpeedKmh
	}
	m.BicycleMinutes = m.DistanceKm * 60 / bicycleKmh

	return m
}
