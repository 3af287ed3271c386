package gtfsstats

import (
	"sort"

	"tidbyt.dev/gtfsstats/model"
)

// Derives one segment per stop time: the time, distance and speed
// from the previous stop of the same trip, by stop_sequence.
//
// The first stop of each trip gets zero time, distance and speed.
// Speed is only computed when time is positive; otherwise speed and
// distance are forced to 0, and the (zero or negative) time is kept.
// Negative distances over positive time are kept, and flagged.
//
// Trip metadata is joined where available. The input is not
// modified.
func DeriveSegments(stopTimes []*model.StopTime, trips map[string]*model.Trip) []model.Segment {
	sorted := make([]*model.StopTime, len(stopTimes))
	copy(sorted, stopTimes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TripID != sorted[j].TripID {
			return sorted[i].TripID < sorted[j].TripID
		}
		return sorted[i].StopSequence < sorted[j].StopSequence
	})

	segments := make([]model.Segment, 0, len(sorted))

	var prev *model.StopTime
	for _, st := range sorted {
		seg := model.Segment{
			TripID:            st.TripID,
			StopID:            st.StopID,
			StopSequence:      st.StopSequence,
			Arrival:           st.Arrival,
			ShapeDistTraveled: st.ShapeDistTraveled,
		}

		if trip, found := trips[st.TripID]; found {
			seg.RouteID = trip.RouteID
			seg.ServiceID = trip.ServiceID
			seg.DirectionID = trip.DirectionID
			seg.ShapeID = trip.ShapeID
		}

		if prev == nil || prev.TripID != st.TripID {
			seg.Quality = model.QualityFirstStop
		} else {
			seg.PrevStopID = prev.StopID

			elapsed := (st.Arrival - prev.Departure).Seconds()
			distance := st.ShapeDistTraveled - prev.ShapeDistTraveled
			seg.TimeBetweenStops = elapsed

			switch {
			case elapsed > 0:
				seg.DistanceBetweenStops = distance
				seg.AvgSpeed = distance / elapsed
				if distance < 0 {
					seg.Quality = model.QualityNegativeDistance
				}
			case elapsed == 0:
				seg.Quality = model.QualityZeroTime
			default:
				seg.Quality = model.QualityNegativeTime
			}
		}

		segments = append(segments, seg)
		prev = st
	}

	return segments
}

// Counts segments by quality flag.
func QualityCounts(segments []model.Segment) map[model.Quality]int {
	counts := map[model.Quality]int{}
	for i := range segments {
		counts[segments[i].Quality]++
	}
	return counts
}
