package gtfsstats

import (
	"sort"

	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/statistics"
	"tidbyt.dev/gtfsstats/storage"
)

// Mean speed between two consecutive stops along a shape.
type SegmentSpeed struct {
	ShapeID    string  `json:"shape_id"`
	PrevStopID string  `json:"prev_stop_id"`
	StopID     string  `json:"stop_id"`
	AvgSpeed   float64 `json:"avg_speed"`
	Samples    int     `json:"samples"`
	Color      string  `json:"color"`

	// Shape points between the two stops, when known.
	Path [][2]float64 `json:"path,omitempty"`
}

// Averages speed per (shape, previous stop, stop) over the segments
// matching req. First stops are left out; zero speeds are not.
// Results are ordered by shape, previous stop and stop.
func SegmentSpeeds(segments []model.Segment, req ViewRequest) []SegmentSpeed {
	type key struct {
		shape, prev, stop string
	}

	speeds := map[key][]float64{}
	for i := range segments {
		seg := &segments[i]
		if seg.First() || seg.PrevStopID == "" {
			continue
		}
		if !req.Matches(seg) {
			continue
		}
		k := key{seg.ShapeID, seg.PrevStopID, seg.StopID}
		speeds[k] = append(speeds[k], seg.AvgSpeed)
	}

	out := make([]SegmentSpeed, 0, len(speeds))
	for k, values := range speeds {
		mean := statistics.Mean(values)
		out = append(out, SegmentSpeed{
			ShapeID:    k.shape,
			PrevStopID: k.prev,
			StopID:     k.stop,
			AvgSpeed:   mean,
			Samples:    len(values),
			Color:      SpeedColor(mean),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ShapeID != out[j].ShapeID {
			return out[i].ShapeID < out[j].ShapeID
		}
		if out[i].PrevStopID != out[j].PrevStopID {
			return out[i].PrevStopID < out[j].PrevStopID
		}
		return out[i].StopID < out[j].StopID
	})

	return out
}

// Color band for a speed in m/s, from red (slow) to darkgreen.
func SpeedColor(mps float64) string {
	switch {
	case mps < 1.2:
		return "red"
	case mps < 2:
		return "orangered"
	case mps < 3:
		return "orange"
	case mps < 4:
		return "gold"
	case mps < 5:
		return "yellowgreen"
	case mps < 6.5:
		return "lightgreen"
	case mps < 9:
		return "green"
	}
	return "darkgreen"
}

// The part of a shape between the points nearest to two stops, as
// lat/lon pairs in shape order. Nil if the part has fewer than two
// points.
func ShapePath(points []*model.ShapePoint, from *model.Stop, to *model.Stop) [][2]float64 {
	if from == nil || to == nil {
		return nil
	}

	i := storage.NearestShapePoint(points, from.Lat, from.Lon)
	j := storage.NearestShapePoint(points, to.Lat, to.Lon)
	if i < 0 || j < 0 {
		return nil
	}
	if i > j {
		i, j = j, i
	}
	if j-i < 1 {
		return nil
	}

	path := make([][2]float64, 0, j-i+1)
	for _, p := range points[i : j+1] {
		path = append(path, [2]float64{p.Lat, p.Lon})
	}
	return path
}

// Segment speeds for the snapshot, with the shape path of each.
func (s *Snapshot) SpeedMap(req ViewRequest) []SegmentSpeed {
	speeds := SegmentSpeeds(s.Segments, req)
	for i := range speeds {
		speeds[i].Path = ShapePath(
			s.Shapes[speeds[i].ShapeID],
			s.Stops[speeds[i].PrevStopID],
			s.Stops[speeds[i].StopID],
		)
	}
	return speeds
}
