package model

import (
	"fmt"
	"time"
)

// Holds all external facing types and constants.

type Trip struct {
	ID          string
	RouteID     string
	ServiceID   string
	DirectionID int8
	ShapeID     string
}

type Stop struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
}

type ShapePoint struct {
	ShapeID  string
	Sequence uint32
	Lat      float64
	Lon      float64
}

// A single visit of a trip to a stop. Arrival and Departure are
// offsets from the start of the service day and may exceed 24h.
// ShapeDistTraveled is in meters, after unit correction.
type StopTime struct {
	TripID            string
	StopID            string
	StopSequence      uint32
	Arrival           time.Duration
	Departure         time.Duration
	ShapeDistTraveled float64
}

// Formats an offset as GTFS style HH:MM:SS. Hours are not wrapped.
func FormatOffset(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}
	h := int(d.Hours())
	m := int(d.Minutes()) - h*60
	s := int(d.Seconds()) - h*3600 - m*60
	if neg {
		return fmt.Sprintf("-%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

type Quality int8

const (
	QualityOK Quality = iota
	QualityFirstStop
	QualityZeroTime
	QualityNegativeTime
	QualityNegativeDistance
)

func (q Quality) String() string {
	switch q {
	case QualityOK:
		return "ok"
	case QualityFirstStop:
		return "first_stop"
	case QualityZeroTime:
		return "zero_time"
	case QualityNegativeTime:
		return "negative_time"
	case QualityNegativeDistance:
		return "negative_distance"
	}
	return fmt.Sprintf("quality(%d)", int8(q))
}

func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// The interval between a stop visit and the preceding visit of the
// same trip, ordered by stop_sequence.
//
// TimeBetweenStops is in seconds, DistanceBetweenStops in meters and
// AvgSpeed in meters per second.
type Segment struct {
	TripID      string `json:"trip_id"`
	RouteID     string `json:"route_id"`
	ServiceID   string `json:"service_id"`
	DirectionID int8   `json:"direction_id"`
	ShapeID     string `json:"shape_id"`

	StopID       string        `json:"stop_id"`
	PrevStopID   string        `json:"prev_stop_id,omitempty"`
	StopSequence uint32        `json:"stop_sequence"`
	Arrival      time.Duration `json:"arrival"`

	ShapeDistTraveled    float64 `json:"shape_dist_traveled"`
	TimeBetweenStops     float64 `json:"time_between_stops"`
	DistanceBetweenStops float64 `json:"distance_between_stops"`
	AvgSpeed             float64 `json:"avg_speed"`

	Quality Quality `json:"quality"`
}

// True for the first visit of a trip.
func (s *Segment) First() bool {
	return s.Quality == QualityFirstStop
}
