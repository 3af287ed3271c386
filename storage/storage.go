package storage

import (
	"tidbyt.dev/gtfsstats/model"
)

type Storage interface {
	// Gets a reader for the snapshot with the given ID.
	GetReader(snapshot string) (FeedReader, error)

	// Gets a writer for the snapshot with the given ID. Any
	// existing snapshot with the same ID is replaced.
	GetWriter(snapshot string) (FeedWriter, error)
}

// Writes raw records for a single snapshot.
//
// As stop_times tends to be very large, BeginStopTimes() and
// EndStopTimes() are called before and after all calls to
// WriteStopTime(), allowing transactions/batching/whathaveyou.
type FeedWriter interface {
	WriteTrip(trip *model.Trip) error
	WriteStop(stop *model.Stop) error
	WriteShapePoint(point *model.ShapePoint) error
	BeginStopTimes() error
	WriteStopTime(stopTime *model.StopTime) error
	EndStopTimes() error
	Close() error
}

type FeedReader interface {
	Trips() ([]*model.Trip, error)
	Stops() ([]*model.Stop, error)

	// Shape points ordered by shape_id and sequence.
	ShapePoints() ([]*model.ShapePoint, error)

	// Stop times ordered by trip_id and stop_sequence.
	StopTimes() ([]*model.StopTime, error)

	// Distinct route IDs of trips visiting each stop.
	RoutesByStop() (map[string][]string, error)
}
