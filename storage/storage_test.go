package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/storage"
)

// Tests of the storage implementations. Both the in-memory and the
// sqlite implementations are always run.

type StorageBuilder func() (storage.Storage, error)

func builders() map[string]StorageBuilder {
	return map[string]StorageBuilder{
		"memory": func() (storage.Storage, error) { return storage.NewMemoryStorage(), nil },
		"sqlite": func() (storage.Storage, error) { return storage.NewSQLiteStorage() },
	}
}

func writeFixture(t *testing.T, s storage.Storage) {
	writer, err := s.GetWriter("unit-test")
	require.NoError(t, err)

	for _, trip := range []*model.Trip{
		{ID: "t2", RouteID: "r2", ServiceID: "sat", DirectionID: 1, ShapeID: "sh2"},
		{ID: "t1", RouteID: "r1", ServiceID: "wk", DirectionID: 0, ShapeID: "sh1"},
		{ID: "t3", RouteID: "r1", ServiceID: "wk", DirectionID: 0, ShapeID: "sh1"},
	} {
		require.NoError(t, writer.WriteTrip(trip))
	}

	for _, stop := range []*model.Stop{
		{ID: "s2", Name: "Two", Lat: 43.32, Lon: -1.98},
		{ID: "s1", Name: "One", Lat: 43.31, Lon: -1.97},
		{ID: "s3", Name: "Three", Lat: 43.33, Lon: -1.99},
	} {
		require.NoError(t, writer.WriteStop(stop))
	}

	for _, p := range []*model.ShapePoint{
		{ShapeID: "sh1", Sequence: 2, Lat: 43.32, Lon: -1.98},
		{ShapeID: "sh1", Sequence: 1, Lat: 43.31, Lon: -1.97},
		{ShapeID: "sh0", Sequence: 1, Lat: 43.30, Lon: -1.96},
	} {
		require.NoError(t, writer.WriteShapePoint(p))
	}

	require.NoError(t, writer.BeginStopTimes())
	for _, st := range []*model.StopTime{
		{TripID: "t2", StopID: "s3", StopSequence: 1, Arrival: 8 * time.Hour, Departure: 8 * time.Hour, ShapeDistTraveled: 0},
		{TripID: "t1", StopID: "s2", StopSequence: 2, Arrival: 25*time.Hour + time.Minute, Departure: 25*time.Hour + 2*time.Minute, ShapeDistTraveled: 850},
		{TripID: "t1", StopID: "s1", StopSequence: 1, Arrival: 25 * time.Hour, Departure: 25 * time.Hour, ShapeDistTraveled: 0},
		{TripID: "t2", StopID: "s2", StopSequence: 2, Arrival: 8*time.Hour + time.Minute, Departure: 8*time.Hour + time.Minute, ShapeDistTraveled: 400},
		{TripID: "t3", StopID: "s2", StopSequence: 1, Arrival: 9 * time.Hour, Departure: 9 * time.Hour, ShapeDistTraveled: 0},
	} {
		require.NoError(t, writer.WriteStopTime(st))
	}
	require.NoError(t, writer.EndStopTimes())
	require.NoError(t, writer.Close())
}

func TestStorageRoundTrip(t *testing.T) {
	for name, sb := range builders() {
		t.Run(name, func(t *testing.T) {
			s, err := sb()
			require.NoError(t, err)
			writeFixture(t, s)

			reader, err := s.GetReader("unit-test")
			require.NoError(t, err)

			trips, err := reader.Trips()
			require.NoError(t, err)
			assert.Equal(t, []*model.Trip{
				{ID: "t1", RouteID: "r1", ServiceID: "wk", DirectionID: 0, ShapeID: "sh1"},
				{ID: "t2", RouteID: "r2", ServiceID: "sat", DirectionID: 1, ShapeID: "sh2"},
				{ID: "t3", RouteID: "r1", ServiceID: "wk", DirectionID: 0, ShapeID: "sh1"},
			}, trips)

			stops, err := reader.Stops()
			require.NoError(t, err)
			require.Equal(t, 3, len(stops))
			assert.Equal(t, "s1", stops[0].ID)
			assert.Equal(t, "One", stops[0].Name)
			assert.InDelta(t, 43.31, stops[0].Lat, 1e-9)

			points, err := reader.ShapePoints()
			require.NoError(t, err)
			assert.Equal(t, []*model.ShapePoint{
				{ShapeID: "sh0", Sequence: 1, Lat: 43.30, Lon: -1.96},
				{ShapeID: "sh1", Sequence: 1, Lat: 43.31, Lon: -1.97},
				{ShapeID: "sh1", Sequence: 2, Lat: 43.32, Lon: -1.98},
			}, points)
		})
	}
}

func TestStorageStopTimesOrdered(t *testing.T) {
	for name, sb := range builders() {
		t.Run(name, func(t *testing.T) {
			s, err := sb()
			require.NoError(t, err)
			writeFixture(t, s)

			reader, err := s.GetReader("unit-test")
			require.NoError(t, err)

			stopTimes, err := reader.StopTimes()
			require.NoError(t, err)

			keys := []string{}
			for _, st := range stopTimes {
				keys = append(keys, st.TripID+":"+st.StopID)
			}
			assert.Equal(t, []string{"t1:s1", "t1:s2", "t2:s3", "t2:s2", "t3:s2"}, keys)

			// Times past 24h survive the round trip.
			assert.Equal(t, 25*time.Hour+time.Minute, stopTimes[1].Arrival)
			assert.Equal(t, 25*time.Hour+2*time.Minute, stopTimes[1].Departure)
			assert.InDelta(t, 850, stopTimes[1].ShapeDistTraveled, 1e-9)
		})
	}
}

func TestStorageRoutesByStop(t *testing.T) {
	for name, sb := range builders() {
		t.Run(name, func(t *testing.T) {
			s, err := sb()
			require.NoError(t, err)
			writeFixture(t, s)

			reader, err := s.GetReader("unit-test")
			require.NoError(t, err)

			routes, err := reader.RoutesByStop()
			require.NoError(t, err)
			assert.Equal(t, map[string][]string{
				"s1": {"r1"},
				"s2": {"r1", "r2"},
				"s3": {"r2"},
			}, routes)
		})
	}
}

func TestStorageUnknownSnapshot(t *testing.T) {
	for name, sb := range builders() {
		t.Run(name, func(t *testing.T) {
			s, err := sb()
			require.NoError(t, err)

			_, err = s.GetReader("nope")
			assert.Error(t, err)
		})
	}
}

func TestStorageWriterReplacesSnapshot(t *testing.T) {
	for name, sb := range builders() {
		t.Run(name, func(t *testing.T) {
			s, err := sb()
			require.NoError(t, err)
			writeFixture(t, s)

			writer, err := s.GetWriter("unit-test")
			require.NoError(t, err)
			require.NoError(t, writer.WriteTrip(&model.Trip{ID: "only", RouteID: "r"}))
			require.NoError(t, writer.Close())

			reader, err := s.GetReader("unit-test")
			require.NoError(t, err)
			trips, err := reader.Trips()
			require.NoError(t, err)
			assert.Equal(t, 1, len(trips))

			stopTimes, err := reader.StopTimes()
			require.NoError(t, err)
			assert.Equal(t, 0, len(stopTimes))
		})
	}
}
