package storage

import (
	"fmt"
	"sort"
	"strings"

	"tidbyt.dev/gtfsstats/model"
)

// In memory implementation of Storage below

type MemoryStorage struct {
	Feeds map[string]*MemoryStorageFeed
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		Feeds: map[string]*MemoryStorageFeed{},
	}
}

func (s *MemoryStorage) GetReader(feedID string) (FeedReader, error) {
	f, ok := s.Feeds[feedID]
	if !ok {
		return nil, fmt.Errorf("snapshot %s does not exist", feedID)
	}
	return f, nil
}

func (s *MemoryStorage) GetWriter(feedID string) (FeedWriter, error) {
	f := &MemoryStorageFeed{
		trips:           map[string]*model.Trip{},
		stops:           map[string]*model.Stop{},
		shapes:          map[string][]*model.ShapePoint{},
		stopTimesByTrip: map[string][]*model.StopTime{},
	}

	s.Feeds[feedID] = f

	return f, nil
}

type MemoryStorageFeed struct {
	trips           map[string]*model.Trip
	stops           map[string]*model.Stop
	shapes          map[string][]*model.ShapePoint
	stopTimesByTrip map[string][]*model.StopTime
}

func (f *MemoryStorageFeed) WriteTrip(trip *model.Trip) error {
	f.trips[trip.ID] = trip
	return nil
}

func (f *MemoryStorageFeed) WriteStop(stop *model.Stop) error {
	f.stops[stop.ID] = stop
	return nil
}

func (f *MemoryStorageFeed) WriteShapePoint(point *model.ShapePoint) error {
	f.shapes[point.ShapeID] = append(f.shapes[point.ShapeID], point)
	return nil
}

func (f *MemoryStorageFeed) BeginStopTimes() error {
	return nil
}

func (f *MemoryStorageFeed) WriteStopTime(stopTime *model.StopTime) error {
	f.stopTimesByTrip[stopTime.TripID] = append(f.stopTimesByTrip[stopTime.TripID], stopTime)
	return nil
}

func (f *MemoryStorageFeed) EndStopTimes() error {
	for _, sts := range f.stopTimesByTrip {
		sort.SliceStable(sts, func(i, j int) bool {
			return sts[i].StopSequence < sts[j].StopSequence
		})
	}
	return nil
}

func (f *MemoryStorageFeed) Close() error {
	return nil
}

func (f *MemoryStorageFeed) Trips() ([]*model.Trip, error) {
	trips := []*model.Trip{}
	for _, v := range f.trips {
		trips = append(trips, v)
	}
	sort.Slice(trips, func(i, j int) bool {
		return trips[i].ID < trips[j].ID
	})
	return trips, nil
}

func (f *MemoryStorageFeed) Stops() ([]*model.Stop, error) {
	stops := []*model.Stop{}
	for _, v := range f.stops {
		stops = append(stops, v)
	}
	sort.Slice(stops, func(i, j int) bool {
		return stops[i].ID < stops[j].ID
	})
	return stops, nil
}

func (f *MemoryStorageFeed) ShapePoints() ([]*model.ShapePoint, error) {
	shapeIDs := make([]string, 0, len(f.shapes))
	for id := range f.shapes {
		shapeIDs = append(shapeIDs, id)
	}
	sort.Strings(shapeIDs)

	points := []*model.ShapePoint{}
	for _, id := range shapeIDs {
		pts := append([]*model.ShapePoint{}, f.shapes[id]...)
		sort.SliceStable(pts, func(i, j int) bool {
			return pts[i].Sequence < pts[j].Sequence
		})
		points = append(points, pts...)
	}
	return points, nil
}

func (f *MemoryStorageFeed) StopTimes() ([]*model.StopTime, error) {
	tripIDs := make([]string, 0, len(f.stopTimesByTrip))
	for id := range f.stopTimesByTrip {
		tripIDs = append(tripIDs, id)
	}
	sort.Slice(tripIDs, func(i, j int) bool {
		return strings.Compare(tripIDs[i], tripIDs[j]) < 0
	})

	stopTimes := []*model.StopTime{}
	for _, id := range tripIDs {
		stopTimes = append(stopTimes, f.stopTimesByTrip[id]...)
	}
	return stopTimes, nil
}

func (f *MemoryStorageFeed) RoutesByStop() (map[string][]string, error) {
	seen := map[string]map[string]bool{}
	for tripID, sts := range f.stopTimesByTrip {
		trip, found := f.trips[tripID]
		if !found || trip.RouteID == "" {
			continue
		}
		for _, st := range sts {
			if seen[st.StopID] == nil {
				seen[st.StopID] = map[string]bool{}
			}
			seen[st.StopID][trip.RouteID] = true
		}
	}

	routes := map[string][]string{}
	for stopID, rs := range seen {
		for routeID := range rs {
			routes[stopID] = append(routes[stopID], routeID)
		}
		sort.Strings(routes[stopID])
	}
	return routes, nil
}
