package gtfsstats

import (
	"fmt"
	"sort"
	"time"

	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/parse"
	"tidbyt.dev/gtfsstats/storage"
)

// A loaded GTFS snapshot with its derived segment table.
//
// Snapshots are shared between requests once loaded and must not be
// modified.
type Snapshot struct {
	Location string
	LoadedAt time.Time
	Report   *parse.Report

	Trips        map[string]*model.Trip
	Stops        map[string]*model.Stop
	Shapes       map[string][]*model.ShapePoint
	RoutesByStop map[string][]string

	// Ordered by trip and stop sequence.
	Segments []model.Segment
}

func NewSnapshot(reader storage.FeedReader, report *parse.Report) (*Snapshot, error) {
	trips, err := reader.Trips()
	if err != nil {
		return nil, fmt.Errorf("getting trips: %w", err)
	}

	stops, err := reader.Stops()
	if err != nil {
		return nil, fmt.Errorf("getting stops: %w", err)
	}

	points, err := reader.ShapePoints()
	if err != nil {
		return nil, fmt.Errorf("getting shape points: %w", err)
	}

	stopTimes, err := reader.StopTimes()
	if err != nil {
		return nil, fmt.Errorf("getting stop times: %w", err)
	}

	routesByStop, err := reader.RoutesByStop()
	if err != nil {
		return nil, fmt.Errorf("getting routes by stop: %w", err)
	}

	if report == nil {
		report = parse.NewReport()
	}

	s := &Snapshot{
		LoadedAt:     time.Now(),
		Report:       report,
		Trips:        make(map[string]*model.Trip, len(trips)),
		Stops:        make(map[string]*model.Stop, len(stops)),
		Shapes:       map[string][]*model.ShapePoint{},
		RoutesByStop: routesByStop,
	}

	for _, t := range trips {
		s.Trips[t.ID] = t
	}
	for _, st := range stops {
		s.Stops[st.ID] = st
	}
	for _, p := range points {
		s.Shapes[p.ShapeID] = append(s.Shapes[p.ShapeID], p)
	}

	s.Segments = DeriveSegments(stopTimes, s.Trips)

	return s, nil
}

// All stops, ordered by ID.
func (s *Snapshot) StopList() []*model.Stop {
	stops := make([]*model.Stop, 0, len(s.Stops))
	for _, st := range s.Stops {
		stops = append(stops, st)
	}
	sort.Slice(stops, func(i, j int) bool {
		return stops[i].ID < stops[j].ID
	})
	return stops
}

// Distinct route IDs with at least one trip, sorted.
func (s *Snapshot) Routes() []string {
	seen := map[string]bool{}
	for _, t := range s.Trips {
		if t.RouteID != "" {
			seen[t.RouteID] = true
		}
	}
	routes := make([]string, 0, len(seen))
	for r := range seen {
		routes = append(routes, r)
	}
	sort.Strings(routes)
	return routes
}

// Distinct service IDs, sorted.
func (s *Snapshot) Services() []string {
	seen := map[string]bool{}
	for _, t := range s.Trips {
		seen[t.ServiceID] = true
	}
	services := make([]string, 0, len(seen))
	for sv := range seen {
		services = append(services, sv)
	}
	sort.Strings(services)
	return services
}
