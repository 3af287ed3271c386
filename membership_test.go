package gtfsstats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfsstats"
	"tidbyt.dev/gtfsstats/model"
)

func TestRouteStopIndex(t *testing.T) {
	segments := []model.Segment{
		segment("t1", "b", "s", "x", 0, 0),
		segment("t1", "b", "s", "y", 10, 1),
		segment("t2", "a", "s", "x", 0, 0),
		segment("t3", "b", "s", "x", 0, 0),
		segment("t4", "", "s", "z", 0, 0),
	}

	assert.Equal(t, map[string][]string{
		"x": {"a", "b"},
		"y": {"b"},
	}, gtfsstats.RouteStopIndex(segments))

	assert.Equal(t, map[string][]string{}, gtfsstats.RouteStopIndex(nil))
}

func TestStopRoutesList(t *testing.T) {
	snapshot := loadFixture(t, "memory")

	// Only R2
	r2 := snapshot.View(gtfsstats.ViewRequest{RouteID: "R2"})
	index := gtfsstats.RouteStopIndex(r2)
	stops := gtfsstats.StopRoutesList(snapshot.StopList(), index)

	require.Len(t, stops, 3)
	assert.Equal(t, gtfsstats.StopRoutes{
		StopID: "s1",
		Name:   "Boulevard",
		Lat:    43.32,
		Lon:    -1.98,
		Routes: []string{"R2"},
	}, stops[0])

	// Stops with no visits get an empty list
	stops = gtfsstats.StopRoutesList(snapshot.StopList(), map[string][]string{})
	for _, st := range stops {
		assert.Equal(t, []string{}, st.Routes)
	}

	// Both routes visit every stop
	for stopID, routes := range gtfsstats.RouteStopIndex(snapshot.Segments) {
		assert.Equal(t, []string{"R1", "R2"}, routes, stopID)
	}
	assert.Equal(t, snapshot.RoutesByStop, gtfsstats.RouteStopIndex(snapshot.Segments))
}
