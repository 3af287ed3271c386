package gtfsstats

import (
	"sort"

	"tidbyt.dev/gtfsstats/model"
)

// Maps stop ID to the sorted, distinct routes visiting it. Stops
// without visits are absent.
func RouteStopIndex(segments []model.Segment) map[string][]string {
	seen := map[string]map[string]bool{}
	for i := range segments {
		seg := &segments[i]
		if seg.RouteID == "" {
			continue
		}
		if seen[seg.StopID] == nil {
			seen[seg.StopID] = map[string]bool{}
		}
		seen[seg.StopID][seg.RouteID] = true
	}

	index := make(map[string][]string, len(seen))
	for stopID, routes := range seen {
		list := make([]string, 0, len(routes))
		for r := range routes {
			list = append(list, r)
		}
		sort.Strings(list)
		index[stopID] = list
	}
	return index
}

// A stop along with the routes visiting it.
type StopRoutes struct {
	StopID string   `json:"stop_id"`
	Name   string   `json:"stop_name"`
	Lat    float64  `json:"stop_lat"`
	Lon    float64  `json:"stop_lon"`
	Routes []string `json:"routes"`
}

// Joins every stop with its routes from index. Stops no route visits
// get an empty list.
func StopRoutesList(stops []*model.Stop, index map[string][]string) []StopRoutes {
	out := make([]StopRoutes, 0, len(stops))
	for _, st := range stops {
		routes := index[st.ID]
		if routes == nil {
			routes = []string{}
		}
		out = append(out, StopRoutes{
			StopID: st.ID,
			Name:   st.Name,
			Lat:    st.Lat,
			Lon:    st.Lon,
			Routes: routes,
		})
	}
	return out
}
