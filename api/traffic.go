package api

import (
	"net/http"
	"strconv"
	"time"

	"tidbyt.dev/gtfsstats/traffic"
)

func (h *Handler) traffic(r *http.Request) (*traffic.Dataset, error) {
	if h.opts.TrafficDir == "" {
		return nil, notFound{"no traffic directory configured"}
	}
	return h.manager.LoadTraffic(r.Context(), h.opts.TrafficDir)
}

func stationParam(r *http.Request) (string, error) {
	station := r.URL.Query().Get("station")
	if station == "" {
		return "", badRequestf("missing station parameter")
	}
	return station, nil
}

func monthParam(r *http.Request) (time.Month, error) {
	m, err := intParam(r, "month", 0)
	if err != nil {
		return 0, err
	}
	if m < 0 || m > 12 {
		return 0, badRequestf("invalid month parameter")
	}
	return time.Month(m), nil
}

// The year parameter, or the latest year with counts.
func yearParam(r *http.Request, ds *traffic.Dataset) (int, error) {
	latest := 0
	if years := traffic.Years(ds.Counts); len(years) > 0 {
		latest = years[len(years)-1]
	}
	return intParam(r, "year", latest)
}

func (h *Handler) handleTrafficSummary(r *http.Request) (interface{}, error) {
	ds, err := h.traffic(r)
	if err != nil {
		return nil, err
	}
	return struct {
		traffic.Summary
		Years    []int             `json:"years"`
		Stations []traffic.Station `json:"station_locations"`
	}{traffic.Summarize(ds.Counts), traffic.Years(ds.Counts), ds.Stations}, nil
}

func (h *Handler) handleTrafficStations(r *http.Request) (interface{}, error) {
	ds, err := h.traffic(r)
	if err != nil {
		return nil, err
	}
	return traffic.StationDistributions(ds.Counts, listParam(r, "station")), nil
}

func (h *Handler) handleTrafficTop(r *http.Request) (interface{}, error) {
	n, err := intParam(r, "n", 5)
	if err != nil {
		return nil, err
	}
	ds, err := h.traffic(r)
	if err != nil {
		return nil, err
	}
	return traffic.TopStations(ds.Counts, n), nil
}

func (h *Handler) handleTrafficHourly(r *http.Request) (interface{}, error) {
	ds, err := h.traffic(r)
	if err != nil {
		return nil, err
	}

	years := []int{}
	for _, y := range listParam(r, "year") {
		year, err := parseYear(y)
		if err != nil {
			return nil, err
		}
		years = append(years, year)
	}

	return traffic.HourlyProfile(ds.Counts, years, listParam(r, "station")), nil
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, badRequestf("invalid year parameter")
	}
	return year, nil
}

func (h *Handler) handleTrafficWeekly(r *http.Request) (interface{}, error) {
	station, err := stationParam(r)
	if err != nil {
		return nil, err
	}
	month, err := monthParam(r)
	if err != nil {
		return nil, err
	}
	if month == 0 {
		return nil, badRequestf("missing month parameter")
	}
	ds, err := h.traffic(r)
	if err != nil {
		return nil, err
	}
	year, err := yearParam(r, ds)
	if err != nil {
		return nil, err
	}
	return traffic.WeeklyProfile(ds.Counts, station, year, month), nil
}

func (h *Handler) handleTrafficMonthly(r *http.Request) (interface{}, error) {
	station, err := stationParam(r)
	if err != nil {
		return nil, err
	}
	ds, err := h.traffic(r)
	if err != nil {
		return nil, err
	}
	year, err := yearParam(r, ds)
	if err != nil {
		return nil, err
	}
	return traffic.MonthlyProfile(ds.Counts, station, year), nil
}

func (h *Handler) handleTrafficYearly(r *http.Request) (interface{}, error) {
	station, err := stationParam(r)
	if err != nil {
		return nil, err
	}
	ds, err := h.traffic(r)
	if err != nil {
		return nil, err
	}
	return traffic.YearlyStats(ds.Counts, station), nil
}

func (h *Handler) handleTrafficSeasons(r *http.Request) (interface{}, error) {
	ds, err := h.traffic(r)
	if err != nil {
		return nil, err
	}
	year, err := yearParam(r, ds)
	if err != nil {
		return nil, err
	}
	return traffic.SeasonProfile(ds.Counts, year), nil
}

func (h *Handler) handleTrafficDayType(r *http.Request) (interface{}, error) {
	station, err := stationParam(r)
	if err != nil {
		return nil, err
	}
	month, err := monthParam(r)
	if err != nil {
		return nil, err
	}
	ds, err := h.traffic(r)
	if err != nil {
		return nil, err
	}
	return traffic.DayTypeProfileFor(ds.Counts, station, month), nil
}

func (h *Handler) handleTrafficHeavy(r *http.Request) (interface{}, error) {
	ds, err := h.traffic(r)
	if err != nil {
		return nil, err
	}
	return traffic.HeavyShare(ds.Counts), nil
}
