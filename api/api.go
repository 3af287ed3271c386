package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"tidbyt.dev/gtfsstats"
	"tidbyt.dev/gtfsstats/downloader"
	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/parse"
	"tidbyt.dev/gtfsstats/statistics"
)

type Options struct {
	// Directory of traffic counts. Traffic views answer 404 when
	// empty.
	TrafficDir string

	BicycleKmh    float64
	ServiceLabels map[string]string
}

// Handler serves the JSON views over snapshots loaded from a single
// source.
type Handler struct {
	manager *gtfsstats.Manager
	source  downloader.Source
	opts    Options
}

func NewHandler(manager *gtfsstats.Manager, source downloader.Source, opts Options) *Handler {
	if opts.BicycleKmh <= 0 {
		opts.BicycleKmh = gtfsstats.DefaultBicycleKmh
	}
	if opts.ServiceLabels == nil {
		opts.ServiceLabels = gtfsstats.DefaultServiceLabels
	}
	return &Handler{manager: manager, source: source, opts: opts}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Errors caused by the request rather than the server.
type badRequest struct {
	msg string
}

func (e badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...interface{}) error {
	return badRequest{fmt.Sprintf(format, args...)}
}

type view func(r *http.Request) (interface{}, error)

// RegisterRoutes registers all routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	h.register(r, "/segments", "segments", h.handleSegments)
	h.register(r, "/stats", "stats", h.handleStats)
	h.register(r, "/summary/routes", "summary_routes", h.handleRouteSummary)
	h.register(r, "/summary/stops", "summary_stops", h.handleStopSummary)
	h.register(r, "/stops", "stops", h.handleStops)
	h.register(r, "/routes", "routes", h.handleRoutes)
	h.register(r, "/services", "services", h.handleServices)
	h.register(r, "/speedmap", "speedmap", h.handleSpeedMap)
	h.register(r, "/routes/{route}/profile", "profile", h.handleProfile)
	h.register(r, "/routes/{route}/corridor", "corridor", h.handleCorridor)
	h.register(r, "/durations", "durations", h.handleDurations)
	h.register(r, "/durations/trips", "trip_durations", h.handleTripDurations)
	h.register(r, "/report", "report", h.handleReport)

	h.register(r, "/traffic/summary", "traffic_summary", h.handleTrafficSummary)
	h.register(r, "/traffic/stations", "traffic_stations", h.handleTrafficStations)
	h.register(r, "/traffic/top", "traffic_top", h.handleTrafficTop)
	h.register(r, "/traffic/hourly", "traffic_hourly", h.handleTrafficHourly)
	h.register(r, "/traffic/weekly", "traffic_weekly", h.handleTrafficWeekly)
	h.register(r, "/traffic/monthly", "traffic_monthly", h.handleTrafficMonthly)
	h.register(r, "/traffic/yearly", "traffic_yearly", h.handleTrafficYearly)
	h.register(r, "/traffic/seasons", "traffic_seasons", h.handleTrafficSeasons)
	h.register(r, "/traffic/daytype", "traffic_daytype", h.handleTrafficDayType)
	h.register(r, "/traffic/heavy", "traffic_heavy", h.handleTrafficHeavy)

	r.Handle("/metrics", h.manager.Metrics.Handler()).Methods("GET")
}

// A router with every route registered.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) register(r *mux.Router, path string, name string, v view) {
	r.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		h.manager.Metrics.ViewRequests.WithLabelValues(name).Inc()

		data, err := v(req)
		if err != nil {
			status := http.StatusInternalServerError
			switch err.(type) {
			case badRequest:
				status = http.StatusBadRequest
			case notFound:
				status = http.StatusNotFound
			default:
				log.Error().Err(err).Str("view", name).Msg("View failed")
			}
			h.writeError(w, err.Error(), status)
			return
		}

		h.writeJSON(w, data)
	}).Methods("GET")
}

type notFound struct {
	msg string
}

func (e notFound) Error() string { return e.msg }

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Encoding response")
		h.writeError(w, "encoding response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(append(body, '\n'))
}

func (h *Handler) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

func (h *Handler) snapshot(r *http.Request) (*gtfsstats.Snapshot, error) {
	snapshot, err := h.manager.LoadSnapshot(r.Context(), h.source)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return snapshot, nil
}

// Values of a query parameter, which may be repeated or comma
// separated.
func listParam(r *http.Request, name string) []string {
	out := []string{}
	for _, v := range r.URL.Query()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, badRequestf("invalid %s parameter", name)
	}
	return b, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequestf("invalid %s parameter", name)
	}
	return i, nil
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	f, err := parse.ParseDecimal(v)
	if err != nil {
		return 0, badRequestf("invalid %s parameter", name)
	}
	return f, nil
}

// Builds the view request from the query parameters route, service,
// stop, direction, from, to, field and positive.
func viewRequest(r *http.Request) (gtfsstats.ViewRequest, error) {
	q := r.URL.Query()

	req := gtfsstats.ViewRequest{
		RouteID:    q.Get("route"),
		ServiceIDs: listParam(r, "service"),
		StopIDs:    listParam(r, "stop"),
	}

	field, err := gtfsstats.ParseField(q.Get("field"))
	if err != nil {
		return req, badRequest{err.Error()}
	}
	req.Field = field

	req.PositiveOnly, err = boolParam(r, "positive")
	if err != nil {
		return req, err
	}

	if v := q.Get("direction"); v != "" {
		if v != "0" && v != "1" {
			return req, badRequestf("invalid direction parameter")
		}
		d := int8(v[0] - '0')
		req.DirectionID = &d
	}

	from, to := q.Get("from"), q.Get("to")
	if from != "" || to != "" {
		if from == "" || to == "" {
			return req, badRequestf("from and to must be given together")
		}
		start, err := parse.ParseClock(from)
		if err != nil {
			return req, badRequestf("invalid from parameter: %s", err)
		}
		end, err := parse.ParseClock(to)
		if err != nil {
			return req, badRequestf("invalid to parameter: %s", err)
		}
		req.Arrival = &gtfsstats.TimeWindow{Start: start, End: end}
	}

	return req, nil
}

func (h *Handler) view(r *http.Request) (*gtfsstats.Snapshot, gtfsstats.ViewRequest, []model.Segment, error) {
	req, err := viewRequest(r)
	if err != nil {
		return nil, req, nil, err
	}
	snapshot, err := h.snapshot(r)
	if err != nil {
		return nil, req, nil, err
	}
	return snapshot, req, snapshot.View(req), nil
}

func (h *Handler) handleSegments(r *http.Request) (interface{}, error) {
	_, _, segments, err := h.view(r)
	return segments, err
}

func (h *Handler) handleStats(r *http.Request) (interface{}, error) {
	_, req, segments, err := h.view(r)
	if err != nil {
		return nil, err
	}
	return struct {
		Field gtfsstats.Field  `json:"field"`
		Stats statistics.Stats `json:"stats"`
	}{req.Field, gtfsstats.DescribeField(segments, req.Field, req.PositiveOnly)}, nil
}

func (h *Handler) handleRouteSummary(r *http.Request) (interface{}, error) {
	snapshot, _, segments, err := h.view(r)
	if err != nil {
		return nil, err
	}
	return gtfsstats.SummarizeRouteServices(segments, snapshot.Trips), nil
}

func (h *Handler) handleStopSummary(r *http.Request) (interface{}, error) {
	_, _, segments, err := h.view(r)
	if err != nil {
		return nil, err
	}
	return gtfsstats.SummarizeRouteStops(segments), nil
}

func (h *Handler) handleStops(r *http.Request) (interface{}, error) {
	snapshot, _, segments, err := h.view(r)
	if err != nil {
		return nil, err
	}
	return gtfsstats.StopRoutesList(snapshot.StopList(), gtfsstats.RouteStopIndex(segments)), nil
}

func (h *Handler) handleRoutes(r *http.Request) (interface{}, error) {
	snapshot, err := h.snapshot(r)
	if err != nil {
		return nil, err
	}
	return snapshot.Routes(), nil
}

func (h *Handler) handleServices(r *http.Request) (interface{}, error) {
	snapshot, err := h.snapshot(r)
	if err != nil {
		return nil, err
	}
	return snapshot.Services(), nil
}

func (h *Handler) handleSpeedMap(r *http.Request) (interface{}, error) {
	req, err := viewRequest(r)
	if err != nil {
		return nil, err
	}
	snapshot, err := h.snapshot(r)
	if err != nil {
		return nil, err
	}
	return snapshot.SpeedMap(req), nil
}

func (h *Handler) handleProfile(r *http.Request) (interface{}, error) {
	snapshot, err := h.snapshot(r)
	if err != nil {
		return nil, err
	}
	return gtfsstats.RouteProfile(snapshot.Segments, snapshot.Stops, mux.Vars(r)["route"]), nil
}

type CorridorResponse struct {
	Corridor   gtfsstats.Corridor        `json:"corridor"`
	Comparison *gtfsstats.ModeComparison `json:"comparison,omitempty"`
}

func (h *Handler) handleCorridor(r *http.Request) (interface{}, error) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" || to == "" {
		return nil, badRequestf("missing from/to parameter")
	}

	bike, err := floatParam(r, "bike", h.opts.BicycleKmh)
	if err != nil {
		return nil, err
	}
	if bike <= 0 {
		return nil, badRequestf("bike must be positive")
	}

	snapshot, err := h.snapshot(r)
	if err != nil {
		return nil, err
	}

	profile := gtfsstats.RouteProfile(snapshot.Segments, snapshot.Stops, mux.Vars(r)["route"])
	resp := CorridorResponse{Corridor: gtfsstats.CorridorSpeed(profile, from, to)}
	if resp.Corridor.Available {
		cmp := gtfsstats.CompareModes(resp.Corridor, bike)
		resp.Comparison = &cmp
	}
	return resp, nil
}

func (h *Handler) handleDurations(r *http.Request) (interface{}, error) {
	_, _, segments, err := h.view(r)
	if err != nil {
		return nil, err
	}
	return gtfsstats.CompareServiceDurations(gtfsstats.TripDurations(segments), h.opts.ServiceLabels), nil
}

func (h *Handler) handleTripDurations(r *http.Request) (interface{}, error) {
	_, _, segments, err := h.view(r)
	if err != nil {
		return nil, err
	}
	return gtfsstats.TripDurations(segments), nil
}

type ReportResponse struct {
	Location string                `json:"location"`
	LoadedAt time.Time             `json:"loaded_at"`
	Segments int                   `json:"segments"`
	Quality  map[model.Quality]int `json:"quality"`
	*parse.Report
}

func (h *Handler) handleReport(r *http.Request) (interface{}, error) {
	snapshot, err := h.snapshot(r)
	if err != nil {
		return nil, err
	}
	return ReportResponse{
		Location: snapshot.Location,
		LoadedAt: snapshot.LoadedAt,
		Segments: len(snapshot.Segments),
		Quality:  gtfsstats.QualityCounts(snapshot.Segments),
		Report:   snapshot.Report,
	}, nil
}
