package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tidbyt.dev/gtfsstats/parse"
)

type Collector struct {
	reg *prometheus.Registry

	Loads        *prometheus.CounterVec // kind label: snapshot|traffic
	LoadErrors   *prometheus.CounterVec
	LoadDuration prometheus.Histogram
	CacheHits    *prometheus.CounterVec
	CacheMisses  *prometheus.CounterVec

	RejectedFiles *prometheus.CounterVec // file, reason
	RejectedRows  *prometheus.CounterVec // file, reason

	Segments prometheus.Gauge

	ViewRequests *prometheus.CounterVec // view label
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gtfsstats_loads_total",
			Help: "Total pipeline runs over a source.",
		}, []string{"kind"}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gtfsstats_load_errors_total",
			Help: "Total pipeline runs that failed.",
		}, []string{"kind"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gtfsstats_load_duration_seconds",
			Help:    "Duration of a full pipeline run.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gtfsstats_cache_hits_total",
			Help: "Loads served from the cache.",
		}, []string{"kind"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gtfsstats_cache_misses_total",
			Help: "Loads not found in the cache.",
		}, []string{"kind"}),
		RejectedFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gtfsstats_rejected_files_total",
			Help: "Source files skipped during loading.",
		}, []string{"file", "reason"}),
		RejectedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gtfsstats_rejected_rows_total",
			Help: "Source rows rejected during loading.",
		}, []string{"file", "reason"}),
		Segments: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gtfsstats_segments",
			Help: "Number of segments in the most recently loaded snapshot.",
		}),
		ViewRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gtfsstats_view_requests_total",
			Help: "Requests served, by view.",
		}, []string{"view"}),
	}

	reg.MustRegister(
		c.Loads, c.LoadErrors, c.LoadDuration,
		c.CacheHits, c.CacheMisses,
		c.RejectedFiles, c.RejectedRows,
		c.Segments, c.ViewRequests,
	)

	return c
}

// Records the rejections in a load report.
func (c *Collector) ObserveReport(report *parse.Report) {
	if report == nil {
		return
	}
	for _, f := range report.RejectedFiles {
		c.RejectedFiles.WithLabelValues(f.File, string(f.Reason)).Inc()
	}
	for _, r := range report.RejectedRows {
		c.RejectedRows.WithLabelValues(r.File, string(r.Reason)).Inc()
	}
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
