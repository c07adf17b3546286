package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rmrobinson/timetables/services/transit/timetable"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultSkipped = "skipped"
)

// Collector holds the timetable build metrics on a private registry.
type Collector struct {
	reg *prometheus.Registry

	Builds        *prometheus.CounterVec // result label: success|failure|skipped
	BuildDuration prometheus.Histogram

	Pairs    prometheus.Gauge
	Segments prometheus.Gauge
	Pages    prometheus.Gauge

	LastSuccess prometheus.Gauge // unix seconds
	WindowDays  prometheus.Gauge
}

// NewCollector creates and registers the build metrics.
func NewCollector(windowDays int) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetables_builds_total",
			Help: "Total site builds by result.",
		}, []string{"result"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "timetables_build_duration_seconds",
			Help:    "Duration of a site build from feed load to the last page written.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		Pairs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetables_connection_pairs",
			Help: "Station pairs in the last published connection index.",
		}),
		Segments: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetables_connection_segments",
			Help: "Segments in the last published connection index.",
		}),
		Pages: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetables_route_pages",
			Help: "Route pages written by the last successful build.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetables_last_success_timestamp_seconds",
			Help: "Unix time the last successful build started.",
		}),
		WindowDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetables_window_days",
			Help: "Number of days shown on each route page.",
		}),
	}

	reg.MustRegister(
		c.Builds, c.BuildDuration,
		c.Pairs, c.Segments, c.Pages,
		c.LastSuccess, c.WindowDays,
	)

	// Pre-create the result series so they are exported at zero.
	for _, result := range []string{resultSuccess, resultFailure, resultSkipped} {
		c.Builds.WithLabelValues(result)
	}
	c.WindowDays.Set(float64(windowDays))

	return c
}

// ObserveBuild records the outcome of a build attempt.
func (c *Collector) ObserveBuild(res *timetable.BuildResult, err error) {
	if err != nil {
		c.Builds.WithLabelValues(resultFailure).Inc()
		if res != nil {
			c.BuildDuration.Observe(res.Duration.Seconds())
		}
		return
	}

	c.Builds.WithLabelValues(resultSuccess).Inc()
	c.BuildDuration.Observe(res.Duration.Seconds())
	c.Pairs.Set(float64(res.Pairs))
	c.Segments.Set(float64(res.Segments))
	c.Pages.Set(float64(res.Pages))
	c.LastSuccess.Set(float64(res.Started.Unix()))
}

// ObserveSkipped records a scheduled build that did not start, e.g. because another was still running.
func (c *Collector) ObserveSkipped(err error) {
	if errors.Is(err, timetable.ErrBuildInProgress) {
		c.Builds.WithLabelValues(resultSkipped).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
