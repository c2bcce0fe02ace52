// Package metrics holds the Prometheus collectors for the research service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles every metric the service emits. It owns its registry,
// so independently constructed collectors never collide.
type Collector struct {
	registry *prometheus.Registry

	// HTTP surface
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Research runs
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	RunsAborted   prometheus.Counter
	RunDuration   prometheus.Histogram
	RunRounds     prometheus.Histogram
	RunCitations  prometheus.Histogram

	// Interviews
	InterviewDuration prometheus.Histogram
	InterviewTurns    prometheus.Histogram
}

// NewCollector creates a collector with all metrics registered under the
// given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	runsStarted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Total number of research runs started",
		},
	)

	runsCompleted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Total number of research runs that produced a result",
		},
	)

	runsAborted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_aborted_total",
			Help:      "Total number of research runs aborted before interviews",
		},
	)

	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Research run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	runRounds := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_rounds",
			Help:      "Interview and refinement rounds per research run",
			Buckets:   prometheus.LinearBuckets(1, 1, 6),
		},
	)

	runCitations := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_citations",
			Help:      "Distinct citations collected per research run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	interviewDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "interview_duration_seconds",
			Help:      "Interview session duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	interviewTurns := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "interview_turns",
			Help:      "Completed turns per interview session",
			Buckets:   prometheus.LinearBuckets(0, 1, 8),
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		runsStarted,
		runsCompleted,
		runsAborted,
		runDuration,
		runRounds,
		runCitations,
		interviewDuration,
		interviewTurns,
	)

	return &Collector{
		registry:          registry,
		HTTPRequests:      httpRequests,
		HTTPDuration:      httpDuration,
		RunsStarted:       runsStarted,
		RunsCompleted:     runsCompleted,
		RunsAborted:       runsAborted,
		RunDuration:       runDuration,
		RunRounds:         runRounds,
		RunCitations:      runCitations,
		InterviewDuration: interviewDuration,
		InterviewTurns:    interviewTurns,
	}
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRunCompleted records one finished research run.
func (c *Collector) RecordRunCompleted(rounds, citations int, duration time.Duration) {
	c.RunsCompleted.Inc()
	c.RunDuration.Observe(duration.Seconds())
	c.RunRounds.Observe(float64(rounds))
	c.RunCitations.Observe(float64(citations))
}

// RecordInterview records one finished interview session.
func (c *Collector) RecordInterview(turns int, duration time.Duration) {
	c.InterviewDuration.Observe(duration.Seconds())
	c.InterviewTurns.Observe(float64(turns))
}

// GetRegistry returns the Prometheus registry backing this collector.
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
