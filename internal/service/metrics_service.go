package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sed-diario-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation. It doubles as the
// registration observer and the open browser session gauge.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	lessons         *prometheus.CounterVec
	lessonAttempts  prometheus.Histogram
	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	sessionsOpen    prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	lessons := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sed_lessons_total",
		Help: "Lessons that reached a final registration state",
	}, []string{"result"})

	lessonAttempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sed_lesson_attempts",
		Help:    "Attempts spent per lesson",
		Buckets: []float64{1, 2, 3, 4, 5},
	})

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sed_runs_total",
		Help: "Registration runs by final status",
	}, []string{"status"})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sed_run_duration_seconds",
		Help:    "Wall time of registration runs",
		Buckets: prometheus.ExponentialBuckets(15, 2, 8),
	})

	sessionsOpen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sed_browser_sessions_open",
		Help: "Browser sessions currently open against the portal",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sed_run_cache_lookups_total",
		Help: "Finished run cache lookups by result",
	}, []string{"result"})

	registry.MustRegister(
		requestDuration, requestTotal,
		lessons, lessonAttempts, runs, runDuration, sessionsOpen, cacheLookups,
		collectors.NewGoCollector(),
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		lessons:         lessons,
		lessonAttempts:  lessonAttempts,
		runs:            runs,
		runDuration:     runDuration,
		sessionsOpen:    sessionsOpen,
		cacheLookups:    cacheLookups,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// LessonFinished records the final state of one lesson.
func (m *MetricsService) LessonFinished(outcome models.RegistrationOutcome) {
	if m == nil {
		return
	}
	result := "failure"
	if outcome.Succeeded {
		result = "success"
	}
	m.lessons.WithLabelValues(result).Inc()
	m.lessonAttempts.Observe(float64(outcome.Attempts))
}

// RunFinished records a registration run, synchronous or queued.
func (m *MetricsService) RunFinished(status models.RunStatus, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(status)).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// RecordCacheOperation counts run cache hits and misses.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// Inc counts an opened browser session.
func (m *MetricsService) Inc() {
	if m != nil {
		m.sessionsOpen.Inc()
	}
}

// Dec counts a closed browser session.
func (m *MetricsService) Dec() {
	if m != nil {
		m.sessionsOpen.Dec()
	}
}
