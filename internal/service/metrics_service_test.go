package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sed-diario-api/internal/models"
)

func scrapeMetrics(t *testing.T, m *MetricsService) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestMetricsServiceRecordsRegistration(t *testing.T) {
	m := NewMetricsService()

	m.LessonFinished(models.RegistrationOutcome{Succeeded: true, Attempts: 1})
	m.LessonFinished(models.RegistrationOutcome{Succeeded: false, Attempts: 3})
	m.RunFinished(models.RunStatusFinished, 90*time.Second)
	m.Inc()
	m.Inc()
	m.Dec()
	m.ObserveHTTPRequest(http.MethodPost, "/aulas", http.StatusOK, time.Minute)
	m.RecordCacheOperation(true)

	body := scrapeMetrics(t, m)
	assert.Contains(t, body, `sed_lessons_total{result="success"} 1`)
	assert.Contains(t, body, `sed_lessons_total{result="failure"} 1`)
	assert.Contains(t, body, `sed_lesson_attempts_count 2`)
	assert.Contains(t, body, `sed_runs_total{status="FINISHED"} 1`)
	assert.Contains(t, body, `sed_browser_sessions_open 1`)
	assert.Contains(t, body, `http_requests_total{method="POST",path="/aulas",status="200"} 1`)
	assert.Contains(t, body, `sed_run_cache_lookups_total{result="hit"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.LessonFinished(models.RegistrationOutcome{})
		m.RunFinished(models.RunStatusFailed, time.Second)
		m.Inc()
		m.Dec()
		m.ObserveHTTPRequest(http.MethodGet, "/", 200, time.Millisecond)
	})
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
