package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAPIRequest("GET", "/events", 200, time.Millisecond)
		m.IncSessionTransition("authenticated")
		m.IncNotification("in_app", OutcomeDelivered)
		m.SetPendingReminders(3)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecording(t *testing.T) {
	m := New()

	m.ObserveAPIRequest("GET", "/events", 200, 10*time.Millisecond)
	m.ObserveAPIRequest("GET", "/events", 200, 20*time.Millisecond)
	m.ObserveAPIRequest("POST", "/auth/login", 401, time.Millisecond)
	m.IncSessionTransition("anonymous")
	m.IncNotification("push", OutcomeSuppressed)
	m.SetPendingReminders(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("GET", "/events", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("POST", "/auth/login", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionTransitionsTotal.WithLabelValues("anonymous")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("push", OutcomeSuppressed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PendingReminders))
}

func TestHandlerExposesSeries(t *testing.T) {
	m := New()
	m.IncSessionTransition("authenticated")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `communityhub_session_transitions_total{to="authenticated"} 1`))
}
