package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_DomainCounters(t *testing.T) {
	m := New()

	m.ClubEvent(ClubCreated)
	m.ClubEvent(ClubCreated)
	m.InviteEvent(InviteConsumed)
	m.BookEvent(ReviewSaved)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.clubEvents.WithLabelValues(ClubCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inviteEvents.WithLabelValues(InviteConsumed)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inviteEvents.WithLabelValues(InviteRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookEvents.WithLabelValues(ReviewSaved)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ClubEvent(ClubDeleted)
		m.InviteEvent(InviteIssued)
		m.BookEvent(BookAdded)
		m.RecordJob("reindex", time.Second, true)
	})
}

func TestMetrics_RecordJob(t *testing.T) {
	m := New()
	m.RecordJob("session_gc", 0, true)
	m.RecordJob("session_gc", time.Second, false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("session_gc", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("session_gc", "false")))
}

func TestMetrics_MiddlewareUsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/clubs/{slug}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	for _, slug := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs/"+slug, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/clubs/{slug}", "418")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "buddyread_http_requests_total")
}
