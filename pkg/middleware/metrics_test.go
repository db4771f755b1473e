package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectMetric extracts the first metric of c whose labels include all of
// labels.
func collectMetric(c prometheus.Collector, labels map[string]string) *dto.Metric {
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		if err := m.Write(d); err != nil {
			continue
		}

		match := true
		for k, v := range labels {
			found := false
			for _, lp := range d.GetLabel() {
				if lp.GetName() == k && lp.GetValue() == v {
					found = true
					break
				}
			}
			if !found {
				match = false
				break
			}
		}
		if match {
			return d
		}
	}
	return nil
}

func TestPrometheusMetrics_RequestCounting(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("count-svc"))
	r.Get("/api/v1/sessions/{sessionID}/cart", func(w http.ResponseWriter, r *http.Request) {})

	for _, session := range []string{"a", "b", "c"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+session+"/cart", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	// All sessions share one series labelled by route pattern.
	m := collectMetric(httpRequestsTotal, map[string]string{
		"service": "count-svc",
		"method":  "GET",
		"route":   "/api/v1/sessions/{sessionID}/cart",
		"status":  "200",
	})
	require.NotNil(t, m)
	assert.Equal(t, float64(3), m.GetCounter().GetValue())
}

func TestPrometheusMetrics_DurationHistogram(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("hist-svc"))
	r.Post("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/test", nil))

	m := collectMetric(httpRequestDuration, map[string]string{"service": "hist-svc", "status": "201"})
	require.NotNil(t, m)
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
}

func TestPrometheusMetrics_InFlightGauge(t *testing.T) {
	inFlightSeen := float64(-1)
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("inflight-svc"))
	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		if m := collectMetric(httpRequestsInFlight, map[string]string{"service": "inflight-svc"}); m != nil {
			inFlightSeen = m.GetGauge().GetValue()
		}
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, float64(1), inFlightSeen)
	m := collectMetric(httpRequestsInFlight, map[string]string{"service": "inflight-svc"})
	require.NotNil(t, m)
	assert.Zero(t, m.GetGauge().GetValue())
}

func TestPrometheusMetrics_UnmatchedRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("unmatched-svc"))
	r.Get("/known", func(w http.ResponseWriter, r *http.Request) {})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	m := collectMetric(httpRequestsTotal, map[string]string{"service": "unmatched-svc", "status": "404"})
	require.NotNil(t, m)
}
