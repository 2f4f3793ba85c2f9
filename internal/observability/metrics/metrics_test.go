package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReplyMetrics(reg)

	m.ObserveRequest("v1", "success")
	m.ObserveRequest("v1", "success")
	m.ObserveRequest("legacy", "malformed")
	m.ObserveProvider("rest", "success", 0.2)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				key := mf.GetName()
				for _, lp := range metric.GetLabel() {
					key += "|" + lp.GetValue()
				}
				counts[key] = c.GetValue()
			}
		}
	}

	assert.Equal(t, 2.0, counts["email_writer_reply_requests_total|v1|success"])
	assert.Equal(t, 1.0, counts["email_writer_reply_requests_total|legacy|malformed"])
	assert.Equal(t, 1.0, counts["email_writer_provider_requests_total|success|rest"])
}

func TestReplyMetricsNilSafe(t *testing.T) {
	var m *ReplyMetrics
	m.ObserveRequest("v1", "success")
	m.ObserveProvider("rest", "unavailable", 1)
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReplyMetrics(reg)
	m.ObserveRequest("v1", "success")

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "email_writer_reply_requests_total")
}
