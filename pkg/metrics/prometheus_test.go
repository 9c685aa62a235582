package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_RecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	p := NewPrometheus(NewPrometheusOptions{Registry: reg})

	r := gin.New()
	p.Use(r, "")
	r.GET("/orders/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, path := range []string{"/orders/1", "/orders/2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	require.Equal(t, 2.0, testutil.ToFloat64(p.reqCnt.WithLabelValues("200", "GET", "/orders/:id", "")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "req_total")
}

func TestPrometheus_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewPrometheus(NewPrometheusOptions{Registry: reg})
	second := NewPrometheus(NewPrometheusOptions{Registry: reg})
	require.Same(t, first.reqCnt, second.reqCnt)
}

func TestBusinessMetrics(t *testing.T) {
	before := testutil.ToFloat64(MetricsLenientDecrypt.MetricCollector.(*prometheus.CounterVec).WithLabelValues("lenient-json"))
	IncLenientDecrypt("lenient-json")
	after := testutil.ToFloat64(MetricsLenientDecrypt.MetricCollector.(*prometheus.CounterVec).WithLabelValues("lenient-json"))
	require.Equal(t, before+1, after)

	IncNotification("notify", "paid", "handled")
	require.GreaterOrEqual(t, testutil.ToFloat64(MetricsNotifications.MetricCollector.(*prometheus.CounterVec).WithLabelValues("notify", "paid", "handled")), 1.0)

	ObserveBusinessProcess("esim", "ok", time.Now().Add(-time.Second))
	require.Equal(t, 1, testutil.CollectAndCount(MetricsBusinessProcess.MetricCollector, "bp_dur"))
}
