package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var HistogramBuckets = []float64{
	// --- Fast responses (0 - 500ms) ---
	25, 50, 75, 100, 150, 200, 300, 400, 500,

	// --- Medium responses around 700ms (500ms - 2s) ---
	750, 1000, 1250, 1500, 1750, 2000,

	// --- Slow responses (2s - 15s) ---
	2500, 3000, 4000, 5000, 7500, 10000, 15000,

	// --- Extended range: covers 60000ms+ (15s - 75s) ---
	20000,  // 20s
	30000,  // 30s
	45000,  // 45s
	60000,  // 60s
	75000,  // 75s
	90000,  // 90s
	120000, // 120s
}

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	var metric prometheus.Collector
	switch m.Type {
	case "counter_vec":
		metric = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "counter":
		metric = prometheus.NewCounter(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	case "gauge_vec":
		metric = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "gauge":
		metric = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	case "histogram_vec":
		metric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
				Buckets:   HistogramBuckets,
			},
			m.Args,
		)
	case "histogram":
		metric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
				Buckets:   HistogramBuckets,
			},
		)
	case "summary_vec":
		metric = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "summary":
		metric = prometheus.NewSummary(
			prometheus.SummaryOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	}
	return metric
}

// MetricsBusinessProcess times outbound fulfillment steps, labelled by step
// and by "ok" or "error".
var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "process latency in milliseconds",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype"},
}

var MetricsNotifications = &Metric{
	ID:          "ntfCnt",
	Name:        "newebpay_notifications_total",
	Description: "Gateway deliveries handled, partitioned by endpoint, classification outcome and log status.",
	Type:        "counter_vec",
	Args:        []string{"endpoint", "outcome", "status"},
}

// MetricsLenientDecrypt counts envelopes that only decrypted with padding
// validation disabled. Any non-zero rate needs investigating.
var MetricsLenientDecrypt = &Metric{
	ID:          "lenientCnt",
	Name:        "newebpay_lenient_decrypt_total",
	Description: "TradeInfo payloads recovered by the lenient decrypt path, partitioned by mode.",
	Type:        "counter_vec",
	Args:        []string{"mode"},
}

var businessMetrics = []*Metric{
	MetricsBusinessProcess,
	MetricsNotifications,
	MetricsLenientDecrypt,
}

func init() {
	for _, m := range businessMetrics {
		m.MetricCollector = NewMetric(m, "")
		prometheus.MustRegister(m.MetricCollector)
	}
}

func ObserveBusinessProcess(typ, subtype string, start time.Time) {
	MetricsBusinessProcess.MetricCollector.(*prometheus.HistogramVec).WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
}

func IncNotification(endpoint, outcome, status string) {
	MetricsNotifications.MetricCollector.(*prometheus.CounterVec).WithLabelValues(endpoint, outcome, status).Inc()
}

func IncLenientDecrypt(mode string) {
	MetricsLenientDecrypt.MetricCollector.(*prometheus.CounterVec).WithLabelValues(mode).Inc()
}

// MillisecondsSince returns the elapsed time since start in fractional milliseconds.
func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

const (
	RefererKey = "X-Referer"
)
