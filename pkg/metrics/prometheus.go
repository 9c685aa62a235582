package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Standard HTTP metrics, labelled by status code, method, route and the
// X-Referer header.
var reqCnt = &Metric{
	ID:          "reqCnt",
	Name:        "req_total",
	Description: "How many HTTP requests processed, partitioned by status code and HTTP method.",
	Type:        "counter_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var reqDur = &Metric{
	ID:          "reqDur",
	Name:        "req_dur_ms",
	Description: "The HTTP request latencies in milliseconds.",
	Type:        "histogram_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var resSz = &Metric{
	ID:          "resSz",
	Name:        "resp_sz_bytes",
	Description: "The HTTP response sizes in bytes.",
	Type:        "summary_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var reqSz = &Metric{
	ID:          "reqSz",
	Name:        "req_sz_bytes",
	Description: "The HTTP request sizes in bytes.",
	Type:        "summary_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var standardMetrics = []*Metric{reqCnt, reqDur, resSz, reqSz}

const defaultMetricPath = "/metrics"

// URLLabelFn maps a request to its "url" label. Use the route template to
// keep cardinality bounded.
type URLLabelFn func(c *gin.Context) string

// Prometheus is a gin middleware recording the standard HTTP metrics. When a
// listen address is set the scrape endpoint is served from its own server so
// it stays out of the access log.
type Prometheus struct {
	reqCnt       *prometheus.CounterVec
	reqDur       *prometheus.HistogramVec
	reqSz, resSz *prometheus.SummaryVec

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	server     *http.Server

	MetricsPath string
	URLLabelFn  URLLabelFn

	log *zap.SugaredLogger
}

type NewPrometheusOptions struct {
	Subsystem   string
	MetricsPath string
	URLLabelFn  URLLabelFn
	// Registry defaults to the process-wide registry.
	Registry *prometheus.Registry
	Logger   *zap.SugaredLogger
}

func NewPrometheus(options NewPrometheusOptions) *Prometheus {
	p := &Prometheus{
		MetricsPath: options.MetricsPath,
		URLLabelFn:  options.URLLabelFn,
		registerer:  prometheus.DefaultRegisterer,
		gatherer:    prometheus.DefaultGatherer,
		log:         options.Logger,
	}
	if options.Registry != nil {
		p.registerer, p.gatherer = options.Registry, options.Registry
	}
	if p.MetricsPath == "" {
		p.MetricsPath = defaultMetricPath
	}
	if p.URLLabelFn == nil {
		p.URLLabelFn = RouteLabel
	}
	if p.log == nil {
		p.log = zap.NewNop().Sugar()
	}
	p.registerMetrics(options.Subsystem)
	return p
}

// RouteLabel returns the matched route template, or the raw path for
// unmatched requests.
func RouteLabel(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

func (p *Prometheus) registerMetrics(subsystem string) {
	for _, def := range standardMetrics {
		collector := NewMetric(def, subsystem)
		if err := p.registerer.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				p.log.Errorw("metric_register_failed", "metric", def.Name, "err", err)
				continue
			}
			collector = already.ExistingCollector
		}
		switch def {
		case reqCnt:
			p.reqCnt = collector.(*prometheus.CounterVec)
		case reqDur:
			p.reqDur = collector.(*prometheus.HistogramVec)
		case resSz:
			p.resSz = collector.(*prometheus.SummaryVec)
		case reqSz:
			p.reqSz = collector.(*prometheus.SummaryVec)
		}
	}
}

func (p *Prometheus) handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{}))
}

// Use installs the middleware on e. With an empty listenAddress the scrape
// endpoint is mounted on e as well; otherwise a dedicated server is started.
func (p *Prometheus) Use(e *gin.Engine, listenAddress string) {
	e.Use(p.HandlerFunc())
	if listenAddress == "" {
		e.GET(p.MetricsPath, p.handler())
		return
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET(p.MetricsPath, p.handler())
	p.server = &http.Server{Addr: listenAddress, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.Errorw("metrics_server_error", "addr", listenAddress, "err", err)
		}
	}()
}

// Shutdown stops the dedicated metrics server, if one was started.
func (p *Prometheus) Shutdown(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	return p.server.Shutdown(ctx)
}

func (p *Prometheus) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == p.MetricsPath {
			c.Next()
			return
		}

		start := time.Now()
		requestSize := computeApproximateRequestSize(c.Request)

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		url := p.URLLabelFn(c)
		ref := c.Request.Header.Get(RefererKey)

		if p.reqDur != nil {
			p.reqDur.WithLabelValues(status, c.Request.Method, url, ref).Observe(MillisecondsSince(start))
		}
		if p.reqCnt != nil {
			p.reqCnt.WithLabelValues(status, c.Request.Method, url, ref).Inc()
		}
		if p.reqSz != nil {
			p.reqSz.WithLabelValues(status, c.Request.Method, url, ref).Observe(float64(requestSize))
		}
		if p.resSz != nil {
			p.resSz.WithLabelValues(status, c.Request.Method, url, ref).Observe(float64(max(c.Writer.Size(), 0)))
		}
	}
}

func computeApproximateRequestSize(r *http.Request) int {
	s := 0
	if r.URL != nil {
		s = len(r.URL.Path)
	}
	s += len(r.Method) + len(r.Proto) + len(r.Host)
	for name, values := range r.Header {
		s += len(name)
		for _, v := range values {
			s += len(v)
		}
	}
	if r.ContentLength > 0 {
		s += int(r.ContentLength)
	}
	return s
}
