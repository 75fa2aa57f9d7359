package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/indigo-web/httpd/http/method"
	"github.com/indigo-web/httpd/http/status"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "httpd"

// Metrics holds the server's collectors, registered on their own registry, so
// several servers may live in one process.
type Metrics struct {
	registry      *prometheus.Registry
	connections   prometheus.Counter
	active        prometheus.Gauge
	requests      *prometheus.CounterVec
	parseErrors   prometheus.Counter
	panics        prometheus.Counter
	bytesSent     prometheus.Counter
	requestTiming prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "connections_total",
			Help: "Accepted connections.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "connections_active",
			Help: "Connections currently processed by workers.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "requests_total",
			Help: "Responded requests by method and status code.",
		}, []string{"method", "code"}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "parse_errors_total",
			Help: "Requests dropped without a response because they couldn't be parsed.",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "panics_total",
			Help: "Recovered panics while processing connections.",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "body_bytes_sent_total",
			Help: "Response body bytes streamed from files.",
		}),
		requestTiming: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "request_duration_seconds",
			Help:    "Time from a parsed request to its fully sent response.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
	}

	m.registry.MustRegister(
		m.connections, m.active, m.requests, m.parseErrors, m.panics, m.bytesSent, m.requestTiming,
	)

	return m
}

// WatchQueue exposes the current length and the capacity of the dispatch queue.
func (m *Metrics) WatchQueue(length, capacity func() int) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "queue_length",
			Help: "Accepted connections waiting for a free worker.",
		}, func() float64 {
			return float64(length())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "queue_capacity",
			Help: "How many accepted connections may wait before the accept loop blocks.",
		}, func() float64 {
			return float64(capacity())
		}),
	)
}

func (m *Metrics) ConnectionOpened() {
	m.connections.Inc()
	m.active.Inc()
}

func (m *Metrics) ConnectionClosed() {
	m.active.Dec()
}

func (m *Metrics) Request(meth method.Method, code status.Code, bodySize int64, took time.Duration) {
	m.requests.WithLabelValues(meth.String(), strconv.Itoa(int(code))).Inc()
	m.bytesSent.Add(float64(bodySize))
	m.requestTiming.Observe(took.Seconds())
}

func (m *Metrics) ParseError() {
	m.parseErrors.Inc()
}

func (m *Metrics) Panic() {
	m.panics.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
