package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the server. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	MessagesPosted  *prometheus.CounterVec
	ChannelsCreated prometheus.Counter
	ReadsRecorded   prometheus.Counter
	StorageFailures *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the global registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "belay_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status",
			},
			[]string{"path", "method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "belay_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		MessagesPosted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "belay_messages_posted_total",
				Help: "Total number of messages posted, split into top-level posts and replies",
			},
			[]string{"kind"},
		),
		ChannelsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "belay_channels_created_total",
			Help: "Total number of channels created",
		}),
		ReadsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "belay_read_watermarks_recorded_total",
			Help: "Total number of read watermark updates",
		}),
		StorageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "belay_storage_failures_total",
				Help: "Total number of failed storage operations by operation",
			},
			[]string{"op"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.MessagesPosted,
		m.ChannelsCreated,
		m.ReadsRecorded,
		m.StorageFailures,
	)
	return m
}

// MessagePosted counts a new message.
func (m *Metrics) MessagePosted(reply bool) {
	if m == nil {
		return
	}
	kind := "top_level"
	if reply {
		kind = "reply"
	}
	m.MessagesPosted.WithLabelValues(kind).Inc()
}

func (m *Metrics) ChannelCreated() {
	if m == nil {
		return
	}
	m.ChannelsCreated.Inc()
}

func (m *Metrics) ReadRecorded() {
	if m == nil {
		return
	}
	m.ReadsRecorded.Inc()
}

func (m *Metrics) StorageFailure(op string) {
	if m == nil {
		return
	}
	m.StorageFailures.WithLabelValues(op).Inc()
}

// Middleware records a request count and latency per matched route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			// Let the error handler write the response so the recorded
			// status is the one the client sees.
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.Requests.WithLabelValues(path, c.Request().Method, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
