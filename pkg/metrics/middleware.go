package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	RequestsCollectorName = "portal_http_requests_total"
	LatencyCollectorName  = "portal_http_request_duration_milliseconds"
	InFlightCollectorName = "portal_http_requests_in_flight"

	unmatchedRoute = "unmatched"
)

var DefaultLatencyBuckets = []float64{50, 100, 300, 1000, 5000}

// Middleware records portal api traffic by resource, chi route pattern, method
// and status class. Requests that match no route share one label value so that
// scanners cannot blow up the series count.
type Middleware struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

func NewMiddleware(name string, buckets []float64) *Middleware {
	if len(buckets) == 0 {
		buckets = DefaultLatencyBuckets
	}
	labels := []string{"resource", "route", "method", "class"}
	return &Middleware{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        RequestsCollectorName,
			Help:        "Number of api requests by resource, route, method and status class.",
			ConstLabels: prometheus.Labels{"service": name},
		}, labels),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        LatencyCollectorName,
			Help:        "Time spent on api requests by resource, route, method and status class.",
			ConstLabels: prometheus.Labels{"service": name},
			Buckets:     buckets,
		}, labels),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        InFlightCollectorName,
			Help:        "Api requests being served, by method.",
			ConstLabels: prometheus.Labels{"service": name},
		}, []string{"method"}),
	}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		inFlight := m.inFlight.WithLabelValues(r.Method)
		inFlight.Inc()
		defer inFlight.Dec()

		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		values := []string{ResourceOf(route), route, r.Method, statusClass(status)}
		m.requests.WithLabelValues(values...).Inc()
		m.latency.WithLabelValues(values...).Observe(float64(time.Since(start).Milliseconds()))
	}
	return http.HandlerFunc(fn)
}

// ResourceOf returns the api resource a route pattern belongs to, e.g.
// "verifications" for /api/v1/verifications/{id}/actions.
func ResourceOf(route string) string {
	if route == unmatchedRoute {
		return unmatchedRoute
	}
	rest, ok := strings.CutPrefix(route, "/api/v1/")
	if !ok {
		return strings.Trim(route, "/*")
	}
	resource, _, _ := strings.Cut(rest, "/")
	return strings.TrimSuffix(resource, "*")
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

func (m *Middleware) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.latency, m.inFlight}
}

// Register adds the collectors to reg. Collectors registered by an earlier
// server in the same process are reused.
func (m *Middleware) Register(reg prometheus.Registerer) error {
	for i, c := range m.Collectors() {
		err := reg.Register(c)
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			m.adopt(i, already.ExistingCollector)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Middleware) adopt(i int, c prometheus.Collector) {
	switch i {
	case 0:
		if v, ok := c.(*prometheus.CounterVec); ok {
			m.requests = v
		}
	case 1:
		if v, ok := c.(*prometheus.HistogramVec); ok {
			m.latency = v
		}
	case 2:
		if v, ok := c.(*prometheus.GaugeVec); ok {
			m.inFlight = v
		}
	}
}
