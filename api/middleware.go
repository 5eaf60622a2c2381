package api

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tokenvault/ledger/errors"
)

// RequestIDHeader carries the identifier assigned to every request.
const RequestIDHeader = "X-Request-Id"

// statusWriter is a wrapper around http.ResponseWriter that captures the
// status code. It can be hijacked so that websocket upgrades keep working.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{w, http.StatusOK}
}

func (s *statusWriter) WriteHeader(code int) {
	s.statusCode = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.Wrap(errors.ErrHuman, "response writer cannot be hijacked")
	}
	s.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *statusWriter) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestLoggerHandler assigns a request id to every request and logs the
// request once it is served.
func RequestLoggerHandler(handler http.Handler, logger log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)

		sw := newStatusWriter(w)
		handler.ServeHTTP(sw, r)

		logger.Info("API Request",
			"request_id", id,
			"method", r.Method,
			"uri", r.URL.String(),
			"status", sw.statusCode,
			"duration", time.Since(start).String(),
		)
	})
}

// httpMetrics counts served requests by route template.
type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newHTTPMetrics(reg prometheus.Registerer) (*httpMetrics, error) {
	m := &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Number of served HTTP requests.",
		}, []string{"path", "code", "method"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledger",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Time spent serving an HTTP request.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrapf(errors.ErrDuplicate, "register collector: %s", err)
		}
	}
	return m, nil
}

// middleware is a mux middleware that records metrics for each request.
func (m *httpMetrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := newStatusWriter(w)
		next.ServeHTTP(sw, r)

		path := "unknown"
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		m.requests.WithLabelValues(path, strconv.Itoa(sw.statusCode), r.Method).Inc()
		m.duration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}
