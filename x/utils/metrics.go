package utils

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
)

const metricsNamespace = "ledger"

// Metrics is a decorator that counts processed calls and measures their
// duration. Each call is labeled with its message path and the error code
// (0 on success).
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ ledger.Decorator = (*Metrics)(nil)

// NewMetrics creates a Metrics decorator with all collectors registered
// using given registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "calls_total",
			Help:      "Number of processed calls.",
		}, []string{"mode", "path", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "call_duration_seconds",
			Help:      "Time spent processing a call.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"mode", "path"}),
	}
	for _, c := range []prometheus.Collector{m.calls, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrapf(errors.ErrDuplicate, "register collector: %s", err)
		}
	}
	return m, nil
}

// Check counts the call labeled as a check.
func (m *Metrics) Check(ctx context.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Checker) (*ledger.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	m.observe("check", tx, start, err)
	return res, err
}

// Deliver counts the call labeled as a deliver.
func (m *Metrics) Deliver(ctx context.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Deliverer) (*ledger.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	m.observe("deliver", tx, start, err)
	return res, err
}

func (m *Metrics) observe(mode string, tx ledger.Tx, start time.Time, err error) {
	path := ledger.GetPath(tx)
	m.calls.WithLabelValues(mode, path, strconv.FormatUint(uint64(errors.Code(err)), 10)).Inc()
	m.duration.WithLabelValues(mode, path).Observe(time.Since(start).Seconds())
}
