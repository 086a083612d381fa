// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splitledger"

// Import results.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
)

// Metrics groups the collectors. Register them with a prometheus.Registerer
// once per process.
type Metrics struct {
	RPCRequests         *prometheus.CounterVec
	RPCDuration         *prometheus.HistogramVec
	Imports             *prometheus.CounterVec
	SkippedTransactions prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC handling latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		Imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Snapshot imports by result.",
		}, []string{"result"}),
		SkippedTransactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_skipped_transactions_total",
			Help:      "Transactions dropped during snapshot imports.",
		}),
	}
	reg.MustRegister(m.RPCRequests, m.RPCDuration, m.Imports, m.SkippedTransactions)
	return m
}

// ObserveImport records the outcome of one import.
func (m *Metrics) ObserveImport(err error, skipped int) {
	if err != nil {
		m.Imports.WithLabelValues(ResultRejected).Inc()
		return
	}
	m.Imports.WithLabelValues(ResultOK).Inc()
	m.SkippedTransactions.Add(float64(skipped))
}
