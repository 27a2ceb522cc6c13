package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics implements the Metrics port with prometheus counters
// registered on the default registry.
type PrometheusMetrics struct {
	transactionsCompleted *prometheus.CounterVec
	transactionsFailed    *prometheus.CounterVec
	transactionsExpired   prometheus.Counter
	statusConflicts       prometheus.Counter
	distributionCompleted prometheus.Counter
	distributionFailed    prometheus.Counter
	sweepRuns             *prometheus.CounterVec
}

// NewPrometheusMetrics creates and registers the engine's counters
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		transactionsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transactions_completed_total",
			Help: "Transactions confirmed settled by a provider",
		}, []string{"provider"}),
		transactionsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transactions_failed_total",
			Help: "Transactions terminally failed by a provider",
		}, []string{"provider"}),
		transactionsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transactions_expired_total",
			Help: "Transactions aged out while waiting on a provider",
		}),
		statusConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "status_conflicts_total",
			Help: "Duplicate or out-of-order status updates dropped as no-ops",
		}),
		distributionCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "distributions_completed_total",
			Help: "Fund distributions committed to wallets",
		}),
		distributionFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "distributions_failed_total",
			Help: "Fund distributions that exhausted their retry budget",
		}),
		sweepRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Scheduler sweep executions",
		}, []string{"sweep"}),
	}
}

func (m *PrometheusMetrics) IncTransactionCompleted(provider string) {
	m.transactionsCompleted.WithLabelValues(provider).Inc()
}

func (m *PrometheusMetrics) IncTransactionFailed(provider string) {
	m.transactionsFailed.WithLabelValues(provider).Inc()
}

func (m *PrometheusMetrics) IncTransactionExpired() {
	m.transactionsExpired.Inc()
}

func (m *PrometheusMetrics) IncStatusConflict() {
	m.statusConflicts.Inc()
}

func (m *PrometheusMetrics) IncDistributionCompleted() {
	m.distributionCompleted.Inc()
}

func (m *PrometheusMetrics) IncDistributionFailed() {
	m.distributionFailed.Inc()
}

func (m *PrometheusMetrics) IncSweepRun(sweep string) {
	m.sweepRuns.WithLabelValues(sweep).Inc()
}
