package chain

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts ledger activity.
type Metrics struct {
	Transactions *prometheus.CounterVec
	Blocks       prometheus.Counter
}

// NewMetrics creates the ledger collectors and registers them with reg when
// reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "xvault",
				Name:      "transactions_total",
				Help:      "Total number of transactions by method and status.",
			},
			[]string{"method", "status"},
		),
		Blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xvault",
			Name:      "blocks_mined_total",
			Help:      "Total number of blocks mined.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Transactions, m.Blocks)
	}
	return m
}

func (m *Metrics) observe(method, status string) {
	m.Transactions.WithLabelValues(method, status).Inc()
	m.Blocks.Inc()
}
