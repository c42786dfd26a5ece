package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for the giveaway lifecycle.
type Metrics struct {
	ReconcileTicks       prometheus.Counter     // Completed reconciliation passes
	Resolutions          *prometheus.CounterVec // Resolutions by outcome: resolved, cancelled, awaiting
	Joins                prometheus.Counter     // Accepted joins
	NotificationFailures *prometheus.CounterVec // Failed chat updates by kind
	PersistenceFailures  prometheus.Counter     // Failed snapshot saves
	Open                 prometheus.Gauge       // Giveaways currently open
}

// New creates the metrics and registers them with reg.
// Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReconcileTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "giveaway_reconcile_ticks_total",
			Help: "Total number of reconciliation passes",
		}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "giveaway_resolutions_total",
			Help: "Total number of giveaway resolutions by outcome",
		}, []string{"outcome"}),
		Joins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "giveaway_joins_total",
			Help: "Total number of accepted joins",
		}),
		NotificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "giveaway_notification_failures_total",
			Help: "Total number of failed chat notifications by kind",
		}, []string{"kind"}),
		PersistenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "giveaway_persistence_failures_total",
			Help: "Total number of failed snapshot saves",
		}),
		Open: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "giveaway_open",
			Help: "Current number of open giveaways",
		}),
	}

	reg.MustRegister(
		m.ReconcileTicks,
		m.Resolutions,
		m.Joins,
		m.NotificationFailures,
		m.PersistenceFailures,
		m.Open,
	)

	return m
}

// NewNop returns metrics registered nowhere
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Resolution records one lifecycle outcome
func (m *Metrics) Resolution(outcome string) {
	m.Resolutions.WithLabelValues(outcome).Inc()
}

// NotificationFailed records one failed chat update
func (m *Metrics) NotificationFailed(kind string) {
	m.NotificationFailures.WithLabelValues(kind).Inc()
}
