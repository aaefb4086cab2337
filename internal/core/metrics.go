package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the Prometheus collectors a Service updates as it routes
// messages and chunks. Grounded on the protoflow/dlq namespace convention;
// here the namespace/subsystem pair is "dealer"/"router".
type Metrics struct {
	submissionsTotal   *prometheus.CounterVec
	dispatchedTotal    *prometheus.CounterVec
	droppedTotal       *prometheus.CounterVec
	unhandledDepth     *prometheus.GaugeVec
	registryPrunes     prometheus.Counter
	sweeperExpiredTotal *prometheus.CounterVec

	registerer prometheus.Registerer
	registered bool
}

func newRouterCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealer",
			Subsystem: "router",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func newRouterGaugeVec(name, help string, labels []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "dealer",
			Subsystem: "router",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewMetrics creates a Metrics collector. If registerer is nil, the
// Prometheus default registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		registerer:         registerer,
		submissionsTotal:   newRouterCounterVec("submissions_total", "Total number of messages submitted", []string{"service", "handle"}),
		dispatchedTotal:    newRouterCounterVec("dispatched_total", "Total number of chunks delivered to a live receiver", []string{"service"}),
		droppedTotal:       newRouterCounterVec("dropped_total", "Total number of chunks dropped (no receiver or unreferenced)", []string{"service"}),
		unhandledDepth:     newRouterGaugeVec("unhandled_depth", "Current number of messages held in the unhandled store", []string{"service", "handle"}),
		sweeperExpiredTotal: newRouterCounterVec("sweeper_expired_total", "Total number of messages expired by the deadline sweeper", []string{"service"}),
		registryPrunes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dealer",
			Subsystem: "router",
			Name:      "registry_prunes_total",
			Help:      "Total number of response registry prune passes run",
		}),
	}
}

// Register registers every collector. Safe to call multiple times.
func (m *Metrics) Register() error {
	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.submissionsTotal,
		m.dispatchedTotal,
		m.droppedTotal,
		m.unhandledDepth,
		m.sweeperExpiredTotal,
		m.registryPrunes,
	}
	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	m.registered = true
	return nil
}

func (m *Metrics) observeSubmission(service, handle string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(service, handle).Inc()
}

func (m *Metrics) observeDispatched(service string) {
	if m == nil {
		return
	}
	m.dispatchedTotal.WithLabelValues(service).Inc()
}

func (m *Metrics) observeDropped(service string) {
	if m == nil {
		return
	}
	m.droppedTotal.WithLabelValues(service).Inc()
}

func (m *Metrics) observeUnhandledDepth(service, handle string, depth int) {
	if m == nil {
		return
	}
	m.unhandledDepth.WithLabelValues(service, handle).Set(float64(depth))
}

func (m *Metrics) observeRegistryPrune() {
	if m == nil {
		return
	}
	m.registryPrunes.Inc()
}

func (m *Metrics) observeSweeperExpired(service string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.sweeperExpiredTotal.WithLabelValues(service).Add(float64(count))
}
