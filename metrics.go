package gofac

import (
	"reflect"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ngone6325/gofac-patterns/lifetime"
)

// Metrics counts constructions and cache reuse. A nil *Metrics records nothing.
type Metrics struct {
	created *prometheus.CounterVec
	reused  *prometheus.CounterVec
	chains  *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gofac",
			Name:      "instances_created_total",
			Help:      "Instances constructed, by lifetime.",
		}, []string{"lifetime"}),
		reused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gofac",
			Name:      "instances_reused_total",
			Help:      "Resolutions served from a Singleton or Session cell, by lifetime.",
		}, []string{"lifetime"}),
		chains: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gofac",
			Name:      "decorator_chains_built_total",
			Help:      "Completed decorator chain builds, by contract.",
		}, []string{"contract"}),
	}
	for _, col := range []prometheus.Collector{m.created, m.reused, m.chains} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(k lifetime.Kind, created bool) {
	if m == nil {
		return
	}
	if created {
		m.created.WithLabelValues(k.String()).Inc()
		return
	}
	m.reused.WithLabelValues(k.String()).Inc()
}

func (m *Metrics) observeChain(contract reflect.Type) {
	if m == nil {
		return
	}
	m.chains.WithLabelValues(contract.String()).Inc()
}
