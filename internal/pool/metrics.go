package pool

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/thep2p/go-beacon-fetch/internal/fetch"
	"github.com/thep2p/go-beacon-fetch/internal/model"
)

const (
	metricsNamespace = "beacon"
	metricsSubsystem = "fetch"
)

type metrics struct {
	attempts *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	active   prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer, name string) (*metrics, error) {
	labels := prometheus.Labels{model.MetricPool: name}

	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Subsystem:   metricsSubsystem,
		ConstLabels: labels,
		Name:        "attempts_total",
		Help:        "Results of individual fetch task runs, by status.",
	}, []string{model.MetricStatus})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Subsystem:   metricsSubsystem,
		ConstLabels: labels,
		Name:        "outcomes_total",
		Help:        "Terminal results of fetch tasks, by status.",
	}, []string{model.MetricStatus})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Subsystem:   metricsSubsystem,
		ConstLabels: labels,
		Name:        "active_tasks",
		Help:        "Fetch tasks currently driven by the pool.",
	})

	var err error
	if attempts, err = register(reg, attempts); err != nil {
		return nil, err
	}
	if outcomes, err = register(reg, outcomes); err != nil {
		return nil, err
	}
	if active, err = register(reg, active); err != nil {
		return nil, err
	}

	return &metrics{attempts: attempts, outcomes: outcomes, active: active}, nil
}

// register registers c on reg, reusing the collector already registered
// under the same name and pool label so several pools can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register metric: %w", err)
	}
	return c, nil
}

func (m *metrics) attempt(status fetch.Status) {
	m.attempts.WithLabelValues(status.String()).Inc()
}

func (m *metrics) outcome(status fetch.Status) {
	m.outcomes.WithLabelValues(status.String()).Inc()
}
