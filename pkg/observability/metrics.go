package observability

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/commitquest/pkg/domain"
)

const namespace = "commitquest"

// Metrics holds the quest collectors.
type Metrics struct {
	Submits      *prometheus.CounterVec
	Transitions  *prometheus.CounterVec
	BackendCalls *prometheus.CounterVec
	BackendTime  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Submits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submits_total",
			Help:      "Non-empty submissions by parsed command.",
		}, []string{"command"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_transitions_total",
			Help:      "Wizard step changes.",
		}, []string{"from", "to"}),
		BackendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Backend calls by operation and outcome.",
		}, []string{"op", "result"}),
		BackendTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_call_duration_seconds",
			Help:      "Duration of backend calls.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"op"}),
	}

	for _, c := range []prometheus.Collector{m.Submits, m.Transitions, m.BackendCalls, m.BackendTime} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
			m.Submits.WithLabelValues(e.Command).Inc()
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(strconv.Itoa(int(e.From)), strconv.Itoa(int(e.To))).Inc()
		},
		OnCallReturn: func(_ context.Context, e *domain.CallEvent) {
			result := "ok"
			if e.IsError {
				result = "error"
			}
			m.BackendCalls.WithLabelValues(e.Op, result).Inc()
			m.BackendTime.WithLabelValues(e.Op).Observe(e.Duration.Seconds())
		},
	}
}
