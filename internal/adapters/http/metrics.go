package http

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts domain events. A nil *Metrics records nothing.
type Metrics struct {
	taskMutations *prometheus.CounterVec
	authAttempts  *prometheus.CounterVec
}

// NewMetrics registers the domain counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		taskMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_task_mutations_total",
				Help: "Successful task mutations by operation",
			},
			[]string{"operation"},
		),
		authAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_auth_attempts_total",
				Help: "Register and login attempts by outcome",
			},
			[]string{"operation", "result"},
		),
	}
	reg.MustRegister(m.taskMutations, m.authAttempts)
	return m
}

func (m *Metrics) taskMutated(operation string) {
	if m == nil {
		return
	}
	m.taskMutations.WithLabelValues(operation).Inc()
}

func (m *Metrics) authAttempt(operation string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.authAttempts.WithLabelValues(operation, result).Inc()
}
