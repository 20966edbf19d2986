package main

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/miretskiy/mlqsim/simulator"
)

// promMetrics exports per-session simulation progress.
type promMetrics struct {
	currentTime    *prometheus.GaugeVec
	completed      *prometheus.GaugeVec
	avgTurnaround  *prometheus.GaugeVec
	avgWaiting     *prometheus.GaugeVec
	steps          prometheus.Counter
	activeSessions prometheus.Gauge
	runs           prometheus.Counter
}

func newPromMetrics(reg prometheus.Registerer) *promMetrics {
	m := &promMetrics{
		currentTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mlq_sim_current_time",
			Help: "Simulated clock of the session",
		}, []string{"session"}),
		completed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mlq_sim_completed_processes",
			Help: "Number of completed processes in the session",
		}, []string{"session"}),
		avgTurnaround: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mlq_queue_avg_turnaround_time",
			Help: "Average turnaround time of completed processes per queue",
		}, []string{"session", "queue"}),
		avgWaiting: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mlq_queue_avg_waiting_time",
			Help: "Average waiting time of completed processes per queue",
		}, []string{"session", "queue"}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mlq_sim_steps_total",
			Help: "Simulation steps taken across all sessions",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mlq_sessions_active",
			Help: "Number of live interactive sessions",
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mlq_batch_runs_total",
			Help: "Batch runs executed",
		}),
	}
	reg.MustRegister(
		m.currentTime,
		m.completed,
		m.avgTurnaround,
		m.avgWaiting,
		m.steps,
		m.activeSessions,
		m.runs,
	)
	return m
}

// observe publishes the session's current state.
func (m *promMetrics) observe(id string, state simulator.State, metrics []simulator.QueueMetrics) {
	m.currentTime.WithLabelValues(id).Set(float64(state.CurrentTime))
	m.completed.WithLabelValues(id).Set(float64(state.CompletedCount()))
	for _, qm := range metrics {
		q := strconv.Itoa(int(qm.Queue))
		m.avgTurnaround.WithLabelValues(id, q).Set(qm.AverageTurnaroundTime)
		m.avgWaiting.WithLabelValues(id, q).Set(qm.AverageWaitingTime)
	}
}

// forget drops every series of a closed session.
func (m *promMetrics) forget(id string) {
	labels := prometheus.Labels{"session": id}
	m.currentTime.DeletePartialMatch(labels)
	m.completed.DeletePartialMatch(labels)
	m.avgTurnaround.DeletePartialMatch(labels)
	m.avgWaiting.DeletePartialMatch(labels)
}
