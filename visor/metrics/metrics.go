// Package metrics exposes the supervisor's view of its tasks to Prometheus
// and serves it over HTTP as a task of its own.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/uberbrodt/procvisor/visor/supervisor"
	"github.com/uberbrodt/procvisor/visor/task"
)

var (
	// taskUp is 1 while a task is running
	taskUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "procvisor_task_up",
			Help: "Whether a supervised task is running",
		},
		[]string{"task"},
	)

	// shutdowns counts shutdown sequences by what started them
	shutdowns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procvisor_shutdowns_total",
			Help: "Shutdown sequences by cause, triggering task and signal",
		},
		[]string{"cause", "task", "signal"},
	)
)

// TrackState keeps procvisor_task_up current. Pass it to
// [task.OnStateChange].
func TrackState(name string, s task.State) {
	if s == task.Running {
		taskUp.WithLabelValues(name).Set(1)
	} else {
		taskUp.WithLabelValues(name).Set(0)
	}
}

// Observer records supervisor events.
type Observer struct{}

var _ supervisor.Observer = Observer{}

func (Observer) OnStart(name string) {
	// known but not yet running
	taskUp.WithLabelValues(name).Set(0)
}

func (Observer) OnShutdown(cause supervisor.Cause) {
	sig := ""
	if cause.Signal != nil {
		sig = cause.Signal.String()
	}
	shutdowns.WithLabelValues(cause.Kind.String(), cause.Task, sig).Inc()
}
