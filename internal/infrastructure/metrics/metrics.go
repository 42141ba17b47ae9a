package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the bot's working parts.
type Metrics struct {
	Registry *prometheus.Registry

	CommandsHandled      *prometheus.CounterVec
	TasksAdded           *prometheus.CounterVec
	TasksCompleted       *prometheus.CounterVec
	BroadcastsSent       prometheus.Counter
	BroadcastsFailed     prometheus.Counter
	RolloverTasksCarried prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		CommandsHandled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_commands_handled_total",
				Help: "Total number of inbound bot commands handled",
			},
			[]string{"command", "outcome"},
		),
		TasksAdded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_tasks_added_total",
				Help: "Total number of tasks added",
			},
			[]string{"list"},
		),
		TasksCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_tasks_completed_total",
				Help: "Total number of tasks marked done",
			},
			[]string{"list"},
		),
		BroadcastsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_broadcasts_sent_total",
			Help: "Total number of reminder messages delivered",
		}),
		BroadcastsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_broadcasts_failed_total",
			Help: "Total number of reminder deliveries that failed",
		}),
		RolloverTasksCarried: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_rollover_tasks_carried_total",
			Help: "Total number of unfinished tasks carried to the next day",
		}),
	}

	registry.MustRegister(
		m.CommandsHandled,
		m.TasksAdded,
		m.TasksCompleted,
		m.BroadcastsSent,
		m.BroadcastsFailed,
		m.RolloverTasksCarried,
	)

	return m
}
