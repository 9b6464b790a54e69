package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studiocrm",
			Name:      "commands_total",
			Help:      "Facade commands by name.",
		},
		[]string{"command"},
	)

	commandErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studiocrm",
			Name:      "command_errors_total",
			Help:      "Failed facade commands by name and error kind.",
		},
		[]string{"command", "kind"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(commandsTotal, commandErrors)
	})
}

// IncCommand increments the counter for a command label.
func IncCommand(command string) {
	commandsTotal.WithLabelValues(command).Inc()
}

// IncCommandError increments the error counter for a command and error kind.
func IncCommandError(command, kind string) {
	commandErrors.WithLabelValues(command, kind).Inc()
}
