package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quillback/waystone/internal/protocol"
)

// Metrics mirrors command dispatch into Prometheus collectors. Created
// unregistered; Register attaches them to a registry.
type Metrics struct {
	commands      *prometheus.CounterVec
	notifications prometheus.Counter
	dropped       prometheus.Counter
}

func newServiceMetrics() *Metrics {
	return &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waystone_commands_total",
			Help: "Commands dispatched, by command and response status.",
		}, []string{"command", "status"}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "waystone_notifications_total",
			Help: "Notification frames emitted.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "waystone_notifications_dropped_total",
			Help: "Notification frames dropped on a full buffer.",
		}),
	}
}

// Register attaches the service's collectors to a registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.commands, m.notifications, m.dropped} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observeCommand(resp *protocol.Response) {
	m.commands.WithLabelValues(string(resp.Command), string(resp.Status)).Inc()
}
