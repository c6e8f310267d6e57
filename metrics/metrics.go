package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the set of collectors the server updates.
type Metrics struct {
	Registry      *prometheus.Registry
	Transitions   *prometheus.CounterVec
	OutboundCalls *prometheus.CounterVec
	EventFailures *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ivr_transitions_total",
			Help: "Menu transitions by stage and outcome.",
		}, []string{"stage", "outcome"}),
		OutboundCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ivr_outbound_calls_total",
			Help: "Outbound call requests by result.",
		}, []string{"result"}),
		EventFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ivr_event_sink_failures_total",
			Help: "Call events a sink failed to accept.",
		}, []string{"sink"}),
	}
}
