package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Transitions.WithLabelValues("language_select", "selected").Inc()
	m.Transitions.WithLabelValues("language_select", "selected").Inc()
	m.OutboundCalls.WithLabelValues("error").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("language_select", "selected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboundCalls.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Transitions, "ivr_transitions_total"))
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.Transitions.WithLabelValues("action_dispatch", "play").Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Transitions.WithLabelValues("action_dispatch", "play")))
}
