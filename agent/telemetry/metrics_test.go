package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()

	m.SessionFinished("terminated", 3)
	m.SessionFinished("terminated", 5)
	m.SessionFinished("iteration_cap_exceeded", 21)
	m.Handoff("planner", "writer", true)
	m.Handoff("data_collector", "writer", false)
	m.ToolCall("list_tables", "ok")
	m.ToolCall("list_tables", "execution")
	m.WorkerStep("planner", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsTotal.WithLabelValues("terminated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsTotal.WithLabelValues("iteration_cap_exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.handoffsTotal.WithLabelValues("data_collector", "writer", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("list_tables", "execution")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.stepDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SessionFinished("terminated", 1)
	m.Handoff("a", "b", true)
	m.ToolCall("x", "ok")
	m.WorkerStep("a", time.Second)
	assert.Nil(t, m.Registry())
}
