// Package telemetry exposes routing counters for Prometheus. A nil *Metrics is
// valid and records nothing.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const namespace = "swarm"

type Config struct {
	// Addr is the listen address of the /metrics endpoint; empty disables it.
	Addr string `envconfig:"ADDR" split_words:"true"`
}

type Metrics struct {
	registry *prometheus.Registry

	sessionsTotal *prometheus.CounterVec
	sessionTurns  prometheus.Histogram
	handoffsTotal *prometheus.CounterVec
	toolCalls     *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		sessionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Finished routing sessions by outcome.",
		}, []string{"outcome"}),
		sessionTurns: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_turns",
			Help:      "Turn counter value when a session finished.",
			Buckets:   prometheus.LinearBuckets(0, 2, 12),
		}),
		handoffsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoffs_total",
			Help:      "Handoff directives by source, target and result.",
		}, []string{"from", "to", "result"}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and status.",
		}, []string{"tool", "status"}),
		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "worker_step_duration_seconds",
			Help:      "Latency of one worker step.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"worker"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) SessionFinished(outcome string, turns int) {
	if m == nil {
		return
	}
	m.sessionsTotal.WithLabelValues(outcome).Inc()
	m.sessionTurns.Observe(float64(turns))
}

func (m *Metrics) Handoff(from, to string, accepted bool) {
	if m == nil {
		return
	}
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	m.handoffsTotal.WithLabelValues(from, to, result).Inc()
}

// ToolCall records one invocation; status is "ok" or the tool error kind.
func (m *Metrics) ToolCall(tool, status string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
}

func (m *Metrics) WorkerStep(worker string, d time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(worker).Observe(d.Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
