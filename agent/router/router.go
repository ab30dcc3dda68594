// Package router drives one session: it dispatches the active worker, applies
// its output, enforces the capability graph and stops on termination or the turn cap.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/registry"
	statex "github.com/tanpawarit/Financial-Swarm-Analyst/agent/state"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/telemetry"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/termination"
)

type Config struct {
	// TurnCap bounds the turn counter; the session aborts once it is exceeded.
	TurnCap int `envconfig:"TURN_CAP" split_words:"true" default:"20"`
	// StepBudget is the number of steps a worker may take within one turn.
	StepBudget int `envconfig:"STEP_BUDGET" split_words:"true" default:"8"`
}

func (c Config) Validate() error {
	if c.TurnCap < 1 {
		return fmt.Errorf("%w: turn cap must be positive, got %d", contractx.ErrConfig, c.TurnCap)
	}
	if c.StepBudget < 1 {
		return fmt.Errorf("%w: step budget must be positive, got %d", contractx.ErrConfig, c.StepBudget)
	}
	return nil
}

// Observer receives every message as it is appended to the transcript.
type Observer func(sessionID string, msg contractx.Message)

type Option func(*Router)

func WithLogger(l zerolog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

func WithObserver(o Observer) Option {
	return func(r *Router) { r.observer = o }
}

func WithIDGenerator(fn func() string) Option {
	return func(r *Router) {
		if fn != nil {
			r.newID = fn
		}
	}
}

type Router struct {
	registry *registry.Registry
	workers  contractx.WorkerSet
	tools    contractx.ToolGateway
	detector termination.Detector
	cfg      Config

	logger   zerolog.Logger
	metrics  *telemetry.Metrics
	observer Observer
	newID    func() string
	now      func() time.Time
}

func New(
	reg *registry.Registry,
	workers contractx.WorkerSet,
	tools contractx.ToolGateway,
	detector termination.Detector,
	cfg Config,
	opts ...Option,
) (*Router, error) {
	if reg == nil {
		return nil, errors.New("worker registry is required")
	}
	if workers == nil {
		return nil, errors.New("worker set is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, id := range reg.IDs() {
		if _, ok := workers.Worker(id); !ok {
			return nil, fmt.Errorf("%w: no worker implementation for %s", contractx.ErrConfig, id)
		}
	}

	r := &Router{
		registry: reg,
		workers:  workers,
		tools:    tools,
		detector: detector,
		cfg:      cfg,
		logger:   zerolog.Nop(),
		newID:    func() string { return uuid.NewString() },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With().Str("component", "router").Logger()
	return r, nil
}

// Run executes one session starting at the registry's entry worker with
// prompt as the initial user message. Cap exhaustion is reported through the
// session outcome; the error is non-nil only when the session failed.
func (r *Router) Run(ctx context.Context, prompt string) (*statex.Session, error) {
	s := statex.NewSession(r.newID(), r.registry.Entry(), r.now())
	log := r.logger.With().Str("session_id", s.ID).Logger()

	r.emit(s, contractx.Message{Speaker: contractx.SpeakerUser, Kind: contractx.KindText, Content: prompt})
	log.Info().Str("worker", string(s.ActiveWorker)).Msg("session started")

	budget := r.budgetFor(s.ActiveWorker)
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return r.fail(s, log, fmt.Errorf("session %s cancelled: %w", s.ID, err))
		}

		active := s.ActiveWorker
		w, ok := r.workers.Worker(active)
		if !ok {
			return r.fail(s, log, fmt.Errorf("%w: no worker implementation for %s", contractx.ErrConfig, active))
		}

		started := r.now()
		out, err := w.Step(ctx, contractx.StepRequest{
			SessionID:  s.ID,
			Worker:     active,
			Turn:       s.Turn,
			Transcript: s.Transcript(),
		})
		r.metrics.WorkerStep(string(active), r.now().Sub(started))
		if err != nil {
			return r.fail(s, log, fmt.Errorf("%w: worker %s: %w", contractx.ErrModelInvoke, active, err))
		}
		budget--

		switched, err := r.apply(ctx, s, active, out, log)
		if err != nil {
			return r.fail(s, log, err)
		}
		if s.Done() {
			break
		}

		switch {
		case switched:
			budget = r.budgetFor(s.ActiveWorker)
		case budget <= 0:
			// The worker used its whole step budget without handing off; it keeps
			// the floor but that counts as a new turn.
			log.Debug().Str("worker", string(active)).Msg("step budget exhausted")
			s.NextTurn(r.now())
			budget = r.budgetFor(active)
		default:
			continue
		}
		if s.Turn > r.cfg.TurnCap {
			r.finish(s, log, statex.OutcomeCapExceeded, s.LastWorkerText())
		}
	}

	return s, nil
}

// apply interprets one worker output and reports whether the active worker changed.
func (r *Router) apply(
	ctx context.Context,
	s *statex.Session,
	active contractx.WorkerID,
	out contractx.Output,
	log zerolog.Logger,
) (bool, error) {
	speaker := string(active)

	switch o := out.(type) {
	case contractx.Continue:
		r.say(s, speaker, o.Text, log)
		return false, nil

	case contractx.Invoke:
		if r.say(s, speaker, o.Text, log) {
			return false, nil
		}
		if r.invokeTools(ctx, s, active, o.Calls, log) {
			return false, nil
		}
		if o.IgnoredHandoff != "" {
			log.Debug().Str("worker", speaker).Str("to", string(o.IgnoredHandoff)).Msg("handoff ignored alongside tool calls")
			notice := fmt.Sprintf("%s: handoff to %s ignored because the reply also called tools; hand off in a reply without tool calls",
				contractx.ErrProtocolViolation, o.IgnoredHandoff)
			r.emit(s, contractx.Message{
				Speaker: contractx.SpeakerRouter,
				Kind:    contractx.KindProtocolViolation,
				Content: notice,
				Target:  o.IgnoredHandoff,
			})
		}
		return false, nil

	case contractx.Handoff:
		r.emit(s, contractx.Message{
			Speaker: speaker,
			Kind:    contractx.KindHandoff,
			Content: o.Payload,
			Target:  o.Target,
		})
		if r.detector.Match(o.Payload) {
			r.finish(s, log, statex.OutcomeTerminated, o.Payload)
			return false, nil
		}

		if err := r.registry.CheckHandoff(active, o.Target); err != nil {
			r.metrics.Handoff(speaker, string(o.Target), false)
			log.Warn().Str("from", speaker).Str("to", string(o.Target)).Msg("handoff rejected")
			r.emit(s, contractx.Message{
				Speaker: contractx.SpeakerRouter,
				Kind:    contractx.KindProtocolViolation,
				Content: err.Error(),
				Target:  o.Target,
			})
			return false, nil
		}

		r.metrics.Handoff(speaker, string(o.Target), true)
		log.Debug().Str("from", speaker).Str("to", string(o.Target)).Msg("handoff")
		s.SwitchTo(o.Target, r.now())
		return true, nil

	default:
		return false, fmt.Errorf("%w: worker %s produced output of type %T", contractx.ErrSchemaViolation, active, out)
	}
}

// say appends worker text and reports whether it terminated the session.
func (r *Router) say(s *statex.Session, speaker, text string, log zerolog.Logger) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	r.emit(s, contractx.Message{Speaker: speaker, Kind: contractx.KindText, Content: text})
	if r.detector.Match(text) {
		r.finish(s, log, statex.OutcomeTerminated, text)
		return true
	}
	return false
}

// invokeTools records every request before running them in order, so a
// result never precedes its request in the transcript. It reports whether a
// result carried the termination phrase; the remaining calls are skipped then.
func (r *Router) invokeTools(
	ctx context.Context,
	s *statex.Session,
	active contractx.WorkerID,
	calls []contractx.ToolRequest,
	log zerolog.Logger,
) bool {
	w, _ := r.registry.Worker(active)
	speaker := string(active)

	reqs := make([]contractx.ToolRequest, len(calls))
	for i, call := range calls {
		if strings.TrimSpace(call.CallID) == "" {
			call.CallID = fmt.Sprintf("call_%d_%d", s.Len()+1, i)
		}
		reqs[i] = call
		r.emit(s, contractx.Message{
			Speaker: speaker,
			Kind:    contractx.KindToolRequest,
			CallID:  call.CallID,
			Tool:    call.Tool,
			Args:    call.Args,
		})
	}

	for _, req := range reqs {
		var res contractx.ToolResult
		if !w.CanUse(req.Tool) {
			res = contractx.ToolResult{
				CallID: req.CallID,
				Tool:   req.Tool,
				Error:  contractx.NewToolError(contractx.ToolErrNotPermitted, "%s may not call %s", active, req.Tool),
			}
		} else {
			res = r.tools.Invoke(ctx, req)
		}

		msg := contractx.Message{
			Speaker: speaker,
			Kind:    contractx.KindToolResult,
			CallID:  req.CallID,
			Tool:    req.Tool,
			Content: res.Payload,
		}
		status := "ok"
		if !res.OK() {
			msg.Content = res.Error.Message
			msg.ErrorKind = res.Error.Kind
			status = string(res.Error.Kind)
		}
		r.metrics.ToolCall(req.Tool, status)
		log.Debug().Str("worker", speaker).Str("tool", req.Tool).Str("status", status).Msg("tool call")
		r.emit(s, msg)
		if r.detector.Match(msg.Content) {
			r.finish(s, log, statex.OutcomeTerminated, msg.Content)
			return true
		}
	}
	return false
}

func (r *Router) emit(s *statex.Session, msg contractx.Message) {
	stored, err := s.Append(msg, r.now())
	if err != nil {
		return
	}
	if r.observer != nil {
		r.observer(s.ID, stored)
	}
}

func (r *Router) finish(s *statex.Session, log zerolog.Logger, outcome statex.Outcome, finalText string) {
	s.Finish(outcome, finalText, r.now())
	r.metrics.SessionFinished(string(outcome), s.Turn)
	ev := log.Info()
	if outcome != statex.OutcomeTerminated {
		ev = log.Warn()
	}
	ev.Str("outcome", string(outcome)).Int("turn", s.Turn).Int("messages", s.Len()).Msg("session finished")
}

func (r *Router) fail(s *statex.Session, log zerolog.Logger, err error) (*statex.Session, error) {
	s.Finish(statex.OutcomeFailed, s.LastWorkerText(), r.now())
	r.metrics.SessionFinished(string(statex.OutcomeFailed), s.Turn)
	log.Error().Err(err).Int("turn", s.Turn).Msg("session failed")
	return s, err
}

func (r *Router) budgetFor(id contractx.WorkerID) int {
	if w, ok := r.registry.Worker(id); ok && w.StepBudget > 0 {
		return w.StepBudget
	}
	return r.cfg.StepBudget
}
