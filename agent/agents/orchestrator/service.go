// Package orchestrator is the turn controller: it builds the composite prompt,
// runs one routed session and writes the useful result back to memory.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
	nodex "github.com/tanpawarit/Financial-Swarm-Analyst/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/Financial-Swarm-Analyst/agent/state"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/termination"
)

var ErrInvalidMessage = nodex.ErrInvalidMessage

type Result struct {
	SessionID  string
	Outcome    statex.Outcome
	Reply      string
	Turns      int
	Acquired   []string
	Transcript []contractx.Message
}

// Err reports a session that hit the turn cap as ErrIterationCap.
func (r Result) Err() error {
	if r.Outcome == statex.OutcomeCapExceeded {
		return fmt.Errorf("%w: session %s stopped after %d turns", contractx.ErrIterationCap, r.SessionID, r.Turns)
	}
	return nil
}

type Option func(*Orchestrator)

func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithAcquisitionLog shares acquisition state with another component.
func WithAcquisitionLog(a *nodex.AcquisitionLog) Option {
	return func(o *Orchestrator) {
		if a != nil {
			o.acquisitions = a
		}
	}
}

type Orchestrator struct {
	// mu serializes turns; memory is only written between sessions.
	mu sync.Mutex

	runner       nodex.SessionRunner
	memory       contractx.MemoryStore
	store        statex.Store
	detector     termination.Detector
	acquisitions *nodex.AcquisitionLog
	logger       zerolog.Logger

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	runner nodex.SessionRunner,
	memory contractx.MemoryStore,
	store statex.Store,
	detector termination.Detector,
	opts ...Option,
) (*Orchestrator, error) {
	if runner == nil {
		return nil, errors.New("session runner is required")
	}
	if memory == nil {
		return nil, errors.New("memory store is required")
	}
	if store == nil {
		store = statex.NewMemoryStore()
	}

	o := &Orchestrator{
		runner:       runner,
		memory:       memory,
		store:        store,
		detector:     detector,
		acquisitions: nodex.NewAcquisitionLog(),
		logger:       zerolog.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With().Str("component", "orchestrator").Logger()

	graphRunner, err := o.compileRunTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// RunTurn handles one user request end to end. A failed session is returned
// together with its error so callers can inspect the transcript.
func (o *Orchestrator) RunTurn(ctx context.Context, text string) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{Text: text})
	if err != nil {
		return Result{}, err
	}

	res := Result{Reply: out.Reply, Acquired: out.Acquired}
	if s := out.Session; s != nil {
		res.SessionID = s.ID
		res.Outcome = s.Outcome
		res.Turns = s.Turn
		res.Transcript = s.Transcript()
		if saveErr := o.store.Save(ctx, s); saveErr != nil {
			o.logger.Warn().Err(saveErr).Str("session_id", s.ID).Msg("session not retained")
		}
	}
	if out.Err != nil {
		return res, out.Err
	}

	o.logger.Info().
		Str("session_id", res.SessionID).
		Str("outcome", string(res.Outcome)).
		Int("turns", res.Turns).
		Bool("remembered", res.Reply != "").
		Msg("turn finished")
	return res, nil
}

func (o *Orchestrator) AcquisitionStatus() map[string]bool {
	return o.acquisitions.Snapshot()
}

// Session returns a finished session retained by the store.
func (o *Orchestrator) Session(ctx context.Context, id string) (*statex.Session, error) {
	return o.store.Load(ctx, id)
}
