package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
)

// Session is the routing state of one external request.
// - ActiveWorker always resolves in the registry
// - Turn only grows; the router aborts the session once it passes the cap
// - the transcript is append-only
type Session struct {
	ID           string             `json:"session_id"`
	ActiveWorker contractx.WorkerID `json:"active_worker"`
	Turn         int                `json:"turn"`
	Outcome      Outcome            `json:"outcome,omitempty"`
	FinalText    string             `json:"final_text,omitempty"`

	transcript []contractx.Message
	lastText   string
	nextSeq    int

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Outcome string

const (
	OutcomeRunning     Outcome = ""
	OutcomeTerminated  Outcome = "terminated"
	OutcomeCapExceeded Outcome = "iteration_cap_exceeded"
	OutcomeFailed      Outcome = "failed"
)

var (
	ErrNilSession     = errors.New("session is nil")
	ErrInvalidSession = errors.New("session id is empty")
	ErrSessionClosed  = errors.New("session already finished")
)

func NewSession(id string, entry contractx.WorkerID, now time.Time) *Session {
	return &Session{
		ID:           id,
		ActiveWorker: entry,
		nextSeq:      1,
		StartedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
}

/* ------------------------------ transcript ------------------------------ */

// Append assigns the next sequence number to msg and stores a copy.
func (s *Session) Append(msg contractx.Message, now time.Time) (contractx.Message, error) {
	if s == nil {
		return contractx.Message{}, ErrNilSession
	}
	if s.Done() {
		return contractx.Message{}, fmt.Errorf("%w: %s", ErrSessionClosed, s.ID)
	}
	msg = msg.Clone()
	msg.Seq = s.nextSeq
	s.nextSeq++
	s.transcript = append(s.transcript, msg)
	if isWorkerText(msg) {
		s.lastText = msg.Content
	}
	s.Touch(now)
	return msg.Clone(), nil
}

// Transcript returns a copy safe to hand to workers.
func (s *Session) Transcript() []contractx.Message {
	if s == nil {
		return nil
	}
	out := make([]contractx.Message, len(s.transcript))
	for i, m := range s.transcript {
		out[i] = m.Clone()
	}
	return out
}

func (s *Session) Len() int {
	if s == nil {
		return 0
	}
	return len(s.transcript)
}

// LastWorkerText is the most recent non-empty text emitted by a worker.
func (s *Session) LastWorkerText() string {
	if s == nil {
		return ""
	}
	return s.lastText
}

func isWorkerText(m contractx.Message) bool {
	if strings.TrimSpace(m.Content) == "" {
		return false
	}
	if m.Speaker == contractx.SpeakerUser || m.Speaker == contractx.SpeakerRouter {
		return false
	}
	return m.Kind == contractx.KindText || m.Kind == contractx.KindHandoff
}

/* ------------------------------- lifecycle ------------------------------ */

func (s *Session) Done() bool {
	return s != nil && s.Outcome != OutcomeRunning
}

func (s *Session) Terminated() bool {
	return s != nil && s.Outcome == OutcomeTerminated
}

// Finish closes the session. The first outcome wins.
func (s *Session) Finish(outcome Outcome, finalText string, now time.Time) {
	if s == nil || s.Done() {
		return
	}
	s.Outcome = outcome
	s.FinalText = finalText
	s.Touch(now)
}

// SwitchTo hands the turn to worker and advances the turn counter.
func (s *Session) SwitchTo(worker contractx.WorkerID, now time.Time) {
	s.ActiveWorker = worker
	s.NextTurn(now)
}

func (s *Session) NextTurn(now time.Time) {
	s.Turn++
	s.Touch(now)
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if strings.TrimSpace(s.ID) == "" {
		return ErrInvalidSession
	}
	if s.ActiveWorker == "" {
		return fmt.Errorf("%w: active worker is empty", contractx.ErrValidation)
	}
	for i, m := range s.transcript {
		if m.Seq != i+1 {
			return fmt.Errorf("%w: transcript sequence broken at index %d", contractx.ErrValidation, i)
		}
	}
	return nil
}
