package orchestratornode

import (
	"context"
	"errors"
	"strings"
	"time"

	statex "github.com/tanpawarit/Financial-Swarm-Analyst/agent/state"
)

var ErrInvalidMessage = errors.New("message is empty")

// SessionRunner runs one routed session for a composite prompt.
type SessionRunner interface {
	Run(ctx context.Context, prompt string) (*statex.Session, error)
}

type GraphInput struct {
	Text string
}

type GraphOutput struct {
	Session *statex.Session
	Reply   string
	// Acquired lists the artifact keys recorded during this turn.
	Acquired []string
	Err      error
}

type GraphState struct {
	Text string
	Now  time.Time

	Need   Need
	Prompt string

	Session  *statex.Session
	RunErr   error
	Acquired []string
	Useful   string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		Text: text,
		Now:  nowFn().UTC(),
	}, nil
}
