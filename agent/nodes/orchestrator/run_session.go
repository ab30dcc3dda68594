package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
	statex "github.com/tanpawarit/Financial-Swarm-Analyst/agent/state"
)

// RunSession keeps a failed session on the state instead of aborting the
// graph, so the caller still receives the transcript.
func RunSession(ctx context.Context, in *GraphState, runner SessionRunner) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	sess, err := runner.Run(ctx, in.Prompt)
	if sess == nil && err == nil {
		return nil, fmt.Errorf("%w: router returned no session", contractx.ErrValidation)
	}
	in.Session = sess
	in.RunErr = err
	return in, nil
}

func SessionFailed(in *GraphState) bool {
	return in == nil || in.RunErr != nil || in.Session == nil || in.Session.Outcome == statex.OutcomeFailed
}
