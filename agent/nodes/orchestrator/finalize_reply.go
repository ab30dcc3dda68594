package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	return GraphOutput{
		Session:  in.Session,
		Reply:    in.Useful,
		Acquired: in.Acquired,
		Err:      in.RunErr,
	}, nil
}
