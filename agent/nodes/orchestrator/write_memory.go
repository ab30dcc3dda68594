package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/termination"
)

// WriteMemory stores the exchange only when the session produced useful text.
func WriteMemory(
	in *GraphState,
	memory contractx.MemoryStore,
	detector termination.Detector,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	final := in.Session.FinalText
	if detector.Match(final) {
		in.Useful = detector.StripSentences(final)
	} else {
		in.Useful = strings.TrimSpace(final)
	}
	if in.Useful == "" {
		return in, nil
	}

	memory.Add(in.Text, "User")
	memory.Add(in.Useful, "System")
	return in, nil
}
