package orchestratornode

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/artifact"
	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/tool"
)

// RecordAcquisitions marks every subject/period whose persist call succeeded.
func RecordAcquisitions(in *GraphState, acquisitions *AcquisitionLog, logger zerolog.Logger) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	requests := make(map[string]contractx.Message)
	for _, msg := range in.Session.Transcript() {
		switch msg.Kind {
		case contractx.KindToolRequest:
			requests[msg.CallID] = msg
		case contractx.KindToolResult:
			if msg.Tool != tool.ToolPersist || msg.ErrorKind != "" {
				continue
			}
			req, ok := requests[msg.CallID]
			if !ok {
				continue
			}
			rec, err := tool.DecodeRecord(req.Args["record"])
			if err != nil {
				logger.Warn().Err(err).Str("call_id", msg.CallID).Msg("persisted record is unreadable")
				continue
			}
			key := artifact.Key(rec.Subject, rec.Period)
			acquisitions.Mark(key)
			in.Acquired = append(in.Acquired, key)
			logger.Info().Str("key", key).Msg("acquisition recorded")
		}
	}
	return in, nil
}
