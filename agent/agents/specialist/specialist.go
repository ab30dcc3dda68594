package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/registry"
)

// HandoffToolPrefix names the synthetic tools a model calls to transfer control.
const HandoffToolPrefix = "transfer_to_"

type specialistImpl struct {
	id           contractx.WorkerID
	instructions string
	runner       compose.Runnable[[]*schema.Message, *schema.Message]
	handoffs     map[string]contractx.WorkerID
}

var _ contractx.Worker = (*specialistImpl)(nil)

func newSpecialist(
	ctx context.Context,
	w registry.Worker,
	chatModel einomodel.ToolCallingChatModel,
	toolInfos []*schema.ToolInfo,
) (*specialistImpl, error) {
	handoffs := make(map[string]contractx.WorkerID, len(w.Handoffs))
	tools := make([]*schema.ToolInfo, 0, len(toolInfos)+len(w.Handoffs))
	tools = append(tools, toolInfos...)
	for _, target := range w.Handoffs {
		info := handoffToolInfo(target)
		handoffs[info.Name] = target
		tools = append(tools, info)
	}

	model := chatModel
	if len(tools) > 0 {
		bound, err := chatModel.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for worker=%s: %v", contractx.ErrModelInvoke, w.ID, err)
		}
		model = bound
	}

	runner, err := compileStepGraph(ctx, model, "specialist."+string(w.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: compile graph for worker=%s: %v", contractx.ErrModelInvoke, w.ID, err)
	}

	return &specialistImpl{
		id:           w.ID,
		instructions: w.Instructions,
		runner:       runner,
		handoffs:     handoffs,
	}, nil
}

func (s *specialistImpl) Step(ctx context.Context, req contractx.StepRequest) (contractx.Output, error) {
	msgs := renderTranscript(s.id, s.instructions, req.Transcript)
	msg, err := s.runner.Invoke(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("%w: worker=%s invoke: %v", contractx.ErrModelInvoke, s.id, err)
	}
	return toOutput(msg, s.handoffs)
}

func handoffToolInfo(target contractx.WorkerID) *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: HandoffToolPrefix + string(target),
		Desc: fmt.Sprintf("Hand the conversation over to %s.", target),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"message": {Type: schema.String, Desc: "Instruction or summary for the next worker"},
		}),
	}
}

// toOutput classifies a model reply. Ordinary tool calls win over handoffs in
// the same reply; the first handoff wins over plain text.
func toOutput(msg *schema.Message, handoffs map[string]contractx.WorkerID) (contractx.Output, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
	}
	content := strings.TrimSpace(msg.Content)

	var (
		calls   []contractx.ToolRequest
		handoff *contractx.Handoff
	)
	for _, call := range msg.ToolCalls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}
		args, err := decodeArgs(call.Function.Arguments)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
		}

		if strings.HasPrefix(name, HandoffToolPrefix) {
			if handoff != nil {
				continue
			}
			target, ok := handoffs[name]
			if !ok {
				// Unknown targets are still routed so the router can reject them.
				target = contractx.WorkerID(strings.TrimPrefix(name, HandoffToolPrefix))
			}
			payload := strings.TrimSpace(args["message"])
			if payload == "" {
				payload = content
			}
			handoff = &contractx.Handoff{Target: target, Payload: payload}
			continue
		}

		calls = append(calls, contractx.ToolRequest{CallID: call.ID, Tool: name, Args: args})
	}

	switch {
	case len(calls) > 0:
		inv := contractx.Invoke{Text: content, Calls: calls}
		if handoff != nil {
			inv.IgnoredHandoff = handoff.Target
		}
		return inv, nil
	case handoff != nil:
		return *handoff, nil
	default:
		return contractx.Continue{Text: content}, nil
	}
}

// decodeArgs flattens a JSON object into string values; non-string values keep
// their JSON encoding.
func decodeArgs(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]string{}, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if string(v) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		out[k] = string(v)
	}
	return out, nil
}
