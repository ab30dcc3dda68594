package specialist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
)

// renderTranscript turns the shared transcript into the chat history seen by
// self. Its own text and tool calls become assistant turns; everything said by
// others arrives as user turns tagged with the speaker.
func renderTranscript(self contractx.WorkerID, instructions string, transcript []contractx.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(transcript)+1)
	if instructions != "" {
		out = append(out, schema.SystemMessage(instructions))
	}

	me := string(self)
	var pending []schema.ToolCall
	flush := func() {
		if len(pending) > 0 {
			out = append(out, schema.AssistantMessage("", pending))
			pending = nil
		}
	}

	for _, m := range transcript {
		own := m.Speaker == me
		if !(own && m.Kind == contractx.KindToolRequest) {
			flush()
		}

		switch {
		case m.Kind == contractx.KindText && m.Speaker == contractx.SpeakerUser:
			out = append(out, schema.UserMessage(m.Content))
		case m.Kind == contractx.KindText && own:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		case m.Kind == contractx.KindText:
			out = append(out, schema.UserMessage(fmt.Sprintf("[%s]: %s", m.Speaker, m.Content)))

		case m.Kind == contractx.KindToolRequest && own:
			pending = append(pending, schema.ToolCall{
				ID:       m.CallID,
				Type:     "function",
				Function: schema.FunctionCall{Name: m.Tool, Arguments: encodeArgs(m.Args)},
			})
		case m.Kind == contractx.KindToolResult && own:
			out = append(out, schema.ToolMessage(toolContent(m), m.CallID))
		case m.Kind == contractx.KindToolRequest:
			out = append(out, schema.UserMessage(fmt.Sprintf("[%s] called %s(%s)", m.Speaker, m.Tool, encodeArgs(m.Args))))
		case m.Kind == contractx.KindToolResult:
			out = append(out, schema.UserMessage(fmt.Sprintf("[%s] %s returned: %s", m.Speaker, m.Tool, toolContent(m))))

		case m.Kind == contractx.KindHandoff && own:
			out = append(out, schema.AssistantMessage(handoffText("I", m), nil))
		case m.Kind == contractx.KindHandoff:
			out = append(out, schema.UserMessage(handoffText("["+m.Speaker+"]", m)))

		case m.Kind == contractx.KindProtocolViolation:
			out = append(out, schema.UserMessage(fmt.Sprintf("[%s]: your handoff was rejected: %s", m.Speaker, m.Content)))
		}
	}
	flush()
	return out
}

func toolContent(m contractx.Message) string {
	if m.ErrorKind != "" {
		return fmt.Sprintf("error (%s): %s", m.ErrorKind, m.Content)
	}
	return m.Content
}

func handoffText(who string, m contractx.Message) string {
	text := fmt.Sprintf("%s transferred the conversation to %s.", who, m.Target)
	if p := strings.TrimSpace(m.Content); p != "" {
		text += " Message: " + p
	}
	return text
}

// encodeArgs renders args as a JSON object; encoding/json sorts map keys.
func encodeArgs(args map[string]string) string {
	if len(args) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
