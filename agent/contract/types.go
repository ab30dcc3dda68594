package contract

import (
	"fmt"
	"maps"
)

type WorkerID string

const (
	SpeakerUser   = "user"
	SpeakerRouter = "router"
)

type MessageKind string

const (
	KindText              MessageKind = "text"
	KindToolRequest       MessageKind = "tool_call_request"
	KindToolResult        MessageKind = "tool_call_result"
	KindHandoff           MessageKind = "handoff"
	KindProtocolViolation MessageKind = "protocol_violation"
)

// Message is one transcript event. Seq is assigned by the session on append.
type Message struct {
	Seq     int         `json:"seq"`
	Speaker string      `json:"speaker"`
	Kind    MessageKind `json:"kind"`
	Content string      `json:"content,omitempty"`

	CallID    string            `json:"call_id,omitempty"`
	Tool      string            `json:"tool,omitempty"`
	Args      map[string]string `json:"args,omitempty"`
	ErrorKind ToolErrorKind     `json:"error_kind,omitempty"`

	Target WorkerID `json:"target,omitempty"`
}

func (m Message) Clone() Message {
	out := m
	if m.Args != nil {
		out.Args = maps.Clone(m.Args)
	}
	return out
}

type ToolRequest struct {
	CallID string            `json:"call_id"`
	Tool   string            `json:"tool"`
	Args   map[string]string `json:"args,omitempty"`
}

type ToolErrorKind string

const (
	ToolErrUnknown      ToolErrorKind = "unknown_tool"
	ToolErrInvalidArgs  ToolErrorKind = "invalid_arguments"
	ToolErrNotPermitted ToolErrorKind = "not_permitted"
	ToolErrExecution    ToolErrorKind = "execution"
	ToolErrDataNotFound ToolErrorKind = "data_not_found"
	ToolErrRead         ToolErrorKind = "read_error"
	ToolErrPanic        ToolErrorKind = "panic"
)

// ToolError is returned to the calling worker as data. Executors may also
// return it as an error to pick the kind reported to the worker.
type ToolError struct {
	Kind    ToolErrorKind `json:"kind"`
	Message string        `json:"message"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewToolError(kind ToolErrorKind, format string, args ...any) *ToolError {
	return &ToolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

type ToolResult struct {
	CallID  string     `json:"call_id"`
	Tool    string     `json:"tool"`
	Payload string     `json:"payload,omitempty"`
	Error   *ToolError `json:"error,omitempty"`
}

func (r ToolResult) OK() bool {
	return r.Error == nil
}

// Output is what a worker produces for one step: Continue, Invoke or Handoff.
type Output interface {
	isOutput()
}

type Continue struct {
	Text string
}

type Invoke struct {
	// Text is optional narration emitted alongside the calls.
	Text  string
	Calls []ToolRequest
	// IgnoredHandoff names a handoff the model requested in the same reply
	// as the calls. It is not performed.
	IgnoredHandoff WorkerID
}

type Handoff struct {
	Target  WorkerID
	Payload string
}

func (Continue) isOutput() {}
func (Invoke) isOutput()   {}
func (Handoff) isOutput()  {}

type StepRequest struct {
	SessionID  string    `json:"session_id"`
	Worker     WorkerID  `json:"worker"`
	Turn       int       `json:"turn"`
	Transcript []Message `json:"transcript"`
}
