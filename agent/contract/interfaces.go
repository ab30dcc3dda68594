package contract

import "context"

type Worker interface {
	Step(ctx context.Context, req StepRequest) (Output, error)
}

type WorkerSet interface {
	Worker(id WorkerID) (Worker, bool)
}

// ToolGateway never fails with a Go error; failures travel inside ToolResult.
type ToolGateway interface {
	Invoke(ctx context.Context, req ToolRequest) ToolResult
}

type MemoryStore interface {
	Project() string
	Add(content, source string) bool
}
