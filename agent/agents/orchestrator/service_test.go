package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/memory"
	statex "github.com/tanpawarit/Financial-Swarm-Analyst/agent/state"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/termination"
)

type fakeRunner struct {
	mu      sync.Mutex
	prompts []string
	run     func(prompt string) (*statex.Session, error)
}

func (f *fakeRunner) Run(ctx context.Context, prompt string) (*statex.Session, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.run(prompt)
}

func (f *fakeRunner) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, id string, msgs ...contractx.Message) *statex.Session {
	t.Helper()
	s := statex.NewSession(id, "planner", testNow)
	for _, m := range msgs {
		if _, err := s.Append(m, testNow); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	return s
}

const persistedRecord = `{"subject":"Tencent","period":"2023","tables":[],"key_metrics":{"roe":0.2}}`

func terminatedSession(t *testing.T, id string) *statex.Session {
	t.Helper()
	s := newTestSession(t, id,
		contractx.Message{Speaker: contractx.SpeakerUser, Kind: contractx.KindText, Content: "prompt"},
		contractx.Message{Speaker: "data_collector", Kind: contractx.KindToolRequest, CallID: "c1", Tool: "persist", Args: map[string]string{"record": persistedRecord}},
		contractx.Message{Speaker: "data_collector", Kind: contractx.KindToolResult, CallID: "c1", Tool: "persist", Content: "Saved"},
		contractx.Message{Speaker: "writer", Kind: contractx.KindText, Content: "Tencent ROE was 20%. TASK_DONE"},
	)
	s.SwitchTo("writer", testNow)
	s.Finish(statex.OutcomeTerminated, "Tencent ROE was 20%. TASK_DONE", testNow)
	return s
}

func newTestOrchestrator(t *testing.T, runner *fakeRunner) (*Orchestrator, *memory.Log) {
	t.Helper()
	detector := termination.New("")
	mem := memory.New(detector)
	o, err := New(runner, mem, statex.NewMemoryStore(), detector)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	o.now = func() time.Time { return testNow }
	return o, mem
}

func TestRunTurnRemembersUsefulReply(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{run: func(string) (*statex.Session, error) {
		return terminatedSession(t, "s-1"), nil
	}}
	o, mem := newTestOrchestrator(t, runner)

	res, err := o.RunTurn(context.Background(), "  What was Tencent's ROE in 2023?  ")
	if err != nil {
		t.Fatalf("RunTurn() error = %v", err)
	}
	if res.Outcome != statex.OutcomeTerminated {
		t.Fatalf("unexpected outcome: %s", res.Outcome)
	}
	if res.Reply != "Tencent ROE was 20%." {
		t.Fatalf("unexpected reply: %q", res.Reply)
	}
	if res.SessionID != "s-1" || res.Turns != 1 || len(res.Transcript) != 4 {
		t.Fatalf("unexpected result: %+v", res)
	}

	entries := mem.Entries()
	if len(entries) != 2 {
		t.Fatalf("unexpected memory entries: %d", len(entries))
	}
	if entries[0].Source != "User" || entries[0].Content != "What was Tencent's ROE in 2023?" {
		t.Fatalf("unexpected user entry: %+v", entries[0])
	}
	if entries[1].Source != "System" || entries[1].Content != "Tencent ROE was 20%." {
		t.Fatalf("unexpected system entry: %+v", entries[1])
	}

	if !o.AcquisitionStatus()["Tencent_2023"] {
		t.Fatalf("expected Tencent_2023 to be recorded: %v", o.AcquisitionStatus())
	}
	if len(res.Acquired) != 1 || res.Acquired[0] != "Tencent_2023" {
		t.Fatalf("unexpected acquired keys: %v", res.Acquired)
	}

	stored, err := o.Session(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if stored.ID != "s-1" {
		t.Fatalf("unexpected stored session: %s", stored.ID)
	}
}

func TestRunTurnPromptCarriesContext(t *testing.T) {
	t.Parallel()

	calls := 0
	runner := &fakeRunner{run: func(string) (*statex.Session, error) {
		calls++
		return terminatedSession(t, fmt.Sprintf("s-%d", calls)), nil
	}}
	o, _ := newTestOrchestrator(t, runner)

	if _, err := o.RunTurn(context.Background(), "分析腾讯2023年的营收"); err != nil {
		t.Fatalf("RunTurn() error = %v", err)
	}
	first := runner.lastPrompt()
	for _, want := range []string{
		memory.EmptyHistory,
		"[Data acquisition status]",
		"No data has been acquired yet.",
		"both financial data and text analysis",
		"[Current user request] 分析腾讯2023年的营收",
	} {
		if !strings.Contains(first, want) {
			t.Fatalf("first prompt missing %q:\n%s", want, first)
		}
	}

	if _, err := o.RunTurn(context.Background(), "show the outlook"); err != nil {
		t.Fatalf("RunTurn() error = %v", err)
	}
	second := runner.lastPrompt()
	for _, want := range []string{
		"- User: 分析腾讯2023年的营收",
		"- System: Tencent ROE was 20%.",
		"- Tencent_2023: acquired",
		"mainly needs text analysis",
	} {
		if !strings.Contains(second, want) {
			t.Fatalf("second prompt missing %q:\n%s", want, second)
		}
	}
}

func TestRunTurnCapExceededWithoutTextSkipsMemory(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{run: func(string) (*statex.Session, error) {
		s := newTestSession(t, "s-cap",
			contractx.Message{Speaker: contractx.SpeakerUser, Kind: contractx.KindText, Content: "prompt"},
		)
		s.Finish(statex.OutcomeCapExceeded, "", testNow)
		return s, nil
	}}
	o, mem := newTestOrchestrator(t, runner)

	res, err := o.RunTurn(context.Background(), "loop forever")
	if err != nil {
		t.Fatalf("RunTurn() error = %v", err)
	}
	if res.Outcome != statex.OutcomeCapExceeded {
		t.Fatalf("unexpected outcome: %s", res.Outcome)
	}
	if res.Reply != "" {
		t.Fatalf("expected empty reply, got %q", res.Reply)
	}
	if !errors.Is(res.Err(), contractx.ErrIterationCap) {
		t.Fatalf("expected ErrIterationCap, got %v", res.Err())
	}
	if mem.Len() != 0 {
		t.Fatalf("memory must stay empty, got %d entries", mem.Len())
	}
}

func TestRunTurnFailedSessionReturnsError(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{run: func(string) (*statex.Session, error) {
		s := newTestSession(t, "s-fail",
			contractx.Message{Speaker: contractx.SpeakerUser, Kind: contractx.KindText, Content: "prompt"},
			contractx.Message{Speaker: "data_collector", Kind: contractx.KindToolRequest, CallID: "c1", Tool: "persist", Args: map[string]string{"record": persistedRecord}},
			contractx.Message{Speaker: "data_collector", Kind: contractx.KindToolResult, CallID: "c1", Tool: "persist", Content: "Saved"},
			contractx.Message{Speaker: "planner", Kind: contractx.KindText, Content: "partial answer"},
		)
		s.Finish(statex.OutcomeFailed, "partial answer", testNow)
		return s, errors.Join(contractx.ErrModelInvoke, errors.New("upstream 500"))
	}}
	o, mem := newTestOrchestrator(t, runner)

	res, err := o.RunTurn(context.Background(), "what happened?")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
	if res.Outcome != statex.OutcomeFailed || res.SessionID != "s-fail" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if mem.Len() != 0 {
		t.Fatalf("memory must stay empty, got %d entries", mem.Len())
	}
	if len(o.AcquisitionStatus()) != 0 {
		t.Fatalf("acquisitions must not be recorded: %v", o.AcquisitionStatus())
	}
}

func TestRunTurnRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{run: func(string) (*statex.Session, error) {
		t.Fatal("runner must not be called")
		return nil, nil
	}}
	o, _ := newTestOrchestrator(t, runner)

	if _, err := o.RunTurn(context.Background(), "   "); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestNewRequiresRunnerAndMemory(t *testing.T) {
	t.Parallel()

	detector := termination.New("")
	if _, err := New(nil, memory.New(detector), nil, detector); err == nil {
		t.Fatal("expected error for nil runner")
	}
	if _, err := New(&fakeRunner{}, nil, nil, detector); err == nil {
		t.Fatal("expected error for nil memory")
	}
}
