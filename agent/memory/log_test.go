package memory

import (
	"strings"
	"testing"

	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/termination"
)

func TestAddDropsTerminationPhrase(t *testing.T) {
	t.Parallel()

	log := New(termination.New(""))
	if log.Add("Report delivered. TASK_DONE", "System") {
		t.Fatal("expected content with termination phrase to be dropped")
	}
	if log.Add("   ", "User") {
		t.Fatal("expected blank content to be dropped")
	}
	if log.Len() != 0 {
		t.Fatalf("unexpected entries: %d", log.Len())
	}
	if got := log.Project(); got != EmptyHistory {
		t.Fatalf("Project() = %q, want sentinel", got)
	}
}

func TestProjectRendersInOrder(t *testing.T) {
	t.Parallel()

	log := New(termination.New(""))
	if !log.Add("analyse revenue for 2023", "User") {
		t.Fatal("expected user entry to be kept")
	}
	if !log.Add("Revenue rose 9%.", "System") {
		t.Fatal("expected system entry to be kept")
	}

	want := strings.Join([]string{
		HistoryHeader,
		"- User: analyse revenue for 2023",
		"- System: Revenue rose 9%.",
		HistoryFooter,
	}, "\n")

	first := log.Project()
	if first != want {
		t.Fatalf("Project() = %q, want %q", first, want)
	}
	if second := log.Project(); second != first {
		t.Fatal("Project() must be idempotent")
	}

	entries := log.Entries()
	if len(entries) != 2 {
		t.Fatalf("unexpected entries: %d", len(entries))
	}
	if entries[0].Seq >= entries[1].Seq {
		t.Fatalf("sequence numbers not increasing: %d, %d", entries[0].Seq, entries[1].Seq)
	}
}
