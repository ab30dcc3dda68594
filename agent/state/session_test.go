package state

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
)

func TestSessionAppendAssignsSequence(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewSession("s1", "planner", now)

	first, err := s.Append(contractx.Message{Speaker: contractx.SpeakerUser, Kind: contractx.KindText, Content: "hi"}, now)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	second, err := s.Append(contractx.Message{Speaker: "planner", Kind: contractx.KindText, Content: "plan"}, now)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if first.Seq != 1 || second.Seq != 2 {
		t.Fatalf("unexpected seqs: %d, %d", first.Seq, second.Seq)
	}
	if s.LastWorkerText() != "plan" {
		t.Fatalf("unexpected last worker text: %q", s.LastWorkerText())
	}

	copyOf := s.Transcript()
	copyOf[0].Content = "mutated"
	if s.Transcript()[0].Content != "hi" {
		t.Fatal("transcript must not be mutable through a copy")
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestSessionFinishIsFinal(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := NewSession("s1", "planner", now)
	s.Finish(OutcomeTerminated, "done", now)
	s.Finish(OutcomeFailed, "other", now)

	if s.Outcome != OutcomeTerminated || s.FinalText != "done" {
		t.Fatalf("unexpected outcome: %s %q", s.Outcome, s.FinalText)
	}
	_, err := s.Append(contractx.Message{Speaker: "planner", Kind: contractx.KindText, Content: "late"}, now)
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(2))
	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, NewSession(id, "planner", time.Now())); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	if _, err := store.Load(ctx, "a"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}
	got, err := store.Load(ctx, "c")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.ID != "c" {
		t.Fatalf("unexpected session: %s", got.ID)
	}

	if err := store.Delete(ctx, "c"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, "c"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreExpires(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore(WithTTL(time.Minute))
	base := time.Now()
	store.now = func() time.Time { return base }
	if err := store.Save(ctx, NewSession("x", "planner", base)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := store.Load(ctx, "x"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}
