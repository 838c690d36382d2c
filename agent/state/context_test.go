package state

import (
	"context"
	"testing"
)

func TestContextStoreRoundTrip(t *testing.T) {
	t.Parallel()

	cs := NewContextStore(NewMemoryStore())
	ctx := context.Background()

	ec := NewExecutionContext("booking_abc12345")
	ec.MarkCompleted("step-1")
	ec.Collect("guest_count", "4")

	if err := cs.Save(ctx, "booking", "s1", ec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := cs.Load(ctx, "booking", "s1", "booking_abc12345")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !loaded.CompletedSet()["step-1"] {
		t.Fatalf("expected step-1 completed, got %+v", loaded.CompletedSteps)
	}
	if loaded.CollectedData["guest_count"] != "4" {
		t.Fatalf("unexpected collected data: %+v", loaded.CollectedData)
	}
}

func TestContextStoreResetsOnPlanMismatch(t *testing.T) {
	t.Parallel()

	cs := NewContextStore(NewMemoryStore())
	ctx := context.Background()

	ec := NewExecutionContext("booking_old00000")
	ec.MarkCompleted("step-1")
	if err := cs.Save(ctx, "booking", "s2", ec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := cs.Load(ctx, "booking", "s2", "booking_new00000")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.CompletedSteps) != 0 {
		t.Fatalf("expected fresh context for new plan, got %+v", loaded.CompletedSteps)
	}
	if loaded.PlanID != "booking_new00000" {
		t.Fatalf("PlanID = %s", loaded.PlanID)
	}
}

func TestContextStoreFreshWhenMissing(t *testing.T) {
	t.Parallel()

	cs := NewContextStore(NewMemoryStore())
	loaded, err := cs.Load(context.Background(), "education", "nobody", "education_00000000")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded == nil || len(loaded.CompletedSteps) != 0 {
		t.Fatalf("expected fresh context, got %+v", loaded)
	}
}

func TestMarkCompletedIdempotent(t *testing.T) {
	t.Parallel()

	ec := NewExecutionContext("p")
	ec.MarkCompleted("a")
	ec.MarkCompleted("a")
	if len(ec.CompletedSteps) != 1 {
		t.Fatalf("expected one entry, got %+v", ec.CompletedSteps)
	}
}
