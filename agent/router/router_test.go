package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wareechai/trio-concierge/agent/contract"
	statex "github.com/wareechai/trio-concierge/agent/state"
)

type fakeCompleter struct {
	response string
	err      error
	lastSys  string
	lastMsgs []contract.Message
}

func (f *fakeCompleter) Generate(_ context.Context, system string, msgs []contract.Message) (string, error) {
	f.lastSys = system
	f.lastMsgs = msgs
	return f.response, f.err
}

func TestRouteParsesStrictJSON(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{response: `{"domain":"properties","confidence":0.93,"reasoning":"housing query"}`}
	decision := New(llm).Route(context.Background(), "find me a 2 bedroom apartment", "s1", nil)

	if decision.Domain != contract.DomainProperties {
		t.Fatalf("domain = %s, want properties", decision.Domain)
	}
	if decision.Confidence != 0.93 {
		t.Fatalf("confidence = %v, want 0.93", decision.Confidence)
	}
	if decision.RequiresClarification {
		t.Fatal("unexpected clarification request")
	}
}

func TestRouteFallsBackToDomainMention(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{response: "This is clearly an education question about schools."}
	decision := New(llm).Route(context.Background(), "schools near me", "s1", nil)

	if decision.Domain != contract.DomainEducation {
		t.Fatalf("domain = %s, want education", decision.Domain)
	}
	if decision.Confidence != 0.7 {
		t.Fatalf("confidence = %v, want 0.7", decision.Confidence)
	}
}

func TestRouteFallsBackToKeywords(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{response: "The user wants to reserve a table at some restaurant."}
	decision := New(llm).Route(context.Background(), "table for two", "s1", nil)

	if decision.Domain != contract.DomainBooking {
		t.Fatalf("domain = %s, want booking", decision.Domain)
	}
	if decision.Confidence != 0.8 {
		t.Fatalf("confidence = %v, want 0.8", decision.Confidence)
	}
}

func TestRouteUnparseableGoesUnclear(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{response: "I have no idea."}
	decision := New(llm).Route(context.Background(), "hmm", "s1", nil)

	if decision.Domain != contract.DomainUnclear {
		t.Fatalf("domain = %s, want unclear", decision.Domain)
	}
	if decision.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", decision.Confidence)
	}
	if !decision.RequiresClarification {
		t.Fatal("expected clarification request")
	}
}

func TestRouteModelErrorGoesUnclear(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{err: errors.New("upstream down")}
	decision := New(llm).Route(context.Background(), "anything", "s1", nil)

	if decision.Domain != contract.DomainUnclear || !decision.RequiresClarification {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestRouteUnknownDomainNormalizedToUnclear(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{response: `{"domain":"finance","confidence":0.9}`}
	decision := New(llm).Route(context.Background(), "stocks", "s1", nil)

	if decision.Domain != contract.DomainUnclear {
		t.Fatalf("domain = %s, want unclear", decision.Domain)
	}
}

func TestRouteClampsConfidence(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{response: `{"domain":"booking","confidence":1.7}`}
	decision := New(llm).Route(context.Background(), "dinner", "s1", nil)

	if decision.Confidence != 1 {
		t.Fatalf("confidence = %v, want 1", decision.Confidence)
	}
}

func TestRoutePromptIncludesRecentHistory(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{response: `{"domain":"booking","confidence":0.9}`}
	history := []statex.MemoryEntry{
		{Role: "user", Content: "turn-1"},
		{Role: "assistant", Content: "turn-2"},
		{Role: "user", Content: "turn-3"},
		{Role: "assistant", Content: "turn-4"},
	}
	New(llm).Route(context.Background(), "and a table tonight", "s1", history)

	prompt := llm.lastMsgs[0].Content
	if strings.Contains(prompt, "turn-1") {
		t.Fatal("prompt should only quote the last three turns")
	}
	for _, want := range []string{"turn-2", "turn-3", "turn-4"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %s", want)
		}
	}
}

func TestClarificationMessageMultiDomain(t *testing.T) {
	t.Parallel()

	msg := ClarificationMessage(contract.RoutingDecision{
		IsMultiDomain: true,
		Domains:       []contract.Domain{contract.DomainBooking, contract.DomainProperties},
	})
	if !strings.Contains(msg, "booking, properties") {
		t.Fatalf("unexpected message: %s", msg)
	}
}
